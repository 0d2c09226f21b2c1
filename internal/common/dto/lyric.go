package dto

type CreateLyricRequest struct {
	SongID    uint     `json:"songId" binding:"required"`
	VoiceType string   `json:"voiceType"`
	Content   string   `json:"content" binding:"required"`
	LineOrder int      `json:"lineOrder" binding:"min=0"`
	StartTime *float64 `json:"startTime" binding:"omitempty,min=0"`
	EndTime   *float64 `json:"endTime" binding:"omitempty,min=0"`
	Language  string   `json:"language" binding:"max=10"`
}

type UpdateLyricRequest struct {
	VoiceType *string  `json:"voiceType"`
	Content   *string  `json:"content" binding:"omitempty,min=1"`
	LineOrder *int     `json:"lineOrder" binding:"omitempty,min=0"`
	StartTime *float64 `json:"startTime" binding:"omitempty,min=0"`
	EndTime   *float64 `json:"endTime" binding:"omitempty,min=0"`
	Language  *string  `json:"language" binding:"omitempty,max=10"`
}
