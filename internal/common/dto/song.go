package dto

// CreateSongRequest creates a song row without audio, usually a container
// variants are uploaded into later
type CreateSongRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Artist       string `json:"artist" binding:"max=255"`
	Album        string `json:"album" binding:"max=255"`
	Genre        string `json:"genre" binding:"max=100"`
	Category     string `json:"category" binding:"max=100"`
	VoiceType    string `json:"voiceType"`
	ParentSongID *uint  `json:"parentSongId"`
}

// UpdateSongRequest changes metadata; files are never replaced
type UpdateSongRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=1,max=255"`
	Artist       *string `json:"artist" binding:"omitempty,max=255"`
	Album        *string `json:"album" binding:"omitempty,max=255"`
	Genre        *string `json:"genre" binding:"omitempty,max=100"`
	Category     *string `json:"category" binding:"omitempty,max=100"`
	VoiceType    *string `json:"voiceType"`
	ParentSongID *uint   `json:"parentSongId"`
}

// SongMetadata is the form part of an upload
type SongMetadata struct {
	Title     string `form:"title"`
	Artist    string `form:"artist"`
	Album     string `form:"album"`
	Genre     string `form:"genre"`
	Category  string `form:"category"`
	VoiceType string `form:"voiceType"`
	// VoiceAssignments maps original file names to voice types, as JSON
	VoiceAssignments string `form:"voiceAssignments"`
}
