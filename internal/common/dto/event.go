package dto

import "time"

type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	Category    string     `json:"category" binding:"max=50"`
	Date        time.Time  `json:"date" binding:"required"`
	EndDate     *time.Time `json:"endDate"`
	LocationID  *uint      `json:"locationId"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	Category    *string    `json:"category" binding:"omitempty,max=50"`
	Date        *time.Time `json:"date"`
	EndDate     *time.Time `json:"endDate"`
	LocationID  *uint      `json:"locationId"`
}

type EventSongRequest struct {
	SongID uint   `json:"songId" binding:"required"`
	Notes  string `json:"notes"`
}

type SoloistRequest struct {
	UserID    uint   `json:"userId" binding:"required"`
	SongID    *uint  `json:"songId"`
	VoiceType string `json:"voiceType"`
	Notes     string `json:"notes"`
}
