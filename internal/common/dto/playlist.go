package dto

type CreatePlaylistRequest struct {
	Name        string `json:"name" binding:"required,max=150"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=150"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

type PlaylistSongRequest struct {
	SongID uint `json:"songId" binding:"required"`
}

// ReorderRequest lists every song id of the playlist in the new order
type ReorderRequest struct {
	SongIDs []uint `json:"songIds" binding:"required,min=1"`
}
