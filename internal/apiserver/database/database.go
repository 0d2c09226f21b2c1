package database

import (
	"context"
	"time"
)

// UserFilter narrows ListUsers
type UserFilter struct {
	LocationID *uint
	VoiceType  string
	Role       string
	Active     *bool
	Search     string
}

// SongFilter narrows ListSongs. Only active songs are ever returned.
type SongFilter struct {
	VoiceType    string
	Genre        string
	Category     string
	Artist       string
	Search       string
	ParentID     *uint
	TopLevelOnly bool
	UploadedByID *uint
}

// PlaylistFilter narrows ListPlaylists
type PlaylistFilter struct {
	OwnerID       uint
	IncludePublic bool
	All           bool
}

// LocationFilter narrows ListLocations
type LocationFilter struct {
	Type   string
	City   string
	Region string
}

// EventFilter narrows ListEvents
type EventFilter struct {
	LocationID *uint
	Category   string
	Upcoming   bool
	From       *time.Time
	To         *time.Time
	Now        time.Time
}

// Database defines the methods for database operations.
type Database interface {
	// Close closes the database connection.
	Close() error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Transaction runs fn in a transaction carried by the context.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	ListRoles(ctx context.Context) ([]*Role, error)
	GetRolesByNames(ctx context.Context, names []string) ([]Role, error)
	EnsureRoles(ctx context.Context) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	UserExists(ctx context.Context, email, username string, excludeID uint) (bool, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	SetUserActive(ctx context.Context, id uint, active bool) error
	ReplaceUserRoles(ctx context.Context, userID uint, roles []Role) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error

	ListVoiceProfiles(ctx context.Context, userID uint) ([]*VoiceProfile, error)
	CreateVoiceProfile(ctx context.Context, profile *VoiceProfile) error
	DeleteVoiceProfile(ctx context.Context, userID uint, voiceType string) error

	CreateLocation(ctx context.Context, location *Location) error
	GetLocation(ctx context.Context, id uint) (*Location, error)
	ListLocations(ctx context.Context, filter LocationFilter) ([]*Location, error)
	UpdateLocation(ctx context.Context, location *Location) error
	DeactivateLocation(ctx context.Context, id uint) error

	CreateSong(ctx context.Context, song *Song) error
	GetSong(ctx context.Context, id uint) (*Song, error)
	ListSongs(ctx context.Context, filter SongFilter) ([]*Song, error)
	UpdateSong(ctx context.Context, song *Song) error
	DeactivateSong(ctx context.Context, id uint) (int64, error)
	VariantExists(ctx context.Context, parentID uint, voiceType string) (bool, error)
	ReferencedFolders(ctx context.Context) ([]string, error)

	CreatePlaylist(ctx context.Context, playlist *Playlist) error
	GetPlaylist(ctx context.Context, id uint) (*Playlist, error)
	ListPlaylists(ctx context.Context, filter PlaylistFilter) ([]*Playlist, error)
	UpdatePlaylist(ctx context.Context, playlist *Playlist) error
	DeactivatePlaylist(ctx context.Context, id uint) error
	AddPlaylistItem(ctx context.Context, playlistID, songID uint) (*PlaylistItem, error)
	RemovePlaylistItem(ctx context.Context, playlistID, songID uint) error
	ReorderPlaylist(ctx context.Context, playlistID uint, songIDs []uint) error

	CreateLyric(ctx context.Context, lyric *Lyric) error
	GetLyric(ctx context.Context, id uint) (*Lyric, error)
	ListLyrics(ctx context.Context, songID uint, voiceType string) ([]*Lyric, error)
	UpdateLyric(ctx context.Context, lyric *Lyric) error
	DeactivateLyric(ctx context.Context, id uint) error
	CountLyrics(ctx context.Context, songID uint) (int64, error)

	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id uint) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
	UpdateEvent(ctx context.Context, event *Event) error
	DeactivateEvent(ctx context.Context, id uint) error
	AddEventSong(ctx context.Context, eventID, songID uint, notes string) (*EventSong, error)
	RemoveEventSong(ctx context.Context, eventID, songID uint) error
	AddSoloist(ctx context.Context, soloist *Soloist) error
	RemoveSoloist(ctx context.Context, eventID, soloistID uint) error

	Stats(ctx context.Context, now time.Time) (*Stats, error)
}
