package database

import "time"

// Role is one entry of the role set a user can hold
type Role struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is a choir account. Roles live only in the user_roles join table.
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Email         string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username      string         `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Password      string         `json:"-" gorm:"not null"` // Password is not exposed in JSON
	FirstName     string         `json:"firstName" gorm:"type:varchar(100)"`
	LastName      string         `json:"lastName" gorm:"type:varchar(100)"`
	Phone         string         `json:"phone" gorm:"type:varchar(30)"`
	IsActive      bool           `json:"isActive" gorm:"not null;default:true"`
	LocationID    *uint          `json:"locationId" gorm:"index"`
	Location      *Location      `json:"location,omitempty"`
	Roles         []Role         `json:"roles" gorm:"many2many:user_roles;"`
	VoiceProfiles []VoiceProfile `json:"voiceProfiles,omitempty"`
	LastLoginAt   *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// RoleNames returns the names of the user's roles
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasAnyRole reports whether the user holds at least one of the roles
func (u *User) HasAnyRole(roles ...string) bool {
	for _, r := range u.Roles {
		for _, want := range roles {
			if r.Name == want {
				return true
			}
		}
	}
	return false
}

// VoiceProfile assigns a vocal part to a user. (user_id, voice_type) is unique.
type VoiceProfile struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:idx_voice_profile_user_voice"`
	VoiceType string    `json:"voiceType" gorm:"type:varchar(20);not null;uniqueIndex:idx_voice_profile_user_voice"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
}

// Location is a venue events take place in and users belong to
type Location struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(150);not null"`
	Type      string    `json:"type" gorm:"type:varchar(50);index"`
	Address   string    `json:"address" gorm:"type:varchar(255)"`
	City      string    `json:"city" gorm:"type:varchar(100);index"`
	Region    string    `json:"region" gorm:"type:varchar(100);index"`
	Country   string    `json:"country" gorm:"type:varchar(100)"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Song is either a playable file or a container grouping voice variants
// through ParentSongID.
type Song struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null;index"`
	Artist       string    `json:"artist" gorm:"type:varchar(255)"`
	Album        string    `json:"album" gorm:"type:varchar(255)"`
	Genre        string    `json:"genre" gorm:"type:varchar(100);index"`
	Category     string    `json:"category" gorm:"type:varchar(100);index"`
	FileName     string    `json:"fileName" gorm:"type:varchar(255)"`
	FilePath     string    `json:"filePath" gorm:"type:varchar(512)"`
	Folder       string    `json:"folder" gorm:"type:varchar(255);index"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType" gorm:"type:varchar(100)"`
	VoiceType    string    `json:"voiceType" gorm:"type:varchar(20);index"`
	ParentSongID *uint     `json:"parentSongId" gorm:"index"`
	Variants     []Song    `json:"variants,omitempty" gorm:"foreignKey:ParentSongID"`
	UploadedByID *uint     `json:"uploadedById" gorm:"index"`
	IsActive     bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsContainer reports whether the song has no audio of its own
func (s *Song) IsContainer() bool {
	return s.FileName == ""
}

// Playlist is an ordered list of songs owned by a user
type Playlist struct {
	ID          uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string         `json:"name" gorm:"type:varchar(150);not null"`
	Description string         `json:"description" gorm:"type:text"`
	OwnerID     uint           `json:"ownerId" gorm:"not null;index"`
	IsPublic    bool           `json:"isPublic"`
	IsActive    bool           `json:"isActive" gorm:"not null;default:true"`
	Items       []PlaylistItem `json:"items" gorm:"foreignKey:PlaylistID"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// PlaylistItem places a song at a position. Positions are dense, starting at 1.
type PlaylistItem struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaylistID uint      `json:"playlistId" gorm:"not null;uniqueIndex:idx_playlist_item_song"`
	SongID     uint      `json:"songId" gorm:"not null;uniqueIndex:idx_playlist_item_song"`
	Song       *Song     `json:"song,omitempty"`
	Position   int       `json:"order" gorm:"not null"`
	CreatedAt  time.Time `json:"addedAt"`
}

// Lyric is one text block of a song, optionally scoped to a voice type
type Lyric struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SongID      uint      `json:"songId" gorm:"not null;index"`
	VoiceType   string    `json:"voiceType" gorm:"type:varchar(20);index"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	LineOrder   int       `json:"lineOrder"`
	StartTime   *float64  `json:"startTime,omitempty"`
	EndTime     *float64  `json:"endTime,omitempty"`
	Language    string    `json:"language" gorm:"type:varchar(10)"`
	CreatedByID *uint     `json:"createdById"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Event is a dated occasion at a location with a song program and soloists
type Event struct {
	ID          uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string      `json:"title" gorm:"type:varchar(255);not null"`
	Description string      `json:"description" gorm:"type:text"`
	Category    string      `json:"category" gorm:"type:varchar(50);index"`
	Date        time.Time   `json:"date" gorm:"not null;index"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
	LocationID  *uint       `json:"locationId" gorm:"index"`
	Location    *Location   `json:"location,omitempty"`
	CreatedByID *uint       `json:"createdById"`
	IsActive    bool        `json:"isActive" gorm:"not null;default:true"`
	Songs       []EventSong `json:"songs" gorm:"foreignKey:EventID"`
	Soloists    []Soloist   `json:"soloists" gorm:"foreignKey:EventID"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// EventSong is one entry of an event program
type EventSong struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID   uint      `json:"eventId" gorm:"not null;uniqueIndex:idx_event_song"`
	SongID    uint      `json:"songId" gorm:"not null;uniqueIndex:idx_event_song"`
	Song      *Song     `json:"song,omitempty"`
	Position  int       `json:"order" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Soloist assigns a singer to an event, optionally for one song
type Soloist struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID   uint      `json:"eventId" gorm:"not null;index"`
	UserID    uint      `json:"userId" gorm:"not null;index"`
	User      *User     `json:"user,omitempty"`
	SongID    *uint     `json:"songId"`
	Song      *Song     `json:"song,omitempty"`
	VoiceType string    `json:"voiceType" gorm:"type:varchar(20)"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats is the dashboard summary
type Stats struct {
	Users          int64            `json:"users"`
	Songs          int64            `json:"songs"`
	Playlists      int64            `json:"playlists"`
	Events         int64            `json:"events"`
	UpcomingEvents int64            `json:"upcomingEvents"`
	Locations      int64            `json:"locations"`
	SongsByVoice   map[string]int64 `json:"songsByVoice"`
}

func allModels() []any {
	return []any{
		&Role{}, &Location{}, &User{}, &VoiceProfile{},
		&Song{}, &Playlist{}, &PlaylistItem{}, &Lyric{},
		&Event{}, &EventSong{}, &Soloist{},
	}
}
