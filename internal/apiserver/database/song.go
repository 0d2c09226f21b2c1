package database

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func activeVariants(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("voice_type asc, id asc")
}

func (g *GormDB) CreateSong(ctx context.Context, song *Song) error {
	return g.conn(ctx).Omit("Variants").Create(song).Error
}

// GetSong returns an active song with its active variants
func (g *GormDB) GetSong(ctx context.Context, id uint) (*Song, error) {
	var song Song
	err := g.conn(ctx).
		Preload("Variants", activeVariants).
		Where("is_active = ?", true).
		First(&song, id).Error
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (g *GormDB) ListSongs(ctx context.Context, filter SongFilter) ([]*Song, error) {
	songs := make([]*Song, 0)
	q := g.conn(ctx).Preload("Variants", activeVariants).Where("is_active = ?", true)

	if filter.TopLevelOnly {
		q = q.Where("parent_song_id IS NULL")
	}
	if filter.ParentID != nil {
		q = q.Where("parent_song_id = ?", *filter.ParentID)
	}
	if filter.VoiceType != "" {
		// a container matches when one of its active variants has the voice
		q = q.Where("voice_type = ? OR EXISTS (SELECT 1 FROM songs v WHERE v.parent_song_id = songs.id AND v.is_active = ? AND v.voice_type = ?)",
			filter.VoiceType, true, filter.VoiceType)
	}
	if filter.Genre != "" {
		q = q.Where("LOWER(genre) = ?", strings.ToLower(filter.Genre))
	}
	if filter.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Artist != "" {
		q = q.Where("LOWER(artist) LIKE ?", "%"+strings.ToLower(filter.Artist)+"%")
	}
	if filter.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.UploadedByID != nil {
		q = q.Where("uploaded_by_id = ?", *filter.UploadedByID)
	}

	err := q.Order("title asc, id asc").Find(&songs).Error
	return songs, err
}

// UpdateSong saves the song's own columns
func (g *GormDB) UpdateSong(ctx context.Context, song *Song) error {
	return g.conn(ctx).Omit(clause.Associations).Save(song).Error
}

// DeactivateSong flips is_active on the song and its variants. Files stay on disk.
func (g *GormDB) DeactivateSong(ctx context.Context, id uint) (int64, error) {
	var affected int64
	err := g.Transaction(ctx, func(ctx context.Context) error {
		if err := g.deactivate(ctx, &Song{}, id); err != nil {
			return err
		}
		res := g.conn(ctx).Model(&Song{}).
			Where("parent_song_id = ? AND is_active = ?", id, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected + 1
		return nil
	})
	return affected, err
}

func (g *GormDB) VariantExists(ctx context.Context, parentID uint, voiceType string) (bool, error) {
	var count int64
	err := g.conn(ctx).Model(&Song{}).
		Where("parent_song_id = ? AND voice_type = ? AND is_active = ?", parentID, voiceType, true).
		Count(&count).Error
	return count > 0, err
}

// ReferencedFolders lists upload folders that any song row points to,
// active or not, so soft-deleted songs keep their files.
func (g *GormDB) ReferencedFolders(ctx context.Context) ([]string, error) {
	folders := make([]string, 0)
	err := g.conn(ctx).Model(&Song{}).
		Where("folder <> ''").
		Distinct("folder").
		Pluck("folder", &folders).Error
	return folders, err
}
