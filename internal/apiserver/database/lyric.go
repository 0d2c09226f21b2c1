package database

import (
	"context"

	"gorm.io/gorm/clause"
)

func (g *GormDB) CreateLyric(ctx context.Context, lyric *Lyric) error {
	return g.conn(ctx).Create(lyric).Error
}

func (g *GormDB) GetLyric(ctx context.Context, id uint) (*Lyric, error) {
	var lyric Lyric
	if err := g.conn(ctx).Where("is_active = ?", true).First(&lyric, id).Error; err != nil {
		return nil, err
	}
	return &lyric, nil
}

// ListLyrics returns the active lines of a song. With a voice type, lines
// scoped to that voice are returned together with the unscoped ones.
func (g *GormDB) ListLyrics(ctx context.Context, songID uint, voiceType string) ([]*Lyric, error) {
	lyrics := make([]*Lyric, 0)
	q := g.conn(ctx).Where("song_id = ? AND is_active = ?", songID, true)
	if voiceType != "" {
		q = q.Where("voice_type = ? OR voice_type = '' OR voice_type IS NULL", voiceType)
	}
	err := q.Order("line_order asc").Order("start_time asc").Order("id asc").Find(&lyrics).Error
	return lyrics, err
}

func (g *GormDB) UpdateLyric(ctx context.Context, lyric *Lyric) error {
	return g.conn(ctx).Omit(clause.Associations).Save(lyric).Error
}

func (g *GormDB) DeactivateLyric(ctx context.Context, id uint) error {
	return g.deactivate(ctx, &Lyric{}, id)
}

func (g *GormDB) CountLyrics(ctx context.Context, songID uint) (int64, error) {
	var count int64
	err := g.conn(ctx).Model(&Lyric{}).Where("song_id = ? AND is_active = ?", songID, true).Count(&count).Error
	return count, err
}
