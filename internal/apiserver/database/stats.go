package database

import (
	"context"
	"time"
)

type voiceCount struct {
	VoiceType string
	Count     int64
}

// Stats counts active rows for the dashboard
func (g *GormDB) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{SongsByVoice: make(map[string]int64)}
	db := g.conn(ctx)

	counts := []struct {
		model any
		dst   *int64
	}{
		{&User{}, &stats.Users},
		{&Song{}, &stats.Songs},
		{&Playlist{}, &stats.Playlists},
		{&Event{}, &stats.Events},
		{&Location{}, &stats.Locations},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where("is_active = ?", true).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&Event{}).
		Where("is_active = ? AND date >= ?", true, now.UTC()).
		Count(&stats.UpcomingEvents).Error; err != nil {
		return nil, err
	}

	var rows []voiceCount
	if err := db.Model(&Song{}).
		Select("voice_type, COUNT(*) AS count").
		Where("is_active = ? AND voice_type <> ''", true).
		Group("voice_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.SongsByVoice[r.VoiceType] = r.Count
	}
	return stats, nil
}
