package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidOrder is returned when a reorder request is not a permutation of the items
var ErrInvalidOrder = errors.New("song ids must list every playlist item exactly once")

func playlistItems(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func (g *GormDB) CreatePlaylist(ctx context.Context, playlist *Playlist) error {
	return g.conn(ctx).Omit("Items").Create(playlist).Error
}

// GetPlaylist returns an active playlist with items in order
func (g *GormDB) GetPlaylist(ctx context.Context, id uint) (*Playlist, error) {
	var playlist Playlist
	err := g.conn(ctx).
		Preload("Items", playlistItems).
		Preload("Items.Song").
		Where("is_active = ?", true).
		First(&playlist, id).Error
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

func (g *GormDB) ListPlaylists(ctx context.Context, filter PlaylistFilter) ([]*Playlist, error) {
	playlists := make([]*Playlist, 0)
	q := g.conn(ctx).
		Preload("Items", playlistItems).
		Where("is_active = ?", true)
	switch {
	case filter.All:
	case filter.IncludePublic:
		q = q.Where("owner_id = ? OR is_public = ?", filter.OwnerID, true)
	default:
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	err := q.Order("updated_at desc, id desc").Find(&playlists).Error
	return playlists, err
}

func (g *GormDB) UpdatePlaylist(ctx context.Context, playlist *Playlist) error {
	return g.conn(ctx).Omit(clause.Associations).Save(playlist).Error
}

func (g *GormDB) DeactivatePlaylist(ctx context.Context, id uint) error {
	return g.deactivate(ctx, &Playlist{}, id)
}

// AddPlaylistItem appends a song and reassigns positions 1..n
func (g *GormDB) AddPlaylistItem(ctx context.Context, playlistID, songID uint) (*PlaylistItem, error) {
	item := &PlaylistItem{PlaylistID: playlistID, SongID: songID}
	err := g.Transaction(ctx, func(ctx context.Context) error {
		var count int64
		if err := g.conn(ctx).Model(&PlaylistItem{}).Where("playlist_id = ?", playlistID).Count(&count).Error; err != nil {
			return err
		}
		item.Position = int(count) + 1
		if err := g.conn(ctx).Omit("Song").Create(item).Error; err != nil {
			return err
		}
		if err := g.renumberPlaylist(ctx, playlistID); err != nil {
			return err
		}
		return g.touch(ctx, &Playlist{}, playlistID)
	})
	if err != nil {
		return nil, err
	}
	if err := g.conn(ctx).Preload("Song").First(item, item.ID).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (g *GormDB) RemovePlaylistItem(ctx context.Context, playlistID, songID uint) error {
	return g.Transaction(ctx, func(ctx context.Context) error {
		res := g.conn(ctx).Where("playlist_id = ? AND song_id = ?", playlistID, songID).Delete(&PlaylistItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := g.renumberPlaylist(ctx, playlistID); err != nil {
			return err
		}
		return g.touch(ctx, &Playlist{}, playlistID)
	})
}

// ReorderPlaylist sets positions from the given song order
func (g *GormDB) ReorderPlaylist(ctx context.Context, playlistID uint, songIDs []uint) error {
	return g.Transaction(ctx, func(ctx context.Context) error {
		var items []PlaylistItem
		if err := g.conn(ctx).Where("playlist_id = ?", playlistID).Find(&items).Error; err != nil {
			return err
		}
		bySong := make(map[uint]uint, len(items))
		for _, it := range items {
			bySong[it.SongID] = it.ID
		}
		if len(songIDs) != len(items) {
			return ErrInvalidOrder
		}
		seen := make(map[uint]bool, len(songIDs))
		for _, id := range songIDs {
			if _, ok := bySong[id]; !ok || seen[id] {
				return ErrInvalidOrder
			}
			seen[id] = true
		}
		for i, songID := range songIDs {
			if err := g.conn(ctx).Model(&PlaylistItem{}).
				Where("id = ?", bySong[songID]).
				Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return g.touch(ctx, &Playlist{}, playlistID)
	})
}

func (g *GormDB) renumberPlaylist(ctx context.Context, playlistID uint) error {
	var items []PlaylistItem
	if err := playlistItems(g.conn(ctx).Where("playlist_id = ?", playlistID)).Find(&items).Error; err != nil {
		return err
	}
	for i, it := range items {
		if it.Position == i+1 {
			continue
		}
		if err := g.conn(ctx).Model(&PlaylistItem{}).Where("id = ?", it.ID).Update("position", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}

// touch bumps updated_at of a parent row
func (g *GormDB) touch(ctx context.Context, model any, id uint) error {
	return g.conn(ctx).Model(model).Where("id = ?", id).Update("updated_at", time.Now()).Error
}
