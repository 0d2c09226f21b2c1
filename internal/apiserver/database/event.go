package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func eventProgram(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func (g *GormDB) CreateEvent(ctx context.Context, event *Event) error {
	return g.conn(ctx).Omit(clause.Associations).Create(event).Error
}

// GetEvent returns an active event with its location, program and soloists
func (g *GormDB) GetEvent(ctx context.Context, id uint) (*Event, error) {
	var event Event
	err := g.conn(ctx).
		Preload("Location").
		Preload("Songs", eventProgram).
		Preload("Songs.Song").
		Preload("Soloists", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Soloists.User").
		Preload("Soloists.Song").
		Where("is_active = ?", true).
		First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (g *GormDB) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	events := make([]*Event, 0)
	q := g.conn(ctx).Preload("Location").Where("is_active = ?", true)
	if filter.LocationID != nil {
		q = q.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("date <= ?", filter.To.UTC())
	}
	if filter.Upcoming {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		q = q.Where("date >= ?", now.UTC()).Order("date asc")
	} else {
		q = q.Order("date desc")
	}
	err := q.Order("id asc").Find(&events).Error
	return events, err
}

func (g *GormDB) UpdateEvent(ctx context.Context, event *Event) error {
	return g.conn(ctx).Omit(clause.Associations).Save(event).Error
}

func (g *GormDB) DeactivateEvent(ctx context.Context, id uint) error {
	return g.deactivate(ctx, &Event{}, id)
}

// AddEventSong appends a song to the program
func (g *GormDB) AddEventSong(ctx context.Context, eventID, songID uint, notes string) (*EventSong, error) {
	entry := &EventSong{EventID: eventID, SongID: songID, Notes: notes}
	err := g.Transaction(ctx, func(ctx context.Context) error {
		var count int64
		if err := g.conn(ctx).Model(&EventSong{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
			return err
		}
		entry.Position = int(count) + 1
		if err := g.conn(ctx).Omit("Song").Create(entry).Error; err != nil {
			return err
		}
		return g.renumberProgram(ctx, eventID)
	})
	if err != nil {
		return nil, err
	}
	if err := g.conn(ctx).Preload("Song").First(entry, entry.ID).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (g *GormDB) RemoveEventSong(ctx context.Context, eventID, songID uint) error {
	return g.Transaction(ctx, func(ctx context.Context) error {
		res := g.conn(ctx).Where("event_id = ? AND song_id = ?", eventID, songID).Delete(&EventSong{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return g.renumberProgram(ctx, eventID)
	})
}

func (g *GormDB) renumberProgram(ctx context.Context, eventID uint) error {
	var entries []EventSong
	if err := eventProgram(g.conn(ctx).Where("event_id = ?", eventID)).Find(&entries).Error; err != nil {
		return err
	}
	for i, e := range entries {
		if e.Position == i+1 {
			continue
		}
		if err := g.conn(ctx).Model(&EventSong{}).Where("id = ?", e.ID).Update("position", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}

func (g *GormDB) AddSoloist(ctx context.Context, soloist *Soloist) error {
	if err := g.conn(ctx).Omit(clause.Associations).Create(soloist).Error; err != nil {
		return err
	}
	return g.conn(ctx).Preload("User").Preload("Song").First(soloist, soloist.ID).Error
}

func (g *GormDB) RemoveSoloist(ctx context.Context, eventID, soloistID uint) error {
	res := g.conn(ctx).Where("id = ? AND event_id = ?", soloistID, eventID).Delete(&Soloist{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
