package database

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

func (g *GormDB) CreateLocation(ctx context.Context, location *Location) error {
	return g.conn(ctx).Create(location).Error
}

// GetLocation returns an active location
func (g *GormDB) GetLocation(ctx context.Context, id uint) (*Location, error) {
	var location Location
	if err := g.conn(ctx).Where("is_active = ?", true).First(&location, id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (g *GormDB) ListLocations(ctx context.Context, filter LocationFilter) ([]*Location, error) {
	locations := make([]*Location, 0)
	q := g.conn(ctx).Where("is_active = ?", true)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(filter.City))
	}
	if filter.Region != "" {
		q = q.Where("LOWER(region) = ?", strings.ToLower(filter.Region))
	}
	err := q.Order("name asc").Find(&locations).Error
	return locations, err
}

func (g *GormDB) UpdateLocation(ctx context.Context, location *Location) error {
	return g.conn(ctx).Save(location).Error
}

func (g *GormDB) DeactivateLocation(ctx context.Context, id uint) error {
	return g.deactivate(ctx, &Location{}, id)
}

// deactivate flips is_active on an active row of model's table
func (g *GormDB) deactivate(ctx context.Context, model any, id uint) error {
	res := g.conn(ctx).Model(model).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
