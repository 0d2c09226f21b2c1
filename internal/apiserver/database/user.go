package database

import (
	"context"
	"strings"
	"time"

	"github.com/amoylab/choirhub/internal/common/cnst"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (g *GormDB) ListRoles(ctx context.Context) ([]*Role, error) {
	roles := make([]*Role, 0)
	err := g.conn(ctx).Order("id asc").Find(&roles).Error
	return roles, err
}

func (g *GormDB) GetRolesByNames(ctx context.Context, names []string) ([]Role, error) {
	roles := make([]Role, 0, len(names))
	if len(names) == 0 {
		return roles, nil
	}
	err := g.conn(ctx).Where("name IN ?", names).Order("id asc").Find(&roles).Error
	return roles, err
}

// EnsureRoles inserts the default role set, skipping rows that exist
func (g *GormDB) EnsureRoles(ctx context.Context) error {
	for _, r := range cnst.DefaultRoles {
		role := &Role{Name: string(r.Name), Description: r.Description}
		if err := g.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(role).Error; err != nil {
			return err
		}
	}
	return nil
}

func (g *GormDB) CreateUser(ctx context.Context, user *User) error {
	return g.conn(ctx).Create(user).Error
}

func (g *GormDB) withUserRelations(ctx context.Context) *gorm.DB {
	return g.conn(ctx).
		Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("roles.id asc") }).
		Preload("VoiceProfiles", func(db *gorm.DB) *gorm.DB { return db.Order("voice_profiles.id asc") }).
		Preload("Location")
}

func (g *GormDB) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := g.withUserRelations(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByLogin finds a user by email or username
func (g *GormDB) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	var user User
	login = strings.TrimSpace(login)
	err := g.withUserRelations(ctx).
		Where("LOWER(email) = ? OR username = ?", strings.ToLower(login), login).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *GormDB) UserExists(ctx context.Context, email, username string, excludeID uint) (bool, error) {
	var count int64
	q := g.conn(ctx).Model(&User{}).
		Where("LOWER(email) = ? OR username = ?", strings.ToLower(email), username)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (g *GormDB) ListUsers(ctx context.Context, filter UserFilter) ([]*User, error) {
	users := make([]*User, 0)
	q := g.withUserRelations(ctx).Model(&User{})
	if filter.Active != nil {
		q = q.Where("users.is_active = ?", *filter.Active)
	}
	if filter.LocationID != nil {
		q = q.Where("users.location_id = ?", *filter.LocationID)
	}
	if filter.VoiceType != "" {
		q = q.Where("EXISTS (SELECT 1 FROM voice_profiles vp WHERE vp.user_id = users.id AND vp.voice_type = ?)", filter.VoiceType)
	}
	if filter.Role != "" {
		q = q.Where("EXISTS (SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = users.id AND r.name = ?)", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(users.username) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ?", like, like, like, like)
	}
	err := q.Order("users.id asc").Find(&users).Error
	return users, err
}

// UpdateUser saves the user's own columns; associations are managed separately
func (g *GormDB) UpdateUser(ctx context.Context, user *User) error {
	return g.conn(ctx).Omit(clause.Associations).Save(user).Error
}

func (g *GormDB) SetUserActive(ctx context.Context, id uint, active bool) error {
	res := g.conn(ctx).Model(&User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (g *GormDB) ReplaceUserRoles(ctx context.Context, userID uint, roles []Role) error {
	user := &User{ID: userID}
	return g.conn(ctx).Model(user).Association("Roles").Replace(roles)
}

func (g *GormDB) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return g.conn(ctx).Model(&User{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (g *GormDB) ListVoiceProfiles(ctx context.Context, userID uint) ([]*VoiceProfile, error) {
	profiles := make([]*VoiceProfile, 0)
	err := g.conn(ctx).Where("user_id = ?", userID).Order("id asc").Find(&profiles).Error
	return profiles, err
}

func (g *GormDB) CreateVoiceProfile(ctx context.Context, profile *VoiceProfile) error {
	return g.Transaction(ctx, func(ctx context.Context) error {
		if profile.IsPrimary {
			if err := g.conn(ctx).Model(&VoiceProfile{}).
				Where("user_id = ?", profile.UserID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return g.conn(ctx).Create(profile).Error
	})
}

func (g *GormDB) DeleteVoiceProfile(ctx context.Context, userID uint, voiceType string) error {
	res := g.conn(ctx).Where("user_id = ? AND voice_type = ?", userID, voiceType).Delete(&VoiceProfile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
