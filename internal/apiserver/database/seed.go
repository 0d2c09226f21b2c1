package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/amoylab/choirhub/internal/auth"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/config"
)

// InitSuperAdmin creates the configured admin account when no user with
// that username or email exists. It reports whether a user was created.
func InitSuperAdmin(ctx context.Context, db Database, cfg config.SuperAdminConfig) (bool, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return false, nil
	}
	email := cfg.Email
	if email == "" {
		email = cfg.Username + "@choirhub.local"
	}

	created := false
	err := db.Transaction(ctx, func(ctx context.Context) error {
		if err := db.EnsureRoles(ctx); err != nil {
			return err
		}
		exists, err := db.UserExists(ctx, email, cfg.Username, 0)
		if err != nil || exists {
			return err
		}
		hashed, err := auth.HashPassword(cfg.Password)
		if err != nil {
			return fmt.Errorf("super admin password: %w", err)
		}
		roles, err := db.GetRolesByNames(ctx, []string{string(cnst.RoleAdmin)})
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			return errors.New("admin role missing")
		}
		user := &User{
			Email:    email,
			Username: cfg.Username,
			Password: hashed,
			IsActive: true,
			Roles:    roles,
		}
		if err := db.CreateUser(ctx, user); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

var demoLocations = []Location{
	{Name: "Sede Central", Type: "headquarters", City: "Santiago", Region: "Metropolitana", Country: "Chile"},
	{Name: "Capilla San José", Type: "chapel", City: "Valparaíso", Region: "Valparaíso", Country: "Chile"},
}

// SeedDemo inserts sample locations and an empty container song. It is a
// no-op when any location already exists.
func SeedDemo(ctx context.Context, db Database) error {
	return db.Transaction(ctx, func(ctx context.Context) error {
		existing, err := db.ListLocations(ctx, LocationFilter{})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for i := range demoLocations {
			loc := demoLocations[i]
			loc.IsActive = true
			if err := db.CreateLocation(ctx, &loc); err != nil {
				return err
			}
		}
		song := &Song{Title: "Aleluya", Artist: "G. F. Händel", Category: "sacred", IsActive: true}
		return db.CreateSong(ctx, song)
	})
}
