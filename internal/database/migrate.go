package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cemlevent54/FileMate/internal/models"
	"github.com/cemlevent54/FileMate/internal/security"
)

func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.Role{}, &models.User{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// SeedRoles creates the role rows in a fixed order so "user" gets id 1 and
// "admin" id 2 on a fresh database.
func SeedRoles(ctx context.Context, db *gorm.DB) error {
	for _, name := range []models.UserRole{models.UserRoleUser, models.UserRoleAdmin} {
		role := models.Role{Name: string(name)}
		if err := db.WithContext(ctx).Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

type AdminSeed struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SeedAdmin creates the admin account unless the email already exists.
func SeedAdmin(ctx context.Context, db *gorm.DB, hasher security.PasswordHasher, seed AdminSeed, log zerolog.Logger) error {
	email := strings.TrimSpace(strings.ToLower(seed.Email))
	if email == "" || seed.Password == "" {
		return errors.New("seed admin: email and password are required")
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Info().Str("email", email).Msg("admin account already present")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}

	var role models.Role
	if err := db.WithContext(ctx).Where("name = ?", string(models.UserRoleAdmin)).First(&role).Error; err != nil {
		return fmt.Errorf("seed admin: admin role missing: %w", err)
	}

	hash, err := hasher.Hash(seed.Password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	admin := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		IsActive:     true,
		RoleID:       role.ID,
	}
	if err := db.WithContext(ctx).Omit("Role").Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Info().Str("email", email).Uint("user_id", admin.ID).Msg("admin account created")
	return nil
}
