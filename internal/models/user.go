package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// ParseUserRole is the only place a stored role name becomes a UserRole.
func ParseUserRole(name string) (UserRole, bool) {
	switch UserRole(strings.ToLower(strings.TrimSpace(name))) {
	case UserRoleUser:
		return UserRoleUser, true
	case UserRoleAdmin:
		return UserRoleAdmin, true
	default:
		return "", false
	}
}

// Role is reference data seeded at install time.
type Role struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:32;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"size:100"`
	LastName     string `gorm:"size:100"`
	IsActive     bool   `gorm:"not null;default:true"`
	RoleID       uint   `gorm:"not null;index"`
	Role         Role   `gorm:"foreignKey:RoleID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRole resolves the preloaded role row. Unknown names never grant admin.
func (u User) UserRole() UserRole {
	role, ok := ParseUserRole(u.Role.Name)
	if !ok {
		return UserRoleUser
	}
	return role
}

func (u User) IsAdmin() bool {
	return u.UserRole() == UserRoleAdmin
}
