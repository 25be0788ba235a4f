package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleCataloguer = "cataloguer"
	RoleThirdParty = "third_party"
	RoleAdmin      = "admin"
)

// User represents a user in the system (cataloguer, third-party reviewer, or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'cataloguer'" json:"role"` // "cataloguer", "third_party" or "admin"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
