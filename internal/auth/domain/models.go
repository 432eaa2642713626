// Package domain contains core types for the auth service.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
)

// User represents a system user account. CompanyID is nil for the
// platform super admin only.
type User struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	CompanyID         *snowflake.ID `gorm:"index" json:"company_id,omitempty"`
	Email             string        `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash      string        `gorm:"type:text;not null" json:"-"`
	FirstName         string        `gorm:"type:text;not null" json:"first_name"`
	LastName          string        `gorm:"type:text;not null" json:"last_name"`
	Phone             string        `gorm:"type:text" json:"phone,omitempty"`
	Role              string        `gorm:"type:text;not null;default:demandeur" json:"role"`
	PreferredLanguage string        `gorm:"type:text;not null;default:fr" json:"preferred_language"`
	IsActive          bool          `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt       *time.Time    `json:"last_login_at,omitempty"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Actor converts the user into the request-scoped principal.
func (u *User) Actor() tenantctx.Actor {
	actor := tenantctx.Actor{
		UserID: u.ID,
		Role:   u.Role,
	}
	if u.CompanyID != nil {
		actor.CompanyID = *u.CompanyID
	}
	return actor
}

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID           snowflake.ID `gorm:"not null;index" json:"user_id"`
	SessionTokenHash string       `gorm:"type:text;not null;uniqueIndex" json:"-"`
	UserAgent        string       `gorm:"type:text" json:"user_agent,omitempty"`
	IPAddress        string       `gorm:"type:text" json:"ip_address,omitempty"`
	ExpiresAt        time.Time    `gorm:"not null;index" json:"expires_at"`
	RevokedAt        *time.Time   `json:"revoked_at,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	LastSeenAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_seen_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
