// models/power.go
package models

import "time"

// Power effect types.
const (
	EffectMultiplier = "multiplier"
	EffectAutoClick  = "auto_click"
	EffectPermanent  = "permanent"
)

// Power categories.
const (
	CategoryBuff    = "buff"
	CategoryAttack  = "attack"
	CategorySupport = "support"
)

type Power struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null;uniqueIndex" json:"name"`
	Description string  `json:"description"`
	EffectType  string  `gorm:"not null" json:"effect_type"` // multiplier, auto_click, permanent
	EffectValue float64 `gorm:"not null" json:"effect_value"`
	Icon        string  `json:"icon"`

	// DurationSeconds nil means the power never expires.
	DurationSeconds      *int   `json:"duration_seconds,omitempty"`
	MaxLevel             int    `gorm:"not null;default:1" json:"max_level"`
	RequiresConfirmation bool   `gorm:"default:false" json:"requires_confirmation"`
	ActiveOnGrant        bool   `gorm:"default:false" json:"active_on_grant"`
	UseCount             *int   `json:"use_count,omitempty"`
	Category             string `gorm:"not null;default:buff" json:"category"` // buff, attack, support

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserPower struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;index;uniqueIndex:idx_user_power" json:"user_id"`
	PowerID uint `gorm:"not null;index;uniqueIndex:idx_user_power" json:"power_id"`

	Level            int        `gorm:"not null;default:1" json:"level"`
	IsActive         bool       `gorm:"default:false" json:"is_active"`
	AcquiredAt       time.Time  `json:"acquired_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"` // nil = never expires
	UsesLeft         *int       `json:"uses_left,omitempty"`  // nil = unlimited
	UpgradeConfirmed bool       `gorm:"default:false" json:"upgrade_confirmed"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Power Power `gorm:"foreignKey:PowerID" json:"power,omitempty"`
}

// Expired reports whether the instance is past its expiry at the given time.
// A power at max level never expires regardless of ExpiresAt.
func (up *UserPower) Expired(p *Power, now time.Time) bool {
	if up.Level >= p.MaxLevel {
		return false
	}
	return up.ExpiresAt != nil && up.ExpiresAt.Before(now)
}
