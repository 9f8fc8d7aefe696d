// models/user.go
package models

import (
	"time"
)

type User struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Username    string  `gorm:"uniqueIndex;not null" json:"username"`
	Email       *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Password    string  `gorm:"not null" json:"-"`
	DisplayName string  `json:"display_name"`
	IsGuest     bool    `gorm:"default:false" json:"is_guest"`
	IsAdmin     bool    `gorm:"default:false" json:"is_admin"`
	IsBanned    bool    `gorm:"default:false" json:"is_banned"`

	// Progression. ClickTotal only ever increases; rank is derived from the
	// ordered set of totals and never stored.
	ClickTotal int64 `gorm:"default:0" json:"click_total"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastLogin time.Time `json:"last_login"`

	// Relationships
	Achievements []UserAchievement `gorm:"foreignKey:UserID" json:"achievements,omitempty"`
	Powers       []UserPower       `gorm:"foreignKey:UserID" json:"powers,omitempty"`
}

type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint      `gorm:"not null;index;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
	Notified      bool      `gorm:"default:false" json:"notified"`

	// Relationships
	User        User        `gorm:"foreignKey:UserID" json:"-"`
	Achievement Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}
