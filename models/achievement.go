// models/achievement.go
package models

import "time"

// Trigger types for achievement thresholds.
const (
	TriggerClicks     = "clicks"
	TriggerRank       = "rank"
	TriggerClickSpeed = "click_speed"
)

// Rarity tiers.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Reward effects an achievement can carry.
const (
	RewardNone       = "none"
	RewardMultiplier = "multiplier"
	RewardAutoClick  = "auto_click"
	RewardPower      = "power"
)

type Achievement struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null;uniqueIndex" json:"name"`
	Description string  `gorm:"not null" json:"description"`
	TriggerType string  `gorm:"not null;index" json:"trigger_type"` // clicks, rank, click_speed
	Threshold   float64 `gorm:"not null" json:"threshold"`
	Rarity      string  `gorm:"not null" json:"rarity"`
	Icon        string  `json:"icon"`

	// Rewards
	RewardType    string   `gorm:"not null;default:none" json:"reward_type"` // none, multiplier, auto_click, power
	RewardValue   *float64 `json:"reward_value,omitempty"`
	RewardPowerID *uint    `json:"reward_power_id,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
