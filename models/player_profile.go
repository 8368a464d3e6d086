// models/player_profile.go
package models

import (
	"time"
)

// Fixed-point scales for balances carried on a profile.
// Loyalty uses 8 implied decimal places, reputation uses 2.
const (
	LoyaltyScale    int64 = 100_000_000
	ReputationScale int64 = 100
)

// PlayerProfile is the per-identity ledger record. The ID is the 20-byte
// identity in 0x-hex form. Profiles are created once (admin or self-service),
// never deleted, only ever disabled.
type PlayerProfile struct {
	ID      string        `json:"id" gorm:"primaryKey;type:varchar(42)"`
	Tickets int64         `json:"tickets" gorm:"not null;default:0"`        // spendable entry-fee / prize-pool currency
	Rewards int64         `json:"rewards" gorm:"not null;default:0"`        // winnings currency, separate pool from tickets
	Loyalty int64         `json:"loyalty" gorm:"not null;default:0"`        // 8 decimal places
	Reputation int64      `json:"reputation" gorm:"not null;default:0"`     // 2 decimal places, signed
	Rank    int16         `json:"rank" gorm:"not null;default:0"`           // admin-set, checked by competition eligibility
	Elo     int64         `json:"elo" gorm:"not null;default:0"`            // admin-set, checked by competition eligibility
	CompetitionNonce uint64 `json:"competition_nonce" gorm:"not null;default:0"` // strictly increasing, never reused
	NodeCount int64       `json:"node_count" gorm:"not null;default:0"`
	Status  ProfileStatus `json:"status" gorm:"type:varchar(16);not null;default:'created'"`

	LastGameTimestamp *time.Time `json:"last_game_timestamp,omitempty"`

	// Dispute bookkeeping. Populated, not yet acted on.
	GuiltyCount         int64      `json:"guilty_count" gorm:"not null;default:0"`
	LastGuiltyTimestamp *time.Time `json:"last_guilty_timestamp,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
