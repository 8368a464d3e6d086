// models/change_log.go
package models

import (
	"time"
)

// ChangeLog is the append-only change-notification sink. Every mutating
// operation writes one row per entity it touches, inside the same
// transaction as the mutation itself.
type ChangeLog struct {
	ID         string     `json:"id" gorm:"primaryKey;type:uuid"`
	ActorID    string     `json:"actor_id" gorm:"type:varchar(42);not null;index"`
	EntityType string     `json:"entity_type" gorm:"type:varchar(32);not null;index"`
	EntityKey  string     `json:"entity_key" gorm:"type:varchar(66);not null;index"`
	Change     ChangeType `json:"change" gorm:"type:varchar(16);not null"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// Entity type labels used in the change log.
const (
	EntityPlayerProfile = "player_profile"
	EntityNodeInfo      = "node_info"
	EntityNodeQueueTier = "node_queue_tier"
	EntityGame          = "game_definition"
	EntityCompetition   = "competition"
)
