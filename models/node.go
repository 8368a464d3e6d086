// models/node.go
package models

import (
	"time"
)

// NodeInfo is one operator-run node instance. Instances for an owner are
// 1-indexed and contiguous: assignment appends at NodeCount+1, removal
// always takes the highest-numbered instances first.
type NodeInfo struct {
	OwnerID  string     `json:"owner_id" gorm:"primaryKey;type:varchar(42)"`
	Instance uint64     `json:"instance" gorm:"primaryKey;autoIncrement:false"`
	Status   NodeStatus `json:"status" gorm:"type:varchar(16);not null;default:'inactive'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Stakes []NodeStake `json:"stakes,omitempty" gorm:"foreignKey:OwnerID,Instance;references:OwnerID,Instance"`
}

// NodeStake records one successful tier stake on a node. StakeIndex is both
// the position in the node's stake list and the tier that was staked:
// a node's first stake is tier 0, its second tier 1, and so on.
type NodeStake struct {
	OwnerID       string `json:"owner_id" gorm:"primaryKey;type:varchar(42)"`
	Instance      uint64 `json:"instance" gorm:"primaryKey;autoIncrement:false"`
	StakeIndex    int    `json:"stake_index" gorm:"primaryKey;autoIncrement:false"`
	LoyaltyLocked int64  `json:"loyalty_locked" gorm:"not null"` // 8 decimal places

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// NodeQueueTier is an append-only staking class: tier i can only be
// configured once tiers 0..i-1 exist.
type NodeQueueTier struct {
	Index           int   `json:"index" gorm:"primaryKey;autoIncrement:false;column:tier_index"`
	RequiredLoyalty int64 `json:"required_loyalty" gorm:"not null"` // 8 decimal places
	TurnsPerStake   int   `json:"turns_per_stake" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NodeQueueSlot is one turn in the rotation queue. Positions are dense
// (0..n-1); removal is swap-remove, so order is not stable across cleanup.
// A slot goes stale when its node goes offline, is removed, or the stake
// that created it is unstaked; stale slots are purged lazily by traversal
// or by an explicit compaction pass.
type NodeQueueSlot struct {
	Position   int    `json:"position" gorm:"primaryKey;autoIncrement:false"`
	OwnerID    string `json:"owner_id" gorm:"type:varchar(42);not null;index"`
	Instance   uint64 `json:"instance" gorm:"not null"`
	StakeIndex int    `json:"stake_index" gorm:"not null"`
}
