// models/competition.go
package models

import (
	"time"
)

// Competition is a staked contest for one game. The ID packs the creator
// identity with the creator's competition nonce at creation time, so every
// competition key is unique per creator and never reused. Judges and
// EndTime are fixed at creation and immutable for the competition's life.
type Competition struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(66)"`
	CreatorID string `json:"creator_id" gorm:"type:varchar(42);not null;index"`
	GameID    string `json:"game_id" gorm:"not null;index"`

	// Eligibility predicate evaluated at registration.
	EligibleByTicket   bool  `json:"eligible_by_ticket" gorm:"not null;default:false"`
	EligibleLoyalty    int64 `json:"eligible_loyalty" gorm:"not null;default:0"`    // 8 decimal places
	EligibleReputation int64 `json:"eligible_reputation" gorm:"not null;default:0"` // 2 decimal places
	EligibleRankMin    int16 `json:"eligible_rank_min" gorm:"not null;default:0"`
	EligibleRankMax    int16 `json:"eligible_rank_max" gorm:"not null;default:0"`
	EligibleEloMin     int64 `json:"eligible_elo_min" gorm:"not null;default:0"`
	EligibleEloMax     int64 `json:"eligible_elo_max" gorm:"not null;default:0"`

	// Economic terms.
	CurrencyType   CurrencyType `json:"currency_type" gorm:"type:varchar(16);not null"`
	PrizeType      PrizeType    `json:"prize_type" gorm:"type:varchar(24);not null"`
	PrizePool      int64        `json:"prize_pool" gorm:"not null"`
	NodeReward     int64        `json:"node_reward" gorm:"not null"`
	EntryFee       int64        `json:"entry_fee" gorm:"not null"`
	MinimumPlayers int          `json:"minimum_players" gorm:"not null"`
	MaximumPlayers int          `json:"maximum_players" gorm:"not null"`
	MatchesPerRound int         `json:"matches_per_round" gorm:"not null"`
	MatchDuration  int64        `json:"match_duration" gorm:"not null"` // seconds

	DataPin string            `json:"data_pin,omitempty"`
	EndTime time.Time         `json:"end_time" gorm:"not null"`
	Status  CompetitionStatus `json:"status" gorm:"type:varchar(16);not null;default:'created'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Judges  []CompetitionJudge `json:"judges,omitempty" gorm:"foreignKey:CompetitionID"`
	Matches []Match            `json:"matches,omitempty" gorm:"foreignKey:CompetitionID"`
}

// CompetitionJudge is one node instance assigned to judge a competition,
// pulled from the rotation queue at creation time. Rank is the pull order.
type CompetitionJudge struct {
	CompetitionID string `json:"competition_id" gorm:"primaryKey;type:varchar(66)"`
	Rank          int    `json:"rank" gorm:"primaryKey;autoIncrement:false"`
	NodeKey       string `json:"node_key" gorm:"type:varchar(66);not null"` // packed (owner, instance)
	OwnerID       string `json:"owner_id" gorm:"type:varchar(42);not null;index"`
	Instance      uint64 `json:"instance" gorm:"not null"`
}

// Match is one registered player's entry in a competition. It is appended
// at registration in Created status and moves to Pending when the player
// submits a score.
type Match struct {
	CompetitionID string      `json:"competition_id" gorm:"primaryKey;type:varchar(66)"`
	Index         int         `json:"index" gorm:"primaryKey;autoIncrement:false;column:match_index"`
	PlayerID      string      `json:"player_id" gorm:"type:varchar(42);not null;index"`
	DataPin       string      `json:"data_pin,omitempty"`
	Round         int         `json:"round" gorm:"not null;default:1"`
	Score         int64       `json:"score" gorm:"not null;default:0"`
	Status        MatchStatus `json:"status" gorm:"type:varchar(16);not null;default:'created'"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       *time.Time  `json:"end_time,omitempty"`
}

// LoyaltyLookupEntry is one row of the admin-set loyalty award table,
// indexed by outcome rank (winner first).
type LoyaltyLookupEntry struct {
	Index int   `json:"index" gorm:"primaryKey;autoIncrement:false;column:rank_index"`
	Value int64 `json:"value" gorm:"not null"` // 8 decimal places
}
