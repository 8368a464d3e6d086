package models

// ChangeType labels entries in the change log.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeRemoved  ChangeType = "removed"
	ChangeDisabled ChangeType = "disabled"
	ChangeEnabled  ChangeType = "enabled"
)

// CurrencyType is the funding currency of a competition.
type CurrencyType string

const (
	CurrencyTicket CurrencyType = "ticket"
	CurrencyHonor  CurrencyType = "honor"
	CurrencyReward CurrencyType = "reward"
)

func (t CurrencyType) Valid() bool {
	switch t {
	case CurrencyTicket, CurrencyHonor, CurrencyReward:
		return true
	}
	return false
}

// PrizeType selects the settlement curve. Only WinnerTakeAll is settled
// today; the remaining types are accepted at creation and rejected at
// scoring time.
type PrizeType string

const (
	PrizeWinnerTakeAll     PrizeType = "winner_take_all"
	PrizeTop3              PrizeType = "top3"
	PrizeRankCurve         PrizeType = "rank_curve"
	PrizeScoreProportional PrizeType = "score_proportional"
	PrizeFixed             PrizeType = "fixed"
)

func (t PrizeType) Valid() bool {
	switch t {
	case PrizeWinnerTakeAll, PrizeTop3, PrizeRankCurve, PrizeScoreProportional, PrizeFixed:
		return true
	}
	return false
}

// Per-object status enums. These are deliberately separate types so a
// competition status never gets compared against a node status.

type ProfileStatus string

const (
	ProfileCreated  ProfileStatus = "created"
	ProfileDisabled ProfileStatus = "disabled"
)

type NodeStatus string

const (
	NodeInactive NodeStatus = "inactive"
	NodeActive   NodeStatus = "active"
)

type GameStatus string

const (
	GameCreated  GameStatus = "created"
	GameDisabled GameStatus = "disabled"
)

type CompetitionStatus string

const (
	CompetitionCreated  CompetitionStatus = "created"
	CompetitionAccepted CompetitionStatus = "accepted"
	CompetitionDisabled CompetitionStatus = "disabled"
)

type MatchStatus string

const (
	MatchCreated  MatchStatus = "created"
	MatchPending  MatchStatus = "pending" // score submitted, awaiting settlement
	MatchDisabled MatchStatus = "disabled"
)

// MatchDisputeStatus is reserved for the dispute subsystem. Disputes are
// tracked on profiles (GuiltyCount et al.) but no voting or resolution
// behavior exists yet.
type MatchDisputeStatus string

const (
	DisputeCreated      MatchDisputeStatus = "created"
	DisputePending      MatchDisputeStatus = "pending"
	DisputeEarlyResolve MatchDisputeStatus = "early_resolve"
	DisputeVotingClosed MatchDisputeStatus = "voting_closed"
	DisputeExpired      MatchDisputeStatus = "expired"
	DisputeInnocent     MatchDisputeStatus = "innocent"
	DisputeGuilty       MatchDisputeStatus = "guilty"
)
