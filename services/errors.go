// services/errors.go
package services

import "errors"

// Domain failures are distinct, named errors so callers and tests can assert
// on the specific reason. Every check runs before any state mutation for the
// call; a failed call leaves no partial effect.
var (
	// existence
	ErrProfileDoesNotExist     = errors.New("PROFILE_DOES_NOT_EXIST")
	ErrNodeInfoDoesNotExist    = errors.New("NODE_INFO_DOES_NOT_EXIST")
	ErrInvalidNodeTier         = errors.New("INVALID_NODE_TIER")
	ErrInvalidGame             = errors.New("INVALID_GAME")
	ErrCompetitionDoesNotExist = errors.New("COMPETITION_DOES_NOT_EXIST")
	ErrMatchDoesNotExist       = errors.New("MATCH_DOES_NOT_EXIST")

	// state
	ErrProfileAlreadyExists   = errors.New("PROFILE_ALREADY_EXISTS")
	ErrProfileDisabled        = errors.New("PROFILE_DISABLED")
	ErrNodeAlreadyActive      = errors.New("NODE_ALREADY_ACTIVE")
	ErrNodeNotActive          = errors.New("NODE_NOT_ACTIVE")
	ErrGameAlreadyExists      = errors.New("GAME_ALREADY_EXISTS")
	ErrGameNotActive          = errors.New("GAME_NOT_ACTIVE")
	ErrCompetitionNotActive   = errors.New("COMPETITION_NOT_ACTIVE")
	ErrPendingCompetition     = errors.New("PENDING_COMPETITION")
	ErrMatchAlreadySubmitted  = errors.New("MATCH_ALREADY_SUBMITTED")
	ErrAlreadyRegistered      = errors.New("ALREADY_REGISTERED")
	ErrCompetitionFull        = errors.New("COMPETITION_FULL")

	// authorization (identity-bound checks; role checks live in the gateway)
	ErrJudgeNotAuthorized = errors.New("JUDGE_NOT_AUTHORIZED")

	// economic
	ErrInsufficientBalance = errors.New("INSUFFICIENT_BALANCE")
	ErrInsufficientLoyalty = errors.New("INSUFFICIENT_LOYALTY")

	// validation
	ErrInvalidTicketDeposit  = errors.New("INVALID_TICKET_DEPOSIT")
	ErrNodeInvalidQuantity   = errors.New("NODE_INVALID_QUANTITY")
	ErrInvalidReward         = errors.New("INVALID_REWARD")
	ErrMatchNotEligible      = errors.New("MATCH_NOT_ELIGIBLE")
	ErrInvalidMatchIndex     = errors.New("INVALID_MATCH_INDEX")
	ErrUnsupportedPrizeType  = errors.New("UNSUPPORTED_PRIZE_TYPE")
	ErrInsufficientJudges    = errors.New("INSUFFICIENT_JUDGES")
	ErrInvalidCompetitionParams = errors.New("INVALID_COMPETITION_PARAMS")
)
