// services/competition_service.go
package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"game-competition-system/models"
	"game-competition-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// DefaultJudgeCount is how many queue turns are consumed per competition
// when no override is configured.
const DefaultJudgeCount = 3

// Reputation granted to the winner of a settled competition, 2-decimal
// fixed point (1.00).
const winnerReputationAward = 1 * models.ReputationScale

// JudgeRewardFunc computes a judge's payout from the competition's node
// reward and the judge owner's reputation.
type JudgeRewardFunc func(nodeReward, reputation int64) int64

// DefaultJudgeReward scales the node reward linearly by reputation, capped
// at 200.00: a judge at 100.00 earns half the node reward, 200.00 or more
// earns it in full.
func DefaultJudgeReward(nodeReward, reputation int64) int64 {
	ceiling := 200 * models.ReputationScale
	if reputation <= 0 {
		return 0
	}
	if reputation > ceiling {
		reputation = ceiling
	}
	return nodeReward * reputation / ceiling
}

// CompetitionService runs the game catalog and the competition/match
// lifecycle, pulling judges from the node queue and settling prizes
// through the ledger primitives.
type CompetitionService struct {
	DB          *gorm.DB
	JudgeCount  int
	JudgeReward JudgeRewardFunc
	Now         func() time.Time

	// Rotation cursor for judge draws. Restart resets it to the queue
	// head, which only affects fairness, never correctness.
	cursorMu    sync.Mutex
	queueCursor int
}

func NewCompetitionService(db *gorm.DB, judgeCount int) *CompetitionService {
	if judgeCount <= 0 {
		judgeCount = DefaultJudgeCount
	}
	return &CompetitionService{
		DB:          db,
		JudgeCount:  judgeCount,
		JudgeReward: DefaultJudgeReward,
		Now:         time.Now,
	}
}

func (s *CompetitionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// --- Game catalog ---

// CreateGameDefinition registers a game. The id is derived from the name
// unless an explicit id is given.
func (s *CompetitionService) CreateGameDefinition(actorID, id, name string, adminExempt bool) (*models.GameDefinition, error) {
	if name == "" {
		return nil, ErrInvalidGame
	}
	if id == "" {
		id = slug.Make(name)
	}

	game := models.GameDefinition{
		ID:          id,
		Name:        name,
		AdminExempt: adminExempt,
		Status:      models.GameCreated,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.GameDefinition
		err := tx.First(&existing, "id = ?", id).Error
		if err == nil {
			return ErrGameAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityGame, id, models.ChangeCreated)
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// DisableGameDefinition retires a game. Existing competitions keep running;
// new ones can no longer reference it.
func (s *CompetitionService) DisableGameDefinition(actorID, id string) (*models.GameDefinition, error) {
	var game models.GameDefinition
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&game, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidGame
			}
			return err
		}
		if game.Status != models.GameCreated {
			return ErrGameNotActive
		}
		game.Status = models.GameDisabled
		if err := tx.Save(&game).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityGame, id, models.ChangeDisabled)
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetGame fetches one game definition.
func (s *CompetitionService) GetGame(id string) (*models.GameDefinition, error) {
	var game models.GameDefinition
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidGame
		}
		return nil, err
	}
	return &game, nil
}

// ListGames returns the catalog, newest first.
func (s *CompetitionService) ListGames() ([]models.GameDefinition, error) {
	var games []models.GameDefinition
	if err := s.DB.Order("created_at DESC").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// --- Loyalty lookup table ---

// SetLoyaltyLookup replaces the rank-indexed loyalty award table.
func (s *CompetitionService) SetLoyaltyLookup(actorID string, values []int64) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.LoyaltyLookupEntry{}).Error; err != nil {
			return err
		}
		for i, v := range values {
			entry := models.LoyaltyLookupEntry{Index: i, Value: v}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return logChange(tx, actorID, models.EntityCompetition, "loyalty_lookup", models.ChangeUpdated)
	})
}

// GetLoyaltyLookup returns the award table in rank order.
func (s *CompetitionService) GetLoyaltyLookup() ([]models.LoyaltyLookupEntry, error) {
	var entries []models.LoyaltyLookupEntry
	if err := s.DB.Order("rank_index ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// loyaltyAwardAt reads the award for an outcome rank; missing rows award
// nothing.
func loyaltyAwardAt(tx *gorm.DB, rank int) (int64, error) {
	var entry models.LoyaltyLookupEntry
	err := tx.First(&entry, "rank_index = ?", rank).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return entry.Value, nil
}

// --- Competition lifecycle ---

// CompetitionParams carries everything fixed at competition creation.
type CompetitionParams struct {
	GameID string

	EligibleByTicket   bool
	EligibleLoyalty    int64
	EligibleReputation int64
	EligibleRankMin    int16
	EligibleRankMax    int16
	EligibleEloMin     int64
	EligibleEloMax     int64

	CurrencyType    models.CurrencyType
	PrizeType       models.PrizeType
	PrizePool       int64
	NodeReward      int64
	EntryFee        int64
	MinimumPlayers  int
	MaximumPlayers  int
	MatchesPerRound int
	MatchDuration   int64 // seconds

	DataPin string
	EndTime int64 // unix seconds; 0 means now + MatchDuration
}

// CreateCompetition opens a new competition. Non-admin creators may only
// fund ticket-denominated prize pools, and the pool is escrowed from their
// balance up front. Judges are drained from the rotation queue and fixed
// for the competition's life.
func (s *CompetitionService) CreateCompetition(actorID, creatorID string, isAdmin bool, p CompetitionParams) (*models.Competition, error) {
	if !p.CurrencyType.Valid() || !p.PrizeType.Valid() {
		return nil, ErrInvalidReward
	}
	if p.PrizePool < 0 || p.NodeReward < 0 || p.EntryFee < 0 ||
		p.MinimumPlayers < 1 || (p.MaximumPlayers != 0 && p.MaximumPlayers < p.MinimumPlayers) ||
		p.MatchesPerRound < 1 || p.MatchDuration < 1 {
		return nil, ErrInvalidCompetitionParams
	}
	if !isAdmin && p.CurrencyType != models.CurrencyTicket {
		return nil, ErrInvalidReward
	}

	now := s.now()
	endTime := now.Add(time.Duration(p.MatchDuration) * time.Second)
	if p.EndTime != 0 {
		endTime = time.Unix(p.EndTime, 0)
		if !endTime.After(now) {
			return nil, ErrInvalidCompetitionParams
		}
	}

	var comp models.Competition
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var game models.GameDefinition
		if err := tx.First(&game, "id = ?", p.GameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidGame
			}
			return err
		}
		if game.Status != models.GameCreated {
			return ErrGameNotActive
		}

		creator, err := getProfile(tx, creatorID)
		if err != nil {
			return err
		}

		// Escrow the pool from the creator unless an admin is funding an
		// exempt game out of band.
		if p.CurrencyType == models.CurrencyTicket && !(isAdmin && game.AdminExempt) {
			if err := debitTickets(tx, creatorID, p.PrizePool); err != nil {
				return err
			}
			creator, err = getProfile(tx, creatorID)
			if err != nil {
				return err
			}
		}

		id, err := utils.PackKey(creatorID, creator.CompetitionNonce)
		if err != nil {
			return err
		}
		creator.CompetitionNonce++
		if err := tx.Save(creator).Error; err != nil {
			return err
		}

		s.cursorMu.Lock()
		cursor := s.queueCursor
		s.cursorMu.Unlock()

		judges, nextIndex, err := drainEntriesTx(tx, cursor, s.JudgeCount, 1)
		if err != nil {
			return err
		}
		if len(judges) == 0 {
			return ErrInsufficientJudges
		}

		s.cursorMu.Lock()
		s.queueCursor = nextIndex
		s.cursorMu.Unlock()

		comp = models.Competition{
			ID:        id,
			CreatorID: creatorID,
			GameID:    p.GameID,

			EligibleByTicket:   p.EligibleByTicket,
			EligibleLoyalty:    p.EligibleLoyalty,
			EligibleReputation: p.EligibleReputation,
			EligibleRankMin:    p.EligibleRankMin,
			EligibleRankMax:    p.EligibleRankMax,
			EligibleEloMin:     p.EligibleEloMin,
			EligibleEloMax:     p.EligibleEloMax,

			CurrencyType:    p.CurrencyType,
			PrizeType:       p.PrizeType,
			PrizePool:       p.PrizePool,
			NodeReward:      p.NodeReward,
			EntryFee:        p.EntryFee,
			MinimumPlayers:  p.MinimumPlayers,
			MaximumPlayers:  p.MaximumPlayers,
			MatchesPerRound: p.MatchesPerRound,
			MatchDuration:   p.MatchDuration,

			DataPin: p.DataPin,
			EndTime: endTime,
			Status:  models.CompetitionCreated,
		}
		if err := tx.Create(&comp).Error; err != nil {
			return err
		}

		for i, j := range judges {
			row := models.CompetitionJudge{
				CompetitionID: id,
				Rank:          i,
				NodeKey:       j.NodeKey,
				OwnerID:       j.OwnerID,
				Instance:      j.Instance,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		comp.Judges = nil

		if err := logChange(tx, actorID, models.EntityCompetition, id, models.ChangeCreated); err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, creatorID, models.ChangeUpdated)
	})
	if err != nil {
		return nil, err
	}
	return &comp, nil
}

// GetCompetition fetches a competition with its judges and matches.
func (s *CompetitionService) GetCompetition(id string) (*models.Competition, error) {
	var comp models.Competition
	err := s.DB.Preload("Judges").Preload("Matches").First(&comp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompetitionDoesNotExist
		}
		return nil, err
	}
	return &comp, nil
}

// ListCompetitions returns competitions, optionally filtered by game and
// status, newest first.
func (s *CompetitionService) ListCompetitions(gameID string, status models.CompetitionStatus) ([]models.Competition, error) {
	query := s.DB.Order("created_at DESC")
	if gameID != "" {
		query = query.Where("game_id = ?", gameID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var comps []models.Competition
	if err := query.Find(&comps).Error; err != nil {
		return nil, err
	}
	return comps, nil
}

// DisableCompetition withdraws a competition (Admin only). Escrowed funds
// are returned to the creator when the pool was ticket-funded.
func (s *CompetitionService) DisableCompetition(actorID, id string) (*models.Competition, error) {
	var comp models.Competition
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comp, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompetitionDoesNotExist
			}
			return err
		}
		if comp.Status != models.CompetitionCreated {
			return ErrCompetitionNotActive
		}
		comp.Status = models.CompetitionDisabled
		if err := tx.Save(&comp).Error; err != nil {
			return err
		}

		if comp.CurrencyType == models.CurrencyTicket && comp.PrizePool > 0 {
			creator, err := getProfile(tx, comp.CreatorID)
			if err != nil {
				return err
			}
			creator.Tickets += comp.PrizePool
			if err := tx.Save(creator).Error; err != nil {
				return err
			}
			if err := logChange(tx, actorID, models.EntityPlayerProfile, comp.CreatorID, models.ChangeUpdated); err != nil {
				return err
			}
		}
		return logChange(tx, actorID, models.EntityCompetition, id, models.ChangeDisabled)
	})
	if err != nil {
		return nil, err
	}
	return &comp, nil
}

// --- Match lifecycle ---

// eligibleFor evaluates the competition's eligibility predicate against a
// profile. The entry fee is part of eligibility even when it is not
// collected: a player who cannot cover it may not register.
func eligibleFor(comp *models.Competition, profile *models.PlayerProfile) bool {
	if profile.Tickets < comp.EntryFee {
		return false
	}
	if profile.Loyalty < comp.EligibleLoyalty {
		return false
	}
	if profile.Reputation < comp.EligibleReputation {
		return false
	}
	if comp.EligibleRankMax > 0 &&
		(profile.Rank < comp.EligibleRankMin || profile.Rank > comp.EligibleRankMax) {
		return false
	}
	if comp.EligibleEloMax > 0 &&
		(profile.Elo < comp.EligibleEloMin || profile.Elo > comp.EligibleEloMax) {
		return false
	}
	return true
}

// RegisterForMatch enters the caller into a competition, collecting the
// entry fee when the competition is ticket-denominated. A player may hold
// at most one match per competition.
func (s *CompetitionService) RegisterForMatch(playerID, competitionID string) (*models.Match, error) {
	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var comp models.Competition
		if err := tx.First(&comp, "id = ?", competitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompetitionDoesNotExist
			}
			return err
		}
		if comp.Status != models.CompetitionCreated || !s.now().Before(comp.EndTime) {
			return ErrCompetitionNotActive
		}

		profile, err := getProfile(tx, playerID)
		if err != nil {
			return err
		}
		if profile.Status == models.ProfileDisabled {
			return ErrProfileDisabled
		}
		if !eligibleFor(&comp, profile) {
			return ErrMatchNotEligible
		}

		var existing int64
		if err := tx.Model(&models.Match{}).
			Where("competition_id = ? AND player_id = ?", competitionID, playerID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		var registered int64
		if err := tx.Model(&models.Match{}).
			Where("competition_id = ?", competitionID).
			Count(&registered).Error; err != nil {
			return err
		}
		if comp.MaximumPlayers > 0 && registered >= int64(comp.MaximumPlayers) {
			return ErrCompetitionFull
		}

		if comp.CurrencyType == models.CurrencyTicket && comp.EntryFee > 0 {
			if err := debitTickets(tx, playerID, comp.EntryFee); err != nil {
				return err
			}
		}

		match = models.Match{
			CompetitionID: competitionID,
			Index:         int(registered),
			PlayerID:      playerID,
			Round:         1,
			Status:        models.MatchCreated,
			StartTime:     s.now(),
		}
		if err := tx.Create(&match).Error; err != nil {
			return err
		}

		if err := logChange(tx, playerID, models.EntityCompetition, competitionID, models.ChangeUpdated); err != nil {
			return err
		}
		return logChange(tx, playerID, models.EntityPlayerProfile, playerID, models.ChangeUpdated)
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// SubmitMatch records the caller's final score and data pin for their
// match. A match is submitted once; re-submission fails.
func (s *CompetitionService) SubmitMatch(playerID, competitionID string, matchIndex int, score int64, dataPin string) (*models.Match, error) {
	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var comp models.Competition
		if err := tx.First(&comp, "id = ?", competitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompetitionDoesNotExist
			}
			return err
		}
		if comp.Status != models.CompetitionCreated {
			return ErrCompetitionNotActive
		}

		if err := tx.First(&match, "competition_id = ? AND match_index = ?", competitionID, matchIndex).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidMatchIndex
			}
			return err
		}
		if match.PlayerID != playerID {
			return ErrMatchNotEligible
		}
		if match.Status != models.MatchCreated {
			return ErrMatchAlreadySubmitted
		}

		now := s.now()
		match.Score = score
		match.DataPin = dataPin
		match.Status = models.MatchPending
		match.EndTime = &now
		if err := tx.Save(&match).Error; err != nil {
			return err
		}

		if err := touchLastGame(tx, playerID, now); err != nil {
			return err
		}

		if err := logChange(tx, playerID, models.EntityCompetition, competitionID, models.ChangeUpdated); err != nil {
			return err
		}
		return logChange(tx, playerID, models.EntityPlayerProfile, playerID, models.ChangeUpdated)
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetMatch fetches one match by competition and index.
func (s *CompetitionService) GetMatch(competitionID string, matchIndex int) (*models.Match, error) {
	var match models.Match
	err := s.DB.First(&match, "competition_id = ? AND match_index = ?", competitionID, matchIndex).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchDoesNotExist
		}
		return nil, err
	}
	return &match, nil
}

// SettlementResult reports what a settlement paid out.
type SettlementResult struct {
	CompetitionID string `json:"competition_id"`
	WinnerID      string `json:"winner_id"`
	WinnerMatch   int    `json:"winner_match"`
	PrizePaid     int64  `json:"prize_paid"`
	LoyaltyAward  int64  `json:"loyalty_award"`
	JudgeID       string `json:"judge_id"`
	JudgeReward   int64  `json:"judge_reward"`
}

// ScoreCompetition settles a competition. Only an owner of one of the
// competition's judge nodes may settle, and only after the end time has
// passed. The winner is the submitted match with the highest score (lowest
// index wins ties); they receive the prize pool, the rank-0 loyalty award,
// and a reputation bump. The settling judge earns the reputation-scaled
// node reward.
func (s *CompetitionService) ScoreCompetition(judgeID, competitionID string, winnerIndex int) (*SettlementResult, error) {
	var result SettlementResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var comp models.Competition
		if err := tx.First(&comp, "id = ?", competitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompetitionDoesNotExist
			}
			return err
		}
		if comp.Status != models.CompetitionCreated {
			return ErrCompetitionNotActive
		}

		var judgeRows int64
		if err := tx.Model(&models.CompetitionJudge{}).
			Where("competition_id = ? AND owner_id = ?", competitionID, judgeID).
			Count(&judgeRows).Error; err != nil {
			return err
		}
		if judgeRows == 0 {
			return ErrJudgeNotAuthorized
		}

		if s.now().Before(comp.EndTime) {
			return ErrPendingCompetition
		}

		if comp.PrizeType != models.PrizeWinnerTakeAll {
			return ErrUnsupportedPrizeType
		}

		var matches []models.Match
		if err := tx.Where("competition_id = ?", competitionID).
			Order("match_index ASC").Find(&matches).Error; err != nil {
			return err
		}
		if winnerIndex < 0 || winnerIndex >= len(matches) {
			return ErrInvalidMatchIndex
		}

		// The winner is recomputed from submitted scores rather than
		// trusted from the judge's claim.
		winner := -1
		for i, m := range matches {
			if m.Status != models.MatchPending {
				continue
			}
			if winner == -1 || m.Score > matches[winner].Score {
				winner = i
			}
		}
		if winner == -1 {
			return ErrInvalidMatchIndex
		}
		winnerID := matches[winner].PlayerID

		if err := creditRewards(tx, winnerID, comp.PrizePool); err != nil {
			return err
		}
		loyaltyAward, err := loyaltyAwardAt(tx, 0)
		if err != nil {
			return err
		}
		if loyaltyAward > 0 {
			if err := adjustLoyalty(tx, winnerID, loyaltyAward); err != nil {
				return err
			}
		}
		if err := adjustReputation(tx, winnerID, winnerReputationAward); err != nil {
			return err
		}

		judgeProfile, err := getProfile(tx, judgeID)
		if err != nil {
			return err
		}
		judgeReward := s.JudgeReward(comp.NodeReward, judgeProfile.Reputation)
		if judgeReward > 0 {
			if err := creditRewards(tx, judgeID, judgeReward); err != nil {
				return err
			}
		}

		comp.Status = models.CompetitionAccepted
		if err := tx.Save(&comp).Error; err != nil {
			return err
		}

		result = SettlementResult{
			CompetitionID: competitionID,
			WinnerID:      winnerID,
			WinnerMatch:   winner,
			PrizePaid:     comp.PrizePool,
			LoyaltyAward:  loyaltyAward,
			JudgeID:       judgeID,
			JudgeReward:   judgeReward,
		}

		if err := logChange(tx, judgeID, models.EntityCompetition, competitionID, models.ChangeUpdated); err != nil {
			return err
		}
		if err := logChange(tx, judgeID, models.EntityPlayerProfile, winnerID, models.ChangeUpdated); err != nil {
			return err
		}
		if winnerID != judgeID {
			if err := logChange(tx, judgeID, models.EntityPlayerProfile, judgeID, models.ChangeUpdated); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// --- HTTP handlers ---

// CreateGameEndpoint registers a game (Admin only).
func (s *CompetitionService) CreateGameEndpoint(c *fiber.Ctx) error {
	var req struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AdminExempt bool   `json:"admin_exempt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	game, err := s.CreateGameDefinition(callerID(c), req.ID, req.Name, req.AdminExempt)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

// DisableGameEndpoint retires a game (Admin only).
func (s *CompetitionService) DisableGameEndpoint(c *fiber.Ctx) error {
	game, err := s.DisableGameDefinition(callerID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(game)
}

// GetGameEndpoint fetches one game.
func (s *CompetitionService) GetGameEndpoint(c *fiber.Ctx) error {
	game, err := s.GetGame(c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(game)
}

// ListGamesEndpoint lists the game catalog.
func (s *CompetitionService) ListGamesEndpoint(c *fiber.Ctx) error {
	games, err := s.ListGames()
	if err != nil {
		log.Printf("DB Error listing games: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch games"})
	}
	return c.JSON(games)
}

// SetLoyaltyLookupEndpoint replaces the loyalty award table (Admin only).
func (s *CompetitionService) SetLoyaltyLookupEndpoint(c *fiber.Ctx) error {
	var req struct {
		Values []int64 `json:"values"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.SetLoyaltyLookup(callerID(c), req.Values); err != nil {
		log.Printf("DB Error setting loyalty lookup: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to set loyalty lookup"})
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// GetLoyaltyLookupEndpoint returns the loyalty award table.
func (s *CompetitionService) GetLoyaltyLookupEndpoint(c *fiber.Ctx) error {
	entries, err := s.GetLoyaltyLookup()
	if err != nil {
		log.Printf("DB Error fetching loyalty lookup: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch loyalty lookup"})
	}
	return c.JSON(entries)
}

// CreateCompetitionEndpoint opens a competition for the caller.
func (s *CompetitionService) CreateCompetitionEndpoint(c *fiber.Ctx) error {
	var req struct {
		GameID             string `json:"game_id"`
		EligibleByTicket   bool   `json:"eligible_by_ticket"`
		EligibleLoyalty    int64  `json:"eligible_loyalty"`
		EligibleReputation int64  `json:"eligible_reputation"`
		EligibleRankMin    int16  `json:"eligible_rank_min"`
		EligibleRankMax    int16  `json:"eligible_rank_max"`
		EligibleEloMin     int64  `json:"eligible_elo_min"`
		EligibleEloMax     int64  `json:"eligible_elo_max"`
		CurrencyType       string `json:"currency_type"`
		PrizeType          string `json:"prize_type"`
		PrizePool          int64  `json:"prize_pool"`
		NodeReward         int64  `json:"node_reward"`
		EntryFee           int64  `json:"entry_fee"`
		MinimumPlayers     int    `json:"minimum_players"`
		MaximumPlayers     int    `json:"maximum_players"`
		MatchesPerRound    int    `json:"matches_per_round"`
		MatchDuration      int64  `json:"match_duration"`
		DataPin            string `json:"data_pin"`
		EndTime            int64  `json:"end_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	params := CompetitionParams{
		GameID:             req.GameID,
		EligibleByTicket:   req.EligibleByTicket,
		EligibleLoyalty:    req.EligibleLoyalty,
		EligibleReputation: req.EligibleReputation,
		EligibleRankMin:    req.EligibleRankMin,
		EligibleRankMax:    req.EligibleRankMax,
		EligibleEloMin:     req.EligibleEloMin,
		EligibleEloMax:     req.EligibleEloMax,
		CurrencyType:       models.CurrencyType(req.CurrencyType),
		PrizeType:          models.PrizeType(req.PrizeType),
		PrizePool:          req.PrizePool,
		NodeReward:         req.NodeReward,
		EntryFee:           req.EntryFee,
		MinimumPlayers:     req.MinimumPlayers,
		MaximumPlayers:     req.MaximumPlayers,
		MatchesPerRound:    req.MatchesPerRound,
		MatchDuration:      req.MatchDuration,
		DataPin:            req.DataPin,
		EndTime:            req.EndTime,
	}

	caller := callerID(c)
	comp, err := s.CreateCompetition(caller, caller, isAdminCaller(c), params)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comp)
}

// GetCompetitionEndpoint fetches a competition with judges and matches.
func (s *CompetitionService) GetCompetitionEndpoint(c *fiber.Ctx) error {
	comp, err := s.GetCompetition(c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(comp)
}

// ListCompetitionsEndpoint lists competitions with optional filters.
func (s *CompetitionService) ListCompetitionsEndpoint(c *fiber.Ctx) error {
	comps, err := s.ListCompetitions(c.Query("game_id"), models.CompetitionStatus(c.Query("status")))
	if err != nil {
		log.Printf("DB Error listing competitions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch competitions"})
	}
	return c.JSON(comps)
}

// DisableCompetitionEndpoint withdraws a competition (Admin only).
func (s *CompetitionService) DisableCompetitionEndpoint(c *fiber.Ctx) error {
	comp, err := s.DisableCompetition(callerID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(comp)
}

// RegisterEndpoint enters the caller into a competition.
func (s *CompetitionService) RegisterEndpoint(c *fiber.Ctx) error {
	match, err := s.RegisterForMatch(callerID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

// SubmitMatchEndpoint records the caller's score for their match.
func (s *CompetitionService) SubmitMatchEndpoint(c *fiber.Ctx) error {
	matchIndex, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid match index"})
	}

	var req struct {
		Score   int64  `json:"score"`
		DataPin string `json:"data_pin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	match, err := s.SubmitMatch(callerID(c), c.Params("id"), matchIndex, req.Score, req.DataPin)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(match)
}

// GetMatchEndpoint fetches one match.
func (s *CompetitionService) GetMatchEndpoint(c *fiber.Ctx) error {
	matchIndex, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid match index"})
	}

	match, err := s.GetMatch(c.Params("id"), matchIndex)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(match)
}

// ScoreCompetitionEndpoint settles a competition (judge owners only).
func (s *CompetitionService) ScoreCompetitionEndpoint(c *fiber.Ctx) error {
	var req struct {
		WinnerIndex int `json:"winner_index"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := s.ScoreCompetition(callerID(c), c.Params("id"), req.WinnerIndex)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(result)
}

// UploadMatchDataEndpoint uploads a replay/evidence blob to R2 and returns
// its pin URL. The caller attaches the pin when submitting their match.
func (s *CompetitionService) UploadMatchDataEndpoint(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not open uploaded file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not read uploaded file"})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("match-data/%s/%s", callerID(c), uuid.NewString())
	pin, err := utils.UploadMatchData(data, key, contentType)
	if err != nil {
		log.Printf("R2 upload failed for %s: %v", callerID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed"})
	}
	return c.JSON(fiber.Map{"data_pin": pin})
}
