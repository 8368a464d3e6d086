// services/ledger_service.go
package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	"game-competition-system/models"
	"game-competition-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LedgerService owns PlayerProfile records and every balance mutation on
// them. The other services route all ticket/reward/loyalty/reputation
// effects through the tx-scoped primitives below, so a whole operation
// either commits every ledger effect or none of them.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// --- Domain operations ---

// CreateProfile registers a new identity. Profiles are created once and
// never deleted.
func (s *LedgerService) CreateProfile(actorID, identity string) (*models.PlayerProfile, error) {
	profile := models.PlayerProfile{
		ID:     identity,
		Status: models.ProfileCreated,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.PlayerProfile
		err := tx.First(&existing, "id = ?", identity).Error
		if err == nil {
			return ErrProfileAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, identity, models.ChangeCreated)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfile fetches a profile, including disabled ones.
func (s *LedgerService) GetProfile(identity string) (*models.PlayerProfile, error) {
	var profile models.PlayerProfile
	if err := s.DB.First(&profile, "id = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileDoesNotExist
		}
		return nil, err
	}
	return &profile, nil
}

// DepositTickets credits spendable tickets to a profile. Admin only
// (enforced upstream).
func (s *LedgerService) DepositTickets(actorID, identity string, amount int64) (*models.PlayerProfile, error) {
	if amount <= 0 {
		return nil, ErrInvalidTicketDeposit
	}

	var profile *models.PlayerProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = getProfile(tx, identity)
		if err != nil {
			return err
		}
		profile.Tickets += amount
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, identity, models.ChangeUpdated)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SetPlayerStanding sets the admin-controlled rank and Elo used by
// competition eligibility checks.
func (s *LedgerService) SetPlayerStanding(actorID, identity string, rank int16, elo int64) (*models.PlayerProfile, error) {
	var profile *models.PlayerProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = getProfile(tx, identity)
		if err != nil {
			return err
		}
		profile.Rank = rank
		profile.Elo = elo
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, identity, models.ChangeUpdated)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// DisableProfile marks a profile disabled. Disabled profiles keep their
// balances and stay readable; they can still receive settlement credits but
// can no longer spend.
func (s *LedgerService) DisableProfile(actorID, identity string) (*models.PlayerProfile, error) {
	var profile *models.PlayerProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = getProfile(tx, identity)
		if err != nil {
			return err
		}
		if profile.Status == models.ProfileDisabled {
			return ErrProfileDisabled
		}
		profile.Status = models.ProfileDisabled
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, identity, models.ChangeDisabled)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// --- Tx-scoped primitives, used only by the competition and node queue
// services. None of these emit change notifications: the enclosing
// operation logs each touched profile exactly once.

func getProfile(tx *gorm.DB, identity string) (*models.PlayerProfile, error) {
	var profile models.PlayerProfile
	if err := tx.First(&profile, "id = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileDoesNotExist
		}
		return nil, err
	}
	return &profile, nil
}

// debitTickets spends tickets. Disabled profiles cannot spend.
func debitTickets(tx *gorm.DB, identity string, amount int64) error {
	profile, err := getProfile(tx, identity)
	if err != nil {
		return err
	}
	if profile.Status == models.ProfileDisabled {
		return ErrProfileDisabled
	}
	if profile.Tickets < amount {
		return ErrInsufficientBalance
	}
	profile.Tickets -= amount
	return tx.Save(profile).Error
}

// creditRewards pays winnings. Credits are allowed on disabled profiles so
// in-flight competitions settle correctly.
func creditRewards(tx *gorm.DB, identity string, amount int64) error {
	profile, err := getProfile(tx, identity)
	if err != nil {
		return err
	}
	profile.Rewards += amount
	return tx.Save(profile).Error
}

// adjustLoyalty applies a signed loyalty delta; a debit larger than the
// current balance fails.
func adjustLoyalty(tx *gorm.DB, identity string, delta int64) error {
	profile, err := getProfile(tx, identity)
	if err != nil {
		return err
	}
	if delta < 0 && profile.Loyalty < -delta {
		return ErrInsufficientLoyalty
	}
	profile.Loyalty += delta
	return tx.Save(profile).Error
}

// adjustReputation applies a signed reputation delta. Reputation may go
// negative.
func adjustReputation(tx *gorm.DB, identity string, delta int64) error {
	profile, err := getProfile(tx, identity)
	if err != nil {
		return err
	}
	profile.Reputation += delta
	return tx.Save(profile).Error
}

func touchLastGame(tx *gorm.DB, identity string, at time.Time) error {
	profile, err := getProfile(tx, identity)
	if err != nil {
		return err
	}
	profile.LastGameTimestamp = &at
	return tx.Save(profile).Error
}

// --- HTTP handlers ---

// AdminCreateProfile creates a profile for an arbitrary identity (Admin only).
func (s *LedgerService) AdminCreateProfile(c *fiber.Ctx) error {
	var req struct {
		Identity string `json:"identity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	identity, err := utils.NormalizeIdentity(req.Identity)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	profile, err := s.CreateProfile(callerID(c), identity)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// CreateOwnProfile is the self-service registration path: the caller
// identity resolved by the Gateway becomes the profile id.
func (s *LedgerService) CreateOwnProfile(c *fiber.Ctx) error {
	identity := callerID(c)
	profile, err := s.CreateProfile(identity, identity)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// GetPlayerProfile returns a profile by identity.
func (s *LedgerService) GetPlayerProfile(c *fiber.Ctx) error {
	identity, err := utils.NormalizeIdentity(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	profile, err := s.GetProfile(identity)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(profile)
}

// DepositTicketsEndpoint credits tickets to a profile (Admin only).
func (s *LedgerService) DepositTicketsEndpoint(c *fiber.Ctx) error {
	identity, err := utils.NormalizeIdentity(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	profile, err := s.DepositTickets(callerID(c), identity, req.Amount)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(profile)
}

// SetPlayerStandingEndpoint sets rank/Elo (Admin only).
func (s *LedgerService) SetPlayerStandingEndpoint(c *fiber.Ctx) error {
	identity, err := utils.NormalizeIdentity(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	var req struct {
		Rank int16 `json:"rank"`
		Elo  int64 `json:"elo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	profile, err := s.SetPlayerStanding(callerID(c), identity, req.Rank, req.Elo)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(profile)
}

// DisableProfileEndpoint disables a profile (Admin only).
func (s *LedgerService) DisableProfileEndpoint(c *fiber.Ctx) error {
	identity, err := utils.NormalizeIdentity(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	profile, err := s.DisableProfile(callerID(c), identity)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(profile)
}

// GetChangeLogEndpoint returns recent change notifications, optionally
// filtered by entity type and key (Admin only).
func (s *LedgerService) GetChangeLogEndpoint(c *fiber.Ctx) error {
	query := s.DB.Model(&models.ChangeLog{}).Order("created_at DESC")

	if entityType := c.Query("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityKey := c.Query("entity_key"); entityKey != "" {
		query = query.Where("entity_key = ?", entityKey)
	}

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	var entries []models.ChangeLog
	if err := query.Limit(limit).Find(&entries).Error; err != nil {
		log.Printf("DB Error fetching change log: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch change log"})
	}
	return c.JSON(entries)
}
