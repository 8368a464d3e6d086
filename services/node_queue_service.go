// services/node_queue_service.go
package services

import (
	"errors"
	"log"
	"strconv"

	"game-competition-system/models"
	"game-competition-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// NodeQueueService manages operator node instances, tier staking, and the
// circular judging rotation queue. Queue slots are stored with dense
// positions; stale slots are purged lazily during traversal and by the
// periodic compaction job.
type NodeQueueService struct {
	DB *gorm.DB
}

func NewNodeQueueService(db *gorm.DB) *NodeQueueService {
	return &NodeQueueService{DB: db}
}

// QueueEntry is one judging turn handed out by a queue read.
type QueueEntry struct {
	NodeKey    string `json:"node_key"`
	OwnerID    string `json:"owner_id"`
	Instance   uint64 `json:"instance"`
	StakeIndex int    `json:"stake_index"`
}

// QueueRead is the result of a peek or drain: the entries served, the
// position a follow-up read should start from, and how many requested
// entries could not be served because the live queue is shorter than the
// request.
type QueueRead struct {
	Entries   []QueueEntry `json:"entries"`
	NextIndex int          `json:"next_index"`
	Remaining int          `json:"remaining"`
}

// Reputation granted to an operator the first time nodes are assigned to
// them, in 2-decimal fixed point (100.00).
const operatorBaselineReputation = 100 * models.ReputationScale

// --- Tier configuration ---

// SetTier creates or updates a staking tier. Tiers are append-only and
// sequential: a new tier may only be added at index == current tier count.
func (s *NodeQueueService) SetTier(actorID string, index int, requiredLoyalty int64, turnsPerStake int) (*models.NodeQueueTier, error) {
	if index < 0 || requiredLoyalty < 0 || turnsPerStake < 1 {
		return nil, ErrInvalidNodeTier
	}

	var tier models.NodeQueueTier
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.NodeQueueTier{}).Count(&count).Error; err != nil {
			return err
		}
		if int64(index) > count {
			return ErrInvalidNodeTier
		}

		change := models.ChangeCreated
		if int64(index) < count {
			change = models.ChangeUpdated
			if err := tx.First(&tier, "tier_index = ?", index).Error; err != nil {
				return err
			}
			tier.RequiredLoyalty = requiredLoyalty
			tier.TurnsPerStake = turnsPerStake
			if err := tx.Save(&tier).Error; err != nil {
				return err
			}
		} else {
			tier = models.NodeQueueTier{
				Index:           index,
				RequiredLoyalty: requiredLoyalty,
				TurnsPerStake:   turnsPerStake,
			}
			if err := tx.Create(&tier).Error; err != nil {
				return err
			}
		}
		return logChange(tx, actorID, models.EntityNodeQueueTier, strconv.Itoa(index), change)
	})
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// GetTier fetches one tier by index.
func (s *NodeQueueService) GetTier(index int) (*models.NodeQueueTier, error) {
	var tier models.NodeQueueTier
	if err := s.DB.First(&tier, "tier_index = ?", index).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidNodeTier
		}
		return nil, err
	}
	return &tier, nil
}

// GetTiers lists all configured tiers in index order.
func (s *NodeQueueService) GetTiers() ([]models.NodeQueueTier, error) {
	var tiers []models.NodeQueueTier
	if err := s.DB.Order("tier_index ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// --- Node assignment ---

// AssignNodes grants quantity new node instances to an operator, numbered
// contiguously after the operator's current highest instance. The first
// assignment an operator ever receives also seeds their baseline
// reputation.
func (s *NodeQueueService) AssignNodes(actorID, ownerID string, quantity int64) ([]models.NodeInfo, error) {
	if quantity <= 0 {
		return nil, ErrNodeInvalidQuantity
	}

	var created []models.NodeInfo
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		profile, err := getProfile(tx, ownerID)
		if err != nil {
			return err
		}

		seedReputation := profile.NodeCount == 0

		for i := int64(1); i <= quantity; i++ {
			node := models.NodeInfo{
				OwnerID:  ownerID,
				Instance: uint64(profile.NodeCount + i),
				Status:   models.NodeInactive,
			}
			if err := tx.Create(&node).Error; err != nil {
				return err
			}
			key, err := utils.PackKey(ownerID, node.Instance)
			if err != nil {
				return err
			}
			if err := logChange(tx, actorID, models.EntityNodeInfo, key, models.ChangeCreated); err != nil {
				return err
			}
			created = append(created, node)
		}

		profile.NodeCount += quantity
		if seedReputation {
			profile.Reputation += operatorBaselineReputation
		}
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, ownerID, models.ChangeUpdated)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RemoveNodes takes back quantity instances from an operator, highest
// instance numbers first, refunding any loyalty still locked in their
// stakes. Queue slots pointing at removed instances go stale and are
// cleaned up lazily.
func (s *NodeQueueService) RemoveNodes(actorID, ownerID string, quantity int64) error {
	if quantity <= 0 {
		return ErrNodeInvalidQuantity
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		profile, err := getProfile(tx, ownerID)
		if err != nil {
			return err
		}
		if quantity > profile.NodeCount {
			return ErrNodeInvalidQuantity
		}

		var refund int64
		for i := int64(0); i < quantity; i++ {
			instance := uint64(profile.NodeCount - i)

			var stakes []models.NodeStake
			if err := tx.Where("owner_id = ? AND instance = ?", ownerID, instance).Find(&stakes).Error; err != nil {
				return err
			}
			for _, st := range stakes {
				refund += st.LoyaltyLocked
			}
			if err := tx.Where("owner_id = ? AND instance = ?", ownerID, instance).Delete(&models.NodeStake{}).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id = ? AND instance = ?", ownerID, instance).Delete(&models.NodeInfo{}).Error; err != nil {
				return err
			}

			key, err := utils.PackKey(ownerID, instance)
			if err != nil {
				return err
			}
			if err := logChange(tx, actorID, models.EntityNodeInfo, key, models.ChangeRemoved); err != nil {
				return err
			}
		}

		profile.NodeCount -= quantity
		profile.Loyalty += refund
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, ownerID, models.ChangeUpdated)
	})
}

// GetNodeInfo fetches one node instance with its stakes.
func (s *NodeQueueService) GetNodeInfo(ownerID string, instance uint64) (*models.NodeInfo, error) {
	var node models.NodeInfo
	err := s.DB.Preload("Stakes").
		First(&node, "owner_id = ? AND instance = ?", ownerID, instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNodeInfoDoesNotExist
		}
		return nil, err
	}
	return &node, nil
}

// ListNodes returns all node instances for one operator.
func (s *NodeQueueService) ListNodes(ownerID string) ([]models.NodeInfo, error) {
	var nodes []models.NodeInfo
	err := s.DB.Preload("Stakes").
		Where("owner_id = ?", ownerID).
		Order("instance ASC").
		Find(&nodes).Error
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// NodeKeyAt returns the packed key of an operator's idx-th node
// (0-based). Instances are contiguous, so this is a pure lookup against
// the profile's node count.
func (s *NodeQueueService) NodeKeyAt(ownerID string, idx int64) (string, error) {
	profile, err := s.profileByID(ownerID)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= profile.NodeCount {
		return "", ErrNodeInfoDoesNotExist
	}
	return utils.PackKey(ownerID, uint64(idx+1))
}

func (s *NodeQueueService) profileByID(identity string) (*models.PlayerProfile, error) {
	return getProfile(s.DB, identity)
}

// --- Staking ---

// StakeQueueTier stakes the node's next sequential tier: a node holding n
// stakes is staking tier n. The tier's loyalty requirement is locked from
// the owner's balance and the node earns turnsPerStake slots at the tail
// of the queue immediately, regardless of online status.
func (s *NodeQueueService) StakeQueueTier(actorID, ownerID string, instance uint64) (*models.NodeStake, error) {
	var stake models.NodeStake

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var node models.NodeInfo
		if err := tx.First(&node, "owner_id = ? AND instance = ?", ownerID, instance).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNodeInfoDoesNotExist
			}
			return err
		}

		var stakeCount int64
		if err := tx.Model(&models.NodeStake{}).
			Where("owner_id = ? AND instance = ?", ownerID, instance).
			Count(&stakeCount).Error; err != nil {
			return err
		}

		var tier models.NodeQueueTier
		if err := tx.First(&tier, "tier_index = ?", stakeCount).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidNodeTier
			}
			return err
		}

		if err := adjustLoyalty(tx, ownerID, -tier.RequiredLoyalty); err != nil {
			return err
		}

		stake = models.NodeStake{
			OwnerID:       ownerID,
			Instance:      instance,
			StakeIndex:    tier.Index,
			LoyaltyLocked: tier.RequiredLoyalty,
		}
		if err := tx.Create(&stake).Error; err != nil {
			return err
		}

		var queueLen int64
		if err := tx.Model(&models.NodeQueueSlot{}).Count(&queueLen).Error; err != nil {
			return err
		}
		for i := 0; i < tier.TurnsPerStake; i++ {
			slot := models.NodeQueueSlot{
				Position:   int(queueLen) + i,
				OwnerID:    ownerID,
				Instance:   instance,
				StakeIndex: tier.Index,
			}
			if err := tx.Create(&slot).Error; err != nil {
				return err
			}
		}

		key, err := utils.PackKey(ownerID, instance)
		if err != nil {
			return err
		}
		if err := logChange(tx, actorID, models.EntityNodeInfo, key, models.ChangeUpdated); err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, ownerID, models.ChangeUpdated)
	})
	if err != nil {
		return nil, err
	}
	return &stake, nil
}

// UnstakeQueueTier releases the node's most recent stake and refunds the
// loyalty recorded when it was locked, even if the tier's requirement has
// changed since. Slots minted by the released stake go stale.
func (s *NodeQueueService) UnstakeQueueTier(actorID, ownerID string, instance uint64) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var node models.NodeInfo
		if err := tx.First(&node, "owner_id = ? AND instance = ?", ownerID, instance).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNodeInfoDoesNotExist
			}
			return err
		}

		var stake models.NodeStake
		err := tx.Where("owner_id = ? AND instance = ?", ownerID, instance).
			Order("stake_index DESC").
			First(&stake).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidNodeTier
			}
			return err
		}

		if err := tx.Delete(&stake).Error; err != nil {
			return err
		}
		if err := adjustLoyalty(tx, ownerID, stake.LoyaltyLocked); err != nil {
			return err
		}

		key, err := utils.PackKey(ownerID, instance)
		if err != nil {
			return err
		}
		if err := logChange(tx, actorID, models.EntityNodeInfo, key, models.ChangeUpdated); err != nil {
			return err
		}
		return logChange(tx, actorID, models.EntityPlayerProfile, ownerID, models.ChangeUpdated)
	})
}

// --- Online status ---

// SetStatusOnline marks a node active so its queue slots count as live.
func (s *NodeQueueService) SetStatusOnline(actorID, ownerID string, instance uint64) error {
	return s.setStatus(actorID, ownerID, instance, models.NodeActive)
}

// SetStatusOffline marks a node inactive. Its slots stay in the queue but
// are skipped and purged by traversal until it comes back online; slots
// purged while offline are not restored.
func (s *NodeQueueService) SetStatusOffline(actorID, ownerID string, instance uint64) error {
	return s.setStatus(actorID, ownerID, instance, models.NodeInactive)
}

func (s *NodeQueueService) setStatus(actorID, ownerID string, instance uint64, status models.NodeStatus) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var node models.NodeInfo
		if err := tx.First(&node, "owner_id = ? AND instance = ?", ownerID, instance).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNodeInfoDoesNotExist
			}
			return err
		}
		if node.Status == status {
			if status == models.NodeActive {
				return ErrNodeAlreadyActive
			}
			return ErrNodeNotActive
		}

		node.Status = status
		if err := tx.Save(&node).Error; err != nil {
			return err
		}

		key, err := utils.PackKey(ownerID, instance)
		if err != nil {
			return err
		}
		change := models.ChangeEnabled
		if status == models.NodeInactive {
			change = models.ChangeDisabled
		}
		return logChange(tx, actorID, models.EntityNodeInfo, key, change)
	})
}

// --- Queue traversal ---

// GetQueueLength returns the raw slot count, stale slots included.
func (s *NodeQueueService) GetQueueLength() (int64, error) {
	var count int64
	if err := s.DB.Model(&models.NodeQueueSlot{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// nodeLiveness caches per-node liveness during one traversal.
type nodeLiveness struct {
	active     bool
	stakeCount int
}

// traverseQueue walks the queue circularly from startIndex, advancing by
// step, collecting up to count live entries. A stale slot is swap-removed
// (the tail slot moves into its position) and the same position is
// examined again; if the position falls off the shrunk queue it wraps to
// zero. The walk stops once count entries are served or every remaining
// slot has been inspected and found stale.
//
// With count=0 the walk degenerates into a full compaction sweep.
//
// Returns the surviving slots, the served entries, the wrapped position
// after the last served entry, and whether any slot was removed.
func traverseQueue(tx *gorm.DB, startIndex, count, step int) ([]models.NodeQueueSlot, []QueueEntry, int, bool, error) {
	var slots []models.NodeQueueSlot
	if err := tx.Order("position ASC").Find(&slots).Error; err != nil {
		return nil, nil, 0, false, err
	}

	liveness := make(map[string]*nodeLiveness)
	lookup := func(ownerID string, instance uint64) (*nodeLiveness, error) {
		cacheKey := ownerID + "#" + strconv.FormatUint(instance, 10)
		if lv, ok := liveness[cacheKey]; ok {
			return lv, nil
		}
		lv := &nodeLiveness{}
		var node models.NodeInfo
		err := tx.First(&node, "owner_id = ? AND instance = ?", ownerID, instance).Error
		if err == nil {
			lv.active = node.Status == models.NodeActive
			var stakeCount int64
			if err := tx.Model(&models.NodeStake{}).
				Where("owner_id = ? AND instance = ?", ownerID, instance).
				Count(&stakeCount).Error; err != nil {
				return nil, err
			}
			lv.stakeCount = int(stakeCount)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		liveness[cacheKey] = lv
		return lv, nil
	}

	entries := make([]QueueEntry, 0, count)
	removed := false
	pos := startIndex
	sweep := count == 0

	// In a sweep every position is visited once; serving reads stop at
	// count entries.
	for len(slots) > 0 {
		if !sweep && len(entries) >= count {
			break
		}
		if pos >= len(slots) {
			pos = 0
			if sweep {
				break
			}
		}

		slot := slots[pos]
		lv, err := lookup(slot.OwnerID, slot.Instance)
		if err != nil {
			return nil, nil, 0, false, err
		}

		stale := !lv.active || slot.StakeIndex >= lv.stakeCount
		if stale {
			last := len(slots) - 1
			slots[pos] = slots[last]
			slots = slots[:last]
			removed = true
			// re-examine the slot that just moved into this position
			continue
		}

		if sweep {
			pos++
			continue
		}

		key, err := utils.PackKey(slot.OwnerID, slot.Instance)
		if err != nil {
			return nil, nil, 0, false, err
		}
		entries = append(entries, QueueEntry{
			NodeKey:    key,
			OwnerID:    slot.OwnerID,
			Instance:   slot.Instance,
			StakeIndex: slot.StakeIndex,
		})
		pos += step
		if pos >= len(slots) && len(slots) > 0 {
			pos %= len(slots)
		}
	}

	nextIndex := 0
	if len(slots) > 0 {
		nextIndex = pos % len(slots)
	}
	return slots, entries, nextIndex, removed, nil
}

// persistQueue rewrites the slot table to match the surviving in-memory
// slots. Traversal only ever shrinks and reorders, so positions stay dense.
func persistQueue(tx *gorm.DB, slots []models.NodeQueueSlot) error {
	if err := tx.Where("position >= ?", len(slots)).Delete(&models.NodeQueueSlot{}).Error; err != nil {
		return err
	}
	for i := range slots {
		updated := models.NodeQueueSlot{
			Position:   i,
			OwnerID:    slots[i].OwnerID,
			Instance:   slots[i].Instance,
			StakeIndex: slots[i].StakeIndex,
		}
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
	}
	return nil
}

// PeekQueueEntries reads up to count entries without mutating the queue.
// Stale slots are skipped in-memory but left in place.
func (s *NodeQueueService) PeekQueueEntries(startIndex, count, step int) (*QueueRead, error) {
	if count < 1 || step < 1 || startIndex < 0 {
		return nil, ErrInvalidMatchIndex
	}

	var read *QueueRead
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		slots, entries, nextIndex, _, err := traverseQueue(tx, startIndex, count, step)
		if err != nil {
			return err
		}
		read = &QueueRead{
			Entries:   entries,
			NextIndex: nextIndex,
			Remaining: count - min(count, len(slots)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return read, nil
}

// DrainQueueEntries reads like PeekQueueEntries but persists the removal
// of every stale slot encountered. Used when judges are actually seated.
func (s *NodeQueueService) DrainQueueEntries(startIndex, count, step int) (*QueueRead, error) {
	if count < 1 || step < 1 || startIndex < 0 {
		return nil, ErrInvalidMatchIndex
	}

	var read *QueueRead
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		slots, entries, nextIndex, removed, err := traverseQueue(tx, startIndex, count, step)
		if err != nil {
			return err
		}
		if removed {
			if err := persistQueue(tx, slots); err != nil {
				return err
			}
		}
		read = &QueueRead{
			Entries:   entries,
			NextIndex: nextIndex,
			Remaining: count - min(count, len(slots)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return read, nil
}

// drainEntriesTx is DrainQueueEntries inside an existing transaction, for
// callers composing queue draws with other effects. Also reports the
// position a follow-up draw should start from.
func drainEntriesTx(tx *gorm.DB, startIndex, count, step int) ([]QueueEntry, int, error) {
	slots, entries, nextIndex, removed, err := traverseQueue(tx, startIndex, count, step)
	if err != nil {
		return nil, 0, err
	}
	if removed {
		if err := persistQueue(tx, slots); err != nil {
			return nil, 0, err
		}
	}
	return entries, nextIndex, nil
}

// Compact sweeps the whole queue and removes every stale slot, so reads
// that follow pay no cleanup cost. Safe to run at any time.
func (s *NodeQueueService) Compact() (int, error) {
	removedCount := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var before int64
		if err := tx.Model(&models.NodeQueueSlot{}).Count(&before).Error; err != nil {
			return err
		}
		slots, _, _, removed, err := traverseQueue(tx, 0, 0, 1)
		if err != nil {
			return err
		}
		if removed {
			if err := persistQueue(tx, slots); err != nil {
				return err
			}
		}
		removedCount = int(before) - len(slots)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removedCount, nil
}

// --- HTTP handlers ---

// SetTierEndpoint configures a staking tier (Admin only).
func (s *NodeQueueService) SetTierEndpoint(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tier index"})
	}

	var req struct {
		RequiredLoyalty int64 `json:"required_loyalty"`
		TurnsPerStake   int   `json:"turns_per_stake"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	tier, err := s.SetTier(callerID(c), index, req.RequiredLoyalty, req.TurnsPerStake)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(tier)
}

// GetTiersEndpoint lists the tier table.
func (s *NodeQueueService) GetTiersEndpoint(c *fiber.Ctx) error {
	tiers, err := s.GetTiers()
	if err != nil {
		log.Printf("DB Error fetching tiers: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tiers"})
	}
	return c.JSON(tiers)
}

// AssignNodesEndpoint grants node instances to an operator (Admin only).
func (s *NodeQueueService) AssignNodesEndpoint(c *fiber.Ctx) error {
	var req struct {
		Owner    string `json:"owner"`
		Quantity int64  `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	owner, err := utils.NormalizeIdentity(req.Owner)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	nodes, err := s.AssignNodes(callerID(c), owner, req.Quantity)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(nodes)
}

// RemoveNodesEndpoint takes node instances back from an operator (Admin only).
func (s *NodeQueueService) RemoveNodesEndpoint(c *fiber.Ctx) error {
	var req struct {
		Owner    string `json:"owner"`
		Quantity int64  `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	owner, err := utils.NormalizeIdentity(req.Owner)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	if err := s.RemoveNodes(callerID(c), owner, req.Quantity); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

func (s *NodeQueueService) instanceParam(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("instance"), 10, 64)
}

// StakeEndpoint stakes the caller's node into its next tier (Operator only).
func (s *NodeQueueService) StakeEndpoint(c *fiber.Ctx) error {
	instance, err := s.instanceParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid node instance"})
	}

	stake, err := s.StakeQueueTier(callerID(c), callerID(c), instance)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(stake)
}

// UnstakeEndpoint releases the caller's node's most recent stake (Operator only).
func (s *NodeQueueService) UnstakeEndpoint(c *fiber.Ctx) error {
	instance, err := s.instanceParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid node instance"})
	}

	if err := s.UnstakeQueueTier(callerID(c), callerID(c), instance); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"status": "unstaked"})
}

// OnlineEndpoint brings the caller's node online (Operator only).
func (s *NodeQueueService) OnlineEndpoint(c *fiber.Ctx) error {
	instance, err := s.instanceParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid node instance"})
	}

	if err := s.SetStatusOnline(callerID(c), callerID(c), instance); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"status": "online"})
}

// OfflineEndpoint takes the caller's node offline (Operator only).
func (s *NodeQueueService) OfflineEndpoint(c *fiber.Ctx) error {
	instance, err := s.instanceParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid node instance"})
	}

	if err := s.SetStatusOffline(callerID(c), callerID(c), instance); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"status": "offline"})
}

// GetNodeEndpoint fetches one node instance with its stakes.
func (s *NodeQueueService) GetNodeEndpoint(c *fiber.Ctx) error {
	owner, err := utils.NormalizeIdentity(c.Params("owner"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}
	instance, err := s.instanceParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid node instance"})
	}

	node, err := s.GetNodeInfo(owner, instance)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(node)
}

// ListNodesEndpoint lists an operator's node instances.
func (s *NodeQueueService) ListNodesEndpoint(c *fiber.Ctx) error {
	owner, err := utils.NormalizeIdentity(c.Params("owner"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}

	nodes, err := s.ListNodes(owner)
	if err != nil {
		log.Printf("DB Error listing nodes for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch nodes"})
	}
	return c.JSON(nodes)
}

// NodeKeyAtEndpoint resolves an operator's idx-th node to its packed key.
func (s *NodeQueueService) NodeKeyAtEndpoint(c *fiber.Ctx) error {
	owner, err := utils.NormalizeIdentity(c.Params("owner"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid identity"})
	}
	idx, err := strconv.ParseInt(c.Params("idx"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid node index"})
	}

	key, err := s.NodeKeyAt(owner, idx)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"node_key": key})
}

// QueueLengthEndpoint reports the raw queue length.
func (s *NodeQueueService) QueueLengthEndpoint(c *fiber.Ctx) error {
	length, err := s.GetQueueLength()
	if err != nil {
		log.Printf("DB Error fetching queue length: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch queue length"})
	}
	return c.JSON(fiber.Map{"length": length})
}

// PeekQueueEndpoint previews upcoming queue entries without consuming them.
func (s *NodeQueueService) PeekQueueEndpoint(c *fiber.Ctx) error {
	start := c.QueryInt("start", 0)
	count := c.QueryInt("count", 1)
	step := c.QueryInt("step", 1)

	read, err := s.PeekQueueEntries(start, count, step)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(read)
}

// CompactEndpoint runs a full stale-slot sweep (Admin only).
func (s *NodeQueueService) CompactEndpoint(c *fiber.Ctx) error {
	removed, err := s.Compact()
	if err != nil {
		log.Printf("DB Error compacting queue: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compact queue"})
	}
	return c.JSON(fiber.Map{"removed": removed})
}
