package services

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"game-competition-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory database with the full
// schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.PlayerProfile{},
		&models.ChangeLog{},
		&models.NodeInfo{},
		&models.NodeStake{},
		&models.NodeQueueTier{},
		&models.NodeQueueSlot{},
		&models.GameDefinition{},
		&models.Competition{},
		&models.CompetitionJudge{},
		&models.Match{},
		&models.LoyaltyLookupEntry{},
	))

	return db
}

// testIdentity builds a deterministic 20-byte identity from one byte.
func testIdentity(b byte) string {
	return "0x" + hex.EncodeToString(bytes.Repeat([]byte{b}, 20))
}

// testEnv wires the three services over one database with a controllable
// clock.
type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	ledger *LedgerService
	queue  *NodeQueueService
	comp   *CompetitionService
	now    time.Time
	admin  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)

	env := &testEnv{
		t:      t,
		db:     db,
		ledger: NewLedgerService(db),
		queue:  NewNodeQueueService(db),
		comp:   NewCompetitionService(db, DefaultJudgeCount),
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		admin:  testIdentity(0xad),
	}
	env.comp.Now = func() time.Time { return env.now }

	_, err := env.ledger.CreateProfile(env.admin, env.admin)
	require.NoError(t, err)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) createProfile(id string) {
	e.t.Helper()
	_, err := e.ledger.CreateProfile(e.admin, id)
	require.NoError(e.t, err)
}

func (e *testEnv) deposit(id string, amount int64) {
	e.t.Helper()
	_, err := e.ledger.DepositTickets(e.admin, id, amount)
	require.NoError(e.t, err)
}

func (e *testEnv) profile(id string) *models.PlayerProfile {
	e.t.Helper()
	p, err := e.ledger.GetProfile(id)
	require.NoError(e.t, err)
	return p
}

// stakeAndActivate stakes one tier on a node and brings it online.
func (e *testEnv) stakeAndActivate(owner string, instance uint64) {
	e.t.Helper()
	_, err := e.queue.StakeQueueTier(e.admin, owner, instance)
	require.NoError(e.t, err)
	require.NoError(e.t, e.queue.SetStatusOnline(e.admin, owner, instance))
}
