package services

import (
	"testing"

	"game-competition-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	env := newTestEnv(t)
	player := testIdentity(0x01)

	profile, err := env.ledger.CreateProfile(env.admin, player)
	require.NoError(t, err)
	assert.Equal(t, player, profile.ID)
	assert.Equal(t, models.ProfileCreated, profile.Status)
	assert.Zero(t, profile.Tickets)
	assert.Zero(t, profile.Loyalty)

	_, err = env.ledger.CreateProfile(env.admin, player)
	assert.ErrorIs(t, err, ErrProfileAlreadyExists)
}

func TestGetProfileMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.GetProfile(testIdentity(0x99))
	assert.ErrorIs(t, err, ErrProfileDoesNotExist)
}

func TestDepositTickets(t *testing.T) {
	env := newTestEnv(t)
	player := testIdentity(0x01)
	env.createProfile(player)

	profile, err := env.ledger.DepositTickets(env.admin, player, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), profile.Tickets)

	profile, err = env.ledger.DepositTickets(env.admin, player, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), profile.Tickets)
}

func TestDepositTicketsRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	player := testIdentity(0x01)
	env.createProfile(player)

	_, err := env.ledger.DepositTickets(env.admin, player, 0)
	assert.ErrorIs(t, err, ErrInvalidTicketDeposit)

	_, err = env.ledger.DepositTickets(env.admin, player, -3)
	assert.ErrorIs(t, err, ErrInvalidTicketDeposit)

	_, err = env.ledger.DepositTickets(env.admin, testIdentity(0x99), 10)
	assert.ErrorIs(t, err, ErrProfileDoesNotExist)
}

func TestSetPlayerStanding(t *testing.T) {
	env := newTestEnv(t)
	player := testIdentity(0x01)
	env.createProfile(player)

	profile, err := env.ledger.SetPlayerStanding(env.admin, player, 7, 1450)
	require.NoError(t, err)
	assert.Equal(t, int16(7), profile.Rank)
	assert.Equal(t, int64(1450), profile.Elo)
}

func TestDisableProfile(t *testing.T) {
	env := newTestEnv(t)
	player := testIdentity(0x01)
	env.createProfile(player)
	env.deposit(player, 10)

	profile, err := env.ledger.DisableProfile(env.admin, player)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileDisabled, profile.Status)
	assert.Equal(t, int64(10), profile.Tickets, "balances survive disabling")

	_, err = env.ledger.DisableProfile(env.admin, player)
	assert.ErrorIs(t, err, ErrProfileDisabled)

	// Still readable after disabling.
	got := env.profile(player)
	assert.Equal(t, models.ProfileDisabled, got.Status)
}

func TestMutationsEmitChangeLog(t *testing.T) {
	env := newTestEnv(t)
	player := testIdentity(0x01)
	env.createProfile(player)
	env.deposit(player, 10)

	var entries []models.ChangeLog
	require.NoError(t, env.db.
		Where("entity_key = ?", player).
		Order("created_at ASC").
		Find(&entries).Error)

	require.Len(t, entries, 2)
	assert.Equal(t, models.ChangeCreated, entries[0].Change)
	assert.Equal(t, models.ChangeUpdated, entries[1].Change)
	assert.Equal(t, models.EntityPlayerProfile, entries[0].EntityType)
	assert.Equal(t, env.admin, entries[0].ActorID)
}

func TestFailedDepositLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.DepositTickets(env.admin, testIdentity(0x99), 10)
	require.ErrorIs(t, err, ErrProfileDoesNotExist)

	var count int64
	require.NoError(t, env.db.Model(&models.ChangeLog{}).
		Where("entity_key = ?", testIdentity(0x99)).
		Count(&count).Error)
	assert.Zero(t, count)
}
