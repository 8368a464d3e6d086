package services

import (
	"testing"
	"time"

	"game-competition-system/models"
	"game-competition-system/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compFixture is the standard competition setup: three operators with two
// staked, online nodes each (six queue turns in stake order), three
// players holding ten tickets, one game, and a single-entry loyalty table.
type compFixture struct {
	*testEnv
	operators []string
	players   []string
	gameID    string
}

const fixtureLoyaltyAward = int64(385546794)

func newCompFixture(t *testing.T) *compFixture {
	env := newTestEnv(t)
	f := &compFixture{
		testEnv:   env,
		operators: []string{testIdentity(0x10), testIdentity(0x20), testIdentity(0x30)},
		players:   []string{testIdentity(0x01), testIdentity(0x02), testIdentity(0x03)},
	}

	_, err := env.queue.SetTier(env.admin, 0, 0, 1)
	require.NoError(t, err)

	for _, op := range f.operators {
		env.createProfile(op)
		_, err := env.queue.AssignNodes(env.admin, op, 2)
		require.NoError(t, err)
		env.stakeAndActivate(op, 1)
		env.stakeAndActivate(op, 2)
	}

	for _, p := range f.players {
		env.createProfile(p)
		env.deposit(p, 10)
	}

	game, err := env.comp.CreateGameDefinition(env.admin, "", "FLAPPY", true)
	require.NoError(t, err)
	f.gameID = game.ID

	require.NoError(t, env.comp.SetLoyaltyLookup(env.admin, []int64{fixtureLoyaltyAward}))
	return f
}

func (f *compFixture) defaultParams() CompetitionParams {
	return CompetitionParams{
		GameID:          f.gameID,
		CurrencyType:    models.CurrencyTicket,
		PrizeType:       models.PrizeWinnerTakeAll,
		PrizePool:       90,
		NodeReward:      10,
		EntryFee:        1,
		MinimumPlayers:  1,
		MatchesPerRound: 1,
		MatchDuration:   3600,
	}
}

// createDefault opens the fixture's standard competition as the admin.
func (f *compFixture) createDefault() *models.Competition {
	f.t.Helper()
	comp, err := f.comp.CreateCompetition(f.admin, f.admin, true, f.defaultParams())
	require.NoError(f.t, err)
	return comp
}

func TestGameCatalog(t *testing.T) {
	env := newTestEnv(t)

	game, err := env.comp.CreateGameDefinition(env.admin, "", "Flappy Bird", false)
	require.NoError(t, err)
	assert.Equal(t, "flappy-bird", game.ID, "id derived from name")
	assert.Equal(t, models.GameCreated, game.Status)

	_, err = env.comp.CreateGameDefinition(env.admin, "flappy-bird", "Other", false)
	assert.ErrorIs(t, err, ErrGameAlreadyExists)

	game, err = env.comp.DisableGameDefinition(env.admin, "flappy-bird")
	require.NoError(t, err)
	assert.Equal(t, models.GameDisabled, game.Status)

	_, err = env.comp.DisableGameDefinition(env.admin, "flappy-bird")
	assert.ErrorIs(t, err, ErrGameNotActive)

	_, err = env.comp.DisableGameDefinition(env.admin, "missing")
	assert.ErrorIs(t, err, ErrInvalidGame)
}

func TestCreateCompetitionValidation(t *testing.T) {
	f := newCompFixture(t)

	params := f.defaultParams()
	params.GameID = "missing"
	_, err := f.comp.CreateCompetition(f.admin, f.admin, true, params)
	assert.ErrorIs(t, err, ErrInvalidGame)

	params = f.defaultParams()
	params.CurrencyType = "gold"
	_, err = f.comp.CreateCompetition(f.admin, f.admin, true, params)
	assert.ErrorIs(t, err, ErrInvalidReward)

	params = f.defaultParams()
	params.MatchDuration = 0
	_, err = f.comp.CreateCompetition(f.admin, f.admin, true, params)
	assert.ErrorIs(t, err, ErrInvalidCompetitionParams)

	params = f.defaultParams()
	params.MaximumPlayers = 1
	params.MinimumPlayers = 2
	_, err = f.comp.CreateCompetition(f.admin, f.admin, true, params)
	assert.ErrorIs(t, err, ErrInvalidCompetitionParams)
}

func TestCreateCompetitionNonAdminEscrow(t *testing.T) {
	f := newCompFixture(t)
	creator := f.players[0]
	f.deposit(creator, 90) // 100 total

	// Non-admin creators are restricted to ticket funding.
	params := f.defaultParams()
	params.CurrencyType = models.CurrencyReward
	_, err := f.comp.CreateCompetition(creator, creator, false, params)
	assert.ErrorIs(t, err, ErrInvalidReward)

	comp, err := f.comp.CreateCompetition(creator, creator, false, f.defaultParams())
	require.NoError(t, err)
	assert.Equal(t, creator, comp.CreatorID)
	assert.Equal(t, int64(10), f.profile(creator).Tickets, "prize pool escrowed up front")

	// A second creation cannot cover another 90-ticket pool.
	_, err = f.comp.CreateCompetition(creator, creator, false, f.defaultParams())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCompetitionIDFromCreatorNonce(t *testing.T) {
	f := newCompFixture(t)

	first := f.createDefault()
	second := f.createDefault()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint64(2), f.profile(f.admin).CompetitionNonce)

	got, err := f.comp.GetCompetition(first.ID)
	require.NoError(t, err)
	assert.Len(t, got.Judges, 3)
}

func TestCreateCompetitionRequiresJudges(t *testing.T) {
	env := newTestEnv(t)

	game, err := env.comp.CreateGameDefinition(env.admin, "", "FLAPPY", true)
	require.NoError(t, err)

	params := CompetitionParams{
		GameID:          game.ID,
		CurrencyType:    models.CurrencyTicket,
		PrizeType:       models.PrizeWinnerTakeAll,
		PrizePool:       90,
		NodeReward:      10,
		EntryFee:        1,
		MinimumPlayers:  1,
		MatchesPerRound: 1,
		MatchDuration:   3600,
	}
	_, err = env.comp.CreateCompetition(env.admin, env.admin, true, params)
	assert.ErrorIs(t, err, ErrInsufficientJudges)

	// The failed creation consumed nothing.
	assert.Zero(t, env.profile(env.admin).CompetitionNonce)
}

func TestJudgeRotationAcrossCompetitions(t *testing.T) {
	f := newCompFixture(t)

	first := f.createDefault()
	second := f.createDefault()

	a, err := f.comp.GetCompetition(first.ID)
	require.NoError(t, err)
	b, err := f.comp.GetCompetition(second.ID)
	require.NoError(t, err)

	require.Len(t, a.Judges, 3)
	require.Len(t, b.Judges, 3)

	// Six turns in the queue, three per draw: consecutive draws must not
	// reuse a node.
	drawn := map[string]bool{}
	for _, j := range a.Judges {
		drawn[j.NodeKey] = true
	}
	for _, j := range b.Judges {
		assert.False(t, drawn[j.NodeKey], "node %s drawn twice in a row", j.NodeKey)
	}
}

func TestRegisterForMatch(t *testing.T) {
	f := newCompFixture(t)
	comp := f.createDefault()

	match, err := f.comp.RegisterForMatch(f.players[0], comp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, models.MatchCreated, match.Status)
	assert.Equal(t, int64(9), f.profile(f.players[0]).Tickets, "entry fee collected")

	_, err = f.comp.RegisterForMatch(f.players[0], comp.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	match, err = f.comp.RegisterForMatch(f.players[1], comp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, match.Index)

	missing, err := utils.PackKey(testIdentity(0x99), 7)
	require.NoError(t, err)
	_, err = f.comp.RegisterForMatch(f.players[0], missing)
	assert.ErrorIs(t, err, ErrCompetitionDoesNotExist)
}

func TestRegisterEligibility(t *testing.T) {
	f := newCompFixture(t)

	params := f.defaultParams()
	params.EntryFee = 15 // more than any player holds
	comp, err := f.comp.CreateCompetition(f.admin, f.admin, true, params)
	require.NoError(t, err)

	_, err = f.comp.RegisterForMatch(f.players[0], comp.ID)
	assert.ErrorIs(t, err, ErrMatchNotEligible)

	// A rank window excludes unranked players.
	params = f.defaultParams()
	params.EligibleRankMin = 1
	params.EligibleRankMax = 10
	comp, err = f.comp.CreateCompetition(f.admin, f.admin, true, params)
	require.NoError(t, err)

	_, err = f.comp.RegisterForMatch(f.players[0], comp.ID)
	assert.ErrorIs(t, err, ErrMatchNotEligible)

	_, err = f.ledger.SetPlayerStanding(f.admin, f.players[0], 5, 0)
	require.NoError(t, err)
	_, err = f.comp.RegisterForMatch(f.players[0], comp.ID)
	assert.NoError(t, err)
}

func TestRegisterCapacityAndTiming(t *testing.T) {
	f := newCompFixture(t)

	params := f.defaultParams()
	params.MaximumPlayers = 1
	comp, err := f.comp.CreateCompetition(f.admin, f.admin, true, params)
	require.NoError(t, err)

	_, err = f.comp.RegisterForMatch(f.players[0], comp.ID)
	require.NoError(t, err)
	_, err = f.comp.RegisterForMatch(f.players[1], comp.ID)
	assert.ErrorIs(t, err, ErrCompetitionFull)

	// Registration closes at the end time.
	late := f.createDefault()
	f.advance(3601 * time.Second)
	_, err = f.comp.RegisterForMatch(f.players[1], late.ID)
	assert.ErrorIs(t, err, ErrCompetitionNotActive)
}

func TestRegisterDisabledProfile(t *testing.T) {
	f := newCompFixture(t)
	comp := f.createDefault()

	_, err := f.ledger.DisableProfile(f.admin, f.players[0])
	require.NoError(t, err)

	_, err = f.comp.RegisterForMatch(f.players[0], comp.ID)
	assert.ErrorIs(t, err, ErrProfileDisabled)
}

func TestSubmitMatch(t *testing.T) {
	f := newCompFixture(t)
	comp := f.createDefault()

	match, err := f.comp.RegisterForMatch(f.players[0], comp.ID)
	require.NoError(t, err)

	_, err = f.comp.SubmitMatch(f.players[1], comp.ID, match.Index, 100, "")
	assert.ErrorIs(t, err, ErrMatchNotEligible, "only the owner submits their match")

	_, err = f.comp.SubmitMatch(f.players[0], comp.ID, 5, 100, "")
	assert.ErrorIs(t, err, ErrInvalidMatchIndex)

	submitted, err := f.comp.SubmitMatch(f.players[0], comp.ID, match.Index, 100, "pin://abc")
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, submitted.Status)
	assert.Equal(t, int64(100), submitted.Score)
	assert.Equal(t, "pin://abc", submitted.DataPin)
	require.NotNil(t, submitted.EndTime)

	profile := f.profile(f.players[0])
	require.NotNil(t, profile.LastGameTimestamp)

	_, err = f.comp.SubmitMatch(f.players[0], comp.ID, match.Index, 200, "")
	assert.ErrorIs(t, err, ErrMatchAlreadySubmitted)
}

func TestScoreCompetitionSettlement(t *testing.T) {
	f := newCompFixture(t)
	comp := f.createDefault()

	scores := []int64{100, 200, 300}
	for i, p := range f.players {
		match, err := f.comp.RegisterForMatch(p, comp.ID)
		require.NoError(t, err)
		_, err = f.comp.SubmitMatch(p, comp.ID, match.Index, scores[i], "")
		require.NoError(t, err)
	}

	// The first drawn judge node belongs to operator 0.
	judge := f.operators[0]

	// Settlement is gated until the competition's end time passes.
	_, err := f.comp.ScoreCompetition(judge, comp.ID, 2)
	assert.ErrorIs(t, err, ErrPendingCompetition)

	f.advance(3601 * time.Second)

	// Non-judges cannot settle.
	_, err = f.comp.ScoreCompetition(f.players[0], comp.ID, 2)
	assert.ErrorIs(t, err, ErrJudgeNotAuthorized)

	result, err := f.comp.ScoreCompetition(judge, comp.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, f.players[2], result.WinnerID)
	assert.Equal(t, int64(90), result.PrizePaid)
	assert.Equal(t, fixtureLoyaltyAward, result.LoyaltyAward)
	assert.Equal(t, int64(5), result.JudgeReward,
		"judge at baseline reputation earns half the node reward")

	winner := f.profile(f.players[2])
	assert.Equal(t, int64(90), winner.Rewards)
	assert.Equal(t, fixtureLoyaltyAward, winner.Loyalty)
	assert.Equal(t, 1*models.ReputationScale, winner.Reputation)

	judgeProfile := f.profile(judge)
	assert.Equal(t, int64(5), judgeProfile.Rewards)

	settled, err := f.comp.GetCompetition(comp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CompetitionAccepted, settled.Status)

	// Settled competitions cannot be scored again.
	_, err = f.comp.ScoreCompetition(judge, comp.ID, 2)
	assert.ErrorIs(t, err, ErrCompetitionNotActive)
}

func TestScoreCompetitionRecomputesWinner(t *testing.T) {
	f := newCompFixture(t)
	comp := f.createDefault()

	scores := []int64{100, 300, 200}
	for i, p := range f.players {
		match, err := f.comp.RegisterForMatch(p, comp.ID)
		require.NoError(t, err)
		_, err = f.comp.SubmitMatch(p, comp.ID, match.Index, scores[i], "")
		require.NoError(t, err)
	}

	f.advance(3601 * time.Second)

	// The judge claims match 0, but submitted scores decide the winner.
	result, err := f.comp.ScoreCompetition(f.operators[0], comp.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, f.players[1], result.WinnerID)
	assert.Equal(t, 1, result.WinnerMatch)
}

func TestScoreCompetitionOnlySubmittedMatchesCount(t *testing.T) {
	f := newCompFixture(t)
	comp := f.createDefault()

	// Two register, only the low scorer submits.
	for _, p := range f.players[:2] {
		_, err := f.comp.RegisterForMatch(p, comp.ID)
		require.NoError(t, err)
	}
	_, err := f.comp.SubmitMatch(f.players[0], comp.ID, 0, 50, "")
	require.NoError(t, err)

	f.advance(3601 * time.Second)

	result, err := f.comp.ScoreCompetition(f.operators[0], comp.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, f.players[0], result.WinnerID)
}

func TestScoreCompetitionUnsupportedPrizeType(t *testing.T) {
	f := newCompFixture(t)

	params := f.defaultParams()
	params.PrizeType = models.PrizeTop3
	comp, err := f.comp.CreateCompetition(f.admin, f.admin, true, params)
	require.NoError(t, err, "non-winner-take-all types are accepted at creation")

	match, err := f.comp.RegisterForMatch(f.players[0], comp.ID)
	require.NoError(t, err)
	_, err = f.comp.SubmitMatch(f.players[0], comp.ID, match.Index, 100, "")
	require.NoError(t, err)

	f.advance(3601 * time.Second)

	_, err = f.comp.ScoreCompetition(f.operators[0], comp.ID, 0)
	assert.ErrorIs(t, err, ErrUnsupportedPrizeType)
}

func TestDisableCompetitionRefundsEscrow(t *testing.T) {
	f := newCompFixture(t)
	creator := f.players[0]
	f.deposit(creator, 90)

	comp, err := f.comp.CreateCompetition(creator, creator, false, f.defaultParams())
	require.NoError(t, err)
	require.Equal(t, int64(10), f.profile(creator).Tickets)

	disabled, err := f.comp.DisableCompetition(f.admin, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CompetitionDisabled, disabled.Status)
	assert.Equal(t, int64(100), f.profile(creator).Tickets, "escrow returned")

	_, err = f.comp.DisableCompetition(f.admin, comp.ID)
	assert.ErrorIs(t, err, ErrCompetitionNotActive)

	_, err = f.comp.RegisterForMatch(f.players[1], comp.ID)
	assert.ErrorIs(t, err, ErrCompetitionNotActive)
}

func TestDefaultJudgeReward(t *testing.T) {
	scale := models.ReputationScale

	assert.Equal(t, int64(5), DefaultJudgeReward(10, 100*scale))
	assert.Equal(t, int64(10), DefaultJudgeReward(10, 200*scale))
	assert.Equal(t, int64(10), DefaultJudgeReward(10, 500*scale), "capped at 200.00")
	assert.Zero(t, DefaultJudgeReward(10, 0))
	assert.Zero(t, DefaultJudgeReward(10, -50*scale))
}
