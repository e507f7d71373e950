package game_flow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/services/questions"
	"Trivio/services/store"
	"Trivio/utils"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBroadcaster records every emit so tests can assert on the wire traffic.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	group   string
	event   string
	payload gin.H
}

func (b *fakeBroadcaster) EmitToGroup(group string, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, _ := payload.(gin.H)
	b.events = append(b.events, recordedEvent{group: group, event: event, payload: p})
}

func (b *fakeBroadcaster) EmitToConnection(connectionId string, event string, payload interface{}) {
	b.EmitToGroup("conn:"+connectionId, event, payload)
}

func (b *fakeBroadcaster) LeaveGroup(connectionId string, group string) {}

func (b *fakeBroadcaster) named(event string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// fakeLedger is an in-memory Ledger with per-call failure toggles.
type fakeLedger struct {
	mu          sync.Mutex
	coins       map[string]int
	completions map[string]bool
	messages    []models.ChatMessage
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{coins: make(map[string]int), completions: make(map[string]bool)}
}

func ledgerKey(nickname, setId string) string { return nickname + "|" + setId }

func (l *fakeLedger) PersistCoins(ctx context.Context, nickname, questionSetId string, coins int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.coins[ledgerKey(nickname, questionSetId)] += coins
	return nil
}

func (l *fakeLedger) HasCompleted(ctx context.Context, nickname, questionSetId string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.completions[ledgerKey(nickname, questionSetId)], nil
}

func (l *fakeLedger) RecordCompletion(ctx context.Context, nickname, questionSetId string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completions[ledgerKey(nickname, questionSetId)] = true
	return nil
}

func (l *fakeLedger) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, *msg)
	return nil
}

// fixture wires a flow over the in-memory store with a fake clock.
type fixture struct {
	flow   *GameFlow
	store  store.Store
	bcast  *fakeBroadcaster
	clock  *clockwork.FakeClock
	ledger *fakeLedger
}

func twoQuestionSet() *questions.QuestionSet {
	return &questions.QuestionSet{
		Id:   "set-1",
		Name: "capitals",
		Questions: []questions.Question{
			{Index: 0, Kind: questions.KindChoice, Prompt: "Capital of France?",
				Options: []string{"Paris", "Lyon", "Nice"}, CorrectIndex: 0, TimeLimitMs: 20000},
			{Index: 1, Kind: questions.KindChoice, Prompt: "Capital of Spain?",
				Options: []string{"Sevilla", "Madrid"}, CorrectIndex: 1, TimeLimitMs: 20000},
		},
	}
}

func newFixture(t *testing.T, gameType string, set *questions.QuestionSet, playerCount int) (*fixture, string) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	st := store.NewMemoryStore()
	bcast := &fakeBroadcaster{}
	ledger := newFakeLedger()
	flow := New(st, bcast, questions.NewStaticProvider(set), ledger, clock)

	ctx := context.Background()
	session := &models.LiveSession{
		Id:               "s1",
		HostConnectionId: "host-conn",
		HostUsername:     "host",
		HostConnected:    true,
		QuestionSetId:    set.Id,
		GameType:         gameType,
		CurrentPhase:     models.PhaseLobby,
		CreatedAt:        clock.Now(),
	}
	require.NoError(t, st.CreateSession(ctx, session))

	for i := 0; i < playerCount; i++ {
		player := &models.Player{
			PlayerId:     fmt.Sprintf("p%d", i+1),
			Nickname:     fmt.Sprintf("player%d", i+1),
			ConnectionId: fmt.Sprintf("conn%d", i+1),
			Connected:    true,
			JoinedAt:     clock.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.AddPlayer(ctx, session.Id, player))
	}

	return &fixture{flow: flow, store: st, bcast: bcast, clock: clock, ledger: ledger}, session.Id
}

func (f *fixture) phase(t *testing.T, sessionId string) string {
	t.Helper()
	session, err := f.store.GetSession(context.Background(), sessionId)
	require.NoError(t, err)
	return session.CurrentPhase
}

// waitPhase advances nothing; it polls until a clock-fired job lands.
func (f *fixture) waitPhase(t *testing.T, sessionId, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		session, err := f.store.GetSession(context.Background(), sessionId)
		return err == nil && session.CurrentPhase == want
	}, 2*time.Second, 5*time.Millisecond, "phase never reached %s", want)
}

// waitEvent polls until a broadcast has gone out. Timers for the next step
// are armed before their announcing broadcast, so once the event is visible
// the clock can be advanced safely.
func (f *fixture) waitEvent(t *testing.T, event string, count int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.bcast.named(event)) >= count
	}, 2*time.Second, 5*time.Millisecond, "event %s never reached %d emits", event, count)
}

func (f *fixture) answer(t *testing.T, sessionId, playerId string, index int, at time.Time) {
	t.Helper()
	_, err := f.store.UpdatePlayer(context.Background(), sessionId, playerId, func(pl *models.Player) error {
		pl.LastAnswerIndex = &index
		pl.LastAnswerTime = &at
		return nil
	})
	require.NoError(t, err)
}

func TestStartGameRunsCountdownIntoQuestion(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 2)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	assert.Equal(t, models.PhaseCountdown, fx.phase(t, sessionId))

	countdowns := fx.bcast.named("game:countdown")
	require.Len(t, countdowns, 1)
	assert.Equal(t, sessionId, countdowns[0].group)
	assert.EqualValues(t, 5000, countdowns[0].payload["duration_ms"])
	assert.EqualValues(t, 0, countdowns[0].payload["question_index"])

	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)

	qs := fx.bcast.named("game:question")
	require.Len(t, qs, 1)
	assert.Equal(t, "Capital of France?", qs[0].payload["prompt"])
	// The answer key never rides the question broadcast.
	assert.NotContains(t, qs[0].payload, "correct_index")
	assert.NotContains(t, qs[0].payload, "correct_answer")

	session, err := fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)
	require.NotNil(t, session.QuestionStartedAt)
}

func TestStartGameRejectedOutsideLobby(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 1)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	err := fx.flow.StartGame(ctx, sessionId)
	require.Error(t, err)
	assert.Equal(t, utils.ErrStateConflict, utils.AsGameError(err).Code)
}

func TestQuestionTimeoutScoresAndReveals(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 3)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)

	session, err := fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)
	startedAt := *session.QuestionStartedAt

	// p1 correct at 5s, p2 wrong at 2s, p3 never answers.
	fx.answer(t, sessionId, "p1", 0, startedAt.Add(5*time.Second))
	fx.answer(t, sessionId, "p2", 1, startedAt.Add(2*time.Second))

	fx.waitEvent(t, "game:question", 1)
	fx.clock.Advance(20 * time.Second)
	fx.waitPhase(t, sessionId, models.PhaseReveal)

	p1, err := fx.store.GetPlayer(ctx, sessionId, "p1")
	require.NoError(t, err)
	// 1000 base + round(500 * (1 - 5/20)) = 1375, streak 1, 10 coins.
	assert.Equal(t, 1375, p1.Score)
	assert.Equal(t, 1, p1.Streak)
	assert.Equal(t, 10, p1.CoinsEarned)

	p2, err := fx.store.GetPlayer(ctx, sessionId, "p2")
	require.NoError(t, err)
	assert.Equal(t, 0, p2.Score)
	assert.Equal(t, 0, p2.Streak)

	p3, err := fx.store.GetPlayer(ctx, sessionId, "p3")
	require.NoError(t, err)
	assert.Equal(t, 0, p3.Score)

	reveals := fx.bcast.named("game:reveal")
	require.Len(t, reveals, 1)
	assert.EqualValues(t, 0, reveals[0].payload["correct_index"])
	tally, ok := reveals[0].payload["answer_tally"].(map[int]int)
	require.True(t, ok)
	assert.Equal(t, 1, tally[0])
	assert.Equal(t, 1, tally[1])
}

// The timeout and the all-answered early trigger can both fire; only the
// first mover scores and reveals.
func TestEndQuestionIsIdempotent(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 1)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)

	session, err := fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)
	fx.answer(t, sessionId, "p1", 0, session.QuestionStartedAt.Add(time.Second))

	fx.flow.EndQuestion(ctx, sessionId, 0)
	fx.flow.EndQuestion(ctx, sessionId, 0)

	assert.Equal(t, models.PhaseReveal, fx.phase(t, sessionId))
	assert.Len(t, fx.bcast.named("game:reveal"), 1)

	p1, err := fx.store.GetPlayer(ctx, sessionId, "p1")
	require.NoError(t, err)
	// 1000 + round(500 * 19/20), scored exactly once.
	assert.Equal(t, 1475, p1.Score)
}

func TestLeaderboardAndAdvanceToNextQuestion(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 2)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)

	session, err := fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)
	fx.answer(t, sessionId, "p2", 0, session.QuestionStartedAt.Add(time.Second))

	fx.flow.EndQuestion(ctx, sessionId, 0)
	require.Equal(t, models.PhaseReveal, fx.phase(t, sessionId))

	// Leaderboard before reveal's done is the host's call to make.
	require.NoError(t, fx.flow.ShowLeaderboard(ctx, sessionId))
	boards := fx.bcast.named("game:leaderboard")
	require.Len(t, boards, 1)
	standings, ok := boards[0].payload["standings"].([]gin.H)
	require.True(t, ok, "standings payload shape changed")
	require.Len(t, standings, 2)
	assert.Equal(t, "p2", standings[0]["player_id"])
	assert.Equal(t, 1, standings[0]["rank"])

	require.NoError(t, fx.flow.AdvanceGame(ctx, sessionId))
	assert.Equal(t, models.PhaseCountdown, fx.phase(t, sessionId))

	session, err = fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentQuestionIndex)
	assert.Nil(t, session.QuestionStartedAt)

	// Scratch state from question 0 is gone once question 1 starts.
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)
	p2, err := fx.store.GetPlayer(ctx, sessionId, "p2")
	require.NoError(t, err)
	assert.Nil(t, p2.LastAnswerIndex)
	assert.Nil(t, p2.LastAnswerTime)
}

func TestAdvanceGameRefusesWhileQuestionRuns(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 1)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)

	err := fx.flow.AdvanceGame(ctx, sessionId)
	require.Error(t, err)
	assert.Equal(t, utils.ErrStateConflict, utils.AsGameError(err).Code)
}

func TestGameOverPersistsCoinsAndDeletesSession(t *testing.T) {
	set := &questions.QuestionSet{
		Id: "set-1",
		Questions: []questions.Question{
			{Index: 0, Kind: questions.KindChoice, Prompt: "2+2?",
				Options: []string{"3", "4"}, CorrectIndex: 1, TimeLimitMs: 20000},
		},
	}
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, set, 3)
	ctx := context.Background()

	// player3 has completed this set before: repeat-play multiplier applies.
	require.NoError(t, fx.ledger.RecordCompletion(ctx, "player3", "set-1"))

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)

	session, err := fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)
	startedAt := *session.QuestionStartedAt
	fx.answer(t, sessionId, "p1", 1, startedAt.Add(4*time.Second))
	fx.answer(t, sessionId, "p2", 0, startedAt.Add(4*time.Second))
	fx.answer(t, sessionId, "p3", 1, startedAt.Add(8*time.Second))

	fx.flow.EndQuestion(ctx, sessionId, 0)
	require.NoError(t, fx.flow.ShowLeaderboard(ctx, sessionId))
	require.NoError(t, fx.flow.AdvanceGame(ctx, sessionId))

	ends := fx.bcast.named("game:end")
	require.Len(t, ends, 1)

	// p1: rank 1, 10 question coins + 50 placement = 60.
	assert.Equal(t, 60, fx.ledger.coins[ledgerKey("player1", "set-1")])
	// p3: rank 2, (10 + 30) halved for the repeat play = 20.
	assert.Equal(t, 20, fx.ledger.coins[ledgerKey("player3", "set-1")])
	// p2: rank 3, no correct answers, placement only = 20.
	assert.Equal(t, 20, fx.ledger.coins[ledgerKey("player2", "set-1")])

	assert.True(t, fx.ledger.completions[ledgerKey("player1", "set-1")])

	_, err = fx.store.GetSession(ctx, sessionId)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// Full two-question classic game with three players, checked against the
// coin and standings math end to end.
func TestFullClassicGame(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 3)
	ctx := context.Background()

	playQuestion := func(questionIndex int, answers map[string]int) {
		fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
		fx.waitPhase(t, sessionId, models.PhaseQuestion)
		fx.waitEvent(t, "game:question", questionIndex+1)

		session, err := fx.store.GetSession(ctx, sessionId)
		require.NoError(t, err)
		for playerId, index := range answers {
			fx.answer(t, sessionId, playerId, index, session.QuestionStartedAt.Add(4*time.Second))
		}
		fx.flow.EndQuestion(ctx, sessionId, questionIndex)
		require.NoError(t, fx.flow.ShowLeaderboard(ctx, sessionId))
		require.NoError(t, fx.flow.AdvanceGame(ctx, sessionId))
	}

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	// Q0 (correct index 0): p1 and p2 right, p3 wrong.
	playQuestion(0, map[string]int{"p1": 0, "p2": 0, "p3": 1})
	// Q1 (correct index 1): p1 right again, p2 and p3 wrong.
	playQuestion(1, map[string]int{"p1": 1, "p2": 0, "p3": 0})

	ends := fx.bcast.named("game:end")
	require.Len(t, ends, 1)
	standings, ok := ends[0].payload["standings"].([]gin.H)
	require.True(t, ok)
	require.Len(t, standings, 3)

	// Standings come sorted descending by score.
	assert.Equal(t, "p1", standings[0]["player_id"])
	assert.Equal(t, 1, standings[0]["rank"])
	assert.Equal(t, "p2", standings[1]["player_id"])
	assert.Equal(t, "p3", standings[2]["player_id"])

	// p1: two correct on a streak -> 10 + 15 question coins, +50 for rank 1.
	assert.Equal(t, 75, fx.ledger.coins[ledgerKey("player1", "set-1")])
	// p2: one correct -> 10, +30 for rank 2.
	assert.Equal(t, 40, fx.ledger.coins[ledgerKey("player2", "set-1")])
	// p3: nothing but the rank 3 bonus.
	assert.Equal(t, 20, fx.ledger.coins[ledgerKey("player3", "set-1")])

	_, err := fx.store.GetSession(ctx, sessionId)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPenaltyVariantFlow(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypePenalty, twoQuestionSet(), 3)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)

	session, err := fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)
	startedAt := *session.QuestionStartedAt

	// p1 answers correctly and kicks, p2 answers correctly but never kicks,
	// p3 answers wrong.
	fx.answer(t, sessionId, "p1", 0, startedAt.Add(3*time.Second))
	fx.answer(t, sessionId, "p2", 0, startedAt.Add(3*time.Second))
	fx.answer(t, sessionId, "p3", 2, startedAt.Add(3*time.Second))

	fx.waitEvent(t, "game:question", 1)
	fx.clock.Advance(20 * time.Second)
	fx.waitPhase(t, sessionId, models.PhasePenaltyKick)
	fx.waitEvent(t, "game:penalty_kick", 1)

	direction := game_constants.KickLeft
	_, err = fx.store.UpdatePlayer(ctx, sessionId, "p1", func(pl *models.Player) error {
		pl.PenaltyDirection = &direction
		return nil
	})
	require.NoError(t, err)

	fx.clock.Advance(game_constants.PENALTY_KICK_TIMEOUT)
	fx.waitPhase(t, sessionId, models.PhaseReveal)

	p1, err := fx.store.GetPlayer(ctx, sessionId, "p1")
	require.NoError(t, err)
	require.NotNil(t, p1.PenaltyResult)
	switch *p1.PenaltyResult {
	case game_constants.PenaltyGoal:
		// Quiz points flow only through a scored penalty: 1000 + round(500 * 17/20).
		assert.Equal(t, 1425, p1.Score)
		assert.Equal(t, 1, p1.Streak)
	case game_constants.PenaltySave:
		assert.Equal(t, 0, p1.Score)
		assert.Equal(t, 0, p1.Streak)
	default:
		t.Fatalf("unexpected outcome for a taken kick: %s", *p1.PenaltyResult)
	}

	p2, err := fx.store.GetPlayer(ctx, sessionId, "p2")
	require.NoError(t, err)
	require.NotNil(t, p2.PenaltyResult)
	assert.Equal(t, game_constants.PenaltyMiss, *p2.PenaltyResult)
	assert.Equal(t, 0, p2.Score)
	// A correct quiz answer still earns coins even on a missed kick.
	assert.Equal(t, 10, p2.CoinsEarned)

	p3, err := fx.store.GetPlayer(ctx, sessionId, "p3")
	require.NoError(t, err)
	require.NotNil(t, p3.PenaltyResult)
	assert.Equal(t, game_constants.PenaltyMiss, *p3.PenaltyResult)
	assert.Equal(t, 0, p3.Score)
	assert.Equal(t, 0, p3.CoinsEarned)
}

func TestResolvePenaltiesIsIdempotent(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypePenalty, twoQuestionSet(), 1)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.COUNTDOWN_DURATION)
	fx.waitPhase(t, sessionId, models.PhaseQuestion)
	fx.waitEvent(t, "game:question", 1)
	fx.clock.Advance(20 * time.Second)
	fx.waitPhase(t, sessionId, models.PhasePenaltyKick)

	fx.flow.ResolvePenalties(ctx, sessionId, 0)
	fx.flow.ResolvePenalties(ctx, sessionId, 0)

	assert.Equal(t, models.PhaseReveal, fx.phase(t, sessionId))
	assert.Len(t, fx.bcast.named("game:reveal"), 1)
}

func TestSweepDeletesAbandonedSessions(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 1)
	ctx := context.Background()

	gone := fx.clock.Now()
	_, err := fx.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		s.HostConnected = false
		s.HostDisconnectedAt = &gone
		return nil
	})
	require.NoError(t, err)

	// Inside the grace period the session survives.
	fx.clock.Advance(game_constants.HOST_DISCONNECT_GRACE - time.Second)
	fx.flow.sweepSessions(ctx)
	_, err = fx.store.GetSession(ctx, sessionId)
	require.NoError(t, err)

	fx.clock.Advance(2 * time.Second)
	fx.flow.sweepSessions(ctx)
	_, err = fx.store.GetSession(ctx, sessionId)
	assert.ErrorIs(t, err, store.ErrNotFound)

	ends := fx.bcast.named("game:end")
	require.Len(t, ends, 1)
	assert.Equal(t, "host_gone", ends[0].payload["reason"])
}

func TestSweepDeletesStalledLobbies(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 0)
	ctx := context.Background()

	fx.clock.Advance(game_constants.LOBBY_STALL_TIMEOUT + time.Minute)
	fx.flow.sweepSessions(ctx)

	_, err := fx.store.GetSession(ctx, sessionId)
	assert.ErrorIs(t, err, store.ErrNotFound)
	ends := fx.bcast.named("game:end")
	require.Len(t, ends, 1)
	assert.Equal(t, "lobby_stalled", ends[0].payload["reason"])
}

// A running game must not be swept no matter how old it is.
func TestSweepSparesActiveGames(t *testing.T) {
	fx, sessionId := newFixture(t, game_constants.GameTypeClassic, twoQuestionSet(), 1)
	ctx := context.Background()

	require.NoError(t, fx.flow.StartGame(ctx, sessionId))
	fx.clock.Advance(game_constants.LOBBY_STALL_TIMEOUT * 2)
	fx.flow.sweepSessions(ctx)

	_, err := fx.store.GetSession(ctx, sessionId)
	assert.NoError(t, err)
}
