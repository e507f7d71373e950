package game_flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/services/game"
	"Trivio/services/questions"
	socketio_types "Trivio/services/socket_io/types"
	"Trivio/services/store"
	gamesync "Trivio/sync"
	"Trivio/utils"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// Scheduled job kinds, part of the (sessionId, questionIndex, kind) key.
const (
	jobStartQuestion  = "start_question"
	jobEndQuestion    = "end_question"
	jobResolvePenalty = "resolve_penalties"
)

// errStaleTrigger marks a timer or early-resolution trigger that lost the
// race: the phase or question index moved on before it fired.
var errStaleTrigger = errors.New("stale trigger")

var missFlavors = []string{"wide_left", "wide_right", "over_the_bar", "hit_the_post"}

var kickDirections = []string{game_constants.KickLeft, game_constants.KickCenter, game_constants.KickRight}

type jobKey struct {
	sessionId     string
	questionIndex int
	kind          string
}

// GameFlow drives the timed countdown -> question -> (penalty) -> reveal ->
// leaderboard progression for every session. All timers are fire-once and
// guarded: a stale timer finding the phase or question index changed is a
// no-op, which is the sole idempotency mechanism against racing triggers.
type GameFlow struct {
	store     store.Store
	sio       socketio_types.Broadcaster
	questions questions.Provider
	ledger    gamesync.Ledger
	clock     clockwork.Clock

	jobsMu sync.Mutex
	jobs   map[jobKey]clockwork.Timer

	stopCleanup chan struct{}
}

func New(st store.Store, sio socketio_types.Broadcaster, provider questions.Provider,
	ledger gamesync.Ledger, clock clockwork.Clock) *GameFlow {
	return &GameFlow{
		store:       st,
		sio:         sio,
		questions:   provider,
		ledger:      ledger,
		clock:       clock,
		jobs:        make(map[jobKey]clockwork.Timer),
		stopCleanup: make(chan struct{}),
	}
}

// ---------------------------------------------------------------
// Job scheduling
// ---------------------------------------------------------------

func (f *GameFlow) schedule(key jobKey, delay time.Duration, fn func()) {
	f.jobsMu.Lock()
	defer f.jobsMu.Unlock()
	if old, exists := f.jobs[key]; exists {
		old.Stop()
	}
	f.jobs[key] = f.clock.AfterFunc(delay, func() {
		f.jobsMu.Lock()
		delete(f.jobs, key)
		f.jobsMu.Unlock()
		fn()
	})
}

// CancelSessionJobs stops every pending timer for a session. Called on
// session delete; the phase/index guard would neutralize the timers anyway,
// an explicit cancel just releases them earlier.
func (f *GameFlow) CancelSessionJobs(sessionId string) {
	f.jobsMu.Lock()
	defer f.jobsMu.Unlock()
	for key, timer := range f.jobs {
		if key.sessionId == sessionId {
			timer.Stop()
			delete(f.jobs, key)
		}
	}
}

// ---------------------------------------------------------------
// Host-driven entry points
// ---------------------------------------------------------------

// StartGame moves a lobby into the countdown for its first question.
func (f *GameFlow) StartGame(ctx context.Context, sessionId string) error {
	log.Printf("[GAME-START] Starting game for session %s", sessionId)

	set, err := f.loadQuestions(ctx, sessionId)
	if err != nil {
		return err
	}

	session, err := f.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		next, err := game.Transition(s.CurrentPhase, game.EventStartGame, nil)
		if err != nil {
			return err
		}
		s.CurrentPhase = next
		return nil
	})
	if err != nil {
		return err
	}

	f.beginCountdown(session, len(set.Questions))
	return nil
}

// ShowLeaderboard moves a revealed question to the standings screen.
func (f *GameFlow) ShowLeaderboard(ctx context.Context, sessionId string) error {
	log.Printf("[LEADERBOARD] Showing leaderboard for session %s", sessionId)

	session, err := f.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		next, err := game.Transition(s.CurrentPhase, game.EventShowLeaderboard, nil)
		if err != nil {
			return err
		}
		s.CurrentPhase = next
		return nil
	})
	if err != nil {
		return err
	}

	players, err := f.store.GetPlayers(ctx, sessionId)
	if err != nil {
		return err
	}

	f.sio.EmitToGroup(sessionId, "game:leaderboard", gin.H{
		"session_id":     sessionId,
		"question_index": session.CurrentQuestionIndex,
		"standings":      standingsPayload(players),
	})
	return nil
}

// AdvanceGame is the host's leaderboard exit: either the next question's
// countdown or the end of the game, decided by the question count.
func (f *GameFlow) AdvanceGame(ctx context.Context, sessionId string) error {
	session, err := f.store.GetSession(ctx, sessionId)
	if err != nil {
		return err
	}
	set, err := f.loadQuestions(ctx, sessionId)
	if err != nil {
		return err
	}

	tctx := &game.TransitionContext{
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		TotalQuestions:       len(set.Questions),
	}

	if session.CurrentQuestionIndex >= len(set.Questions)-1 {
		return f.endGame(ctx, sessionId, tctx)
	}
	return f.nextQuestion(ctx, sessionId, tctx, len(set.Questions))
}

func (f *GameFlow) nextQuestion(ctx context.Context, sessionId string, tctx *game.TransitionContext, totalQuestions int) error {
	log.Printf("[GAME-ADVANCE] Advancing session %s to question %d", sessionId, tctx.CurrentQuestionIndex+1)

	session, err := f.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		next, err := game.Transition(s.CurrentPhase, game.EventNextQuestion, tctx)
		if err != nil {
			return err
		}
		s.CurrentPhase = next
		s.CurrentQuestionIndex++
		s.QuestionStartedAt = nil
		return nil
	})
	if err != nil {
		return err
	}

	f.beginCountdown(session, totalQuestions)
	return nil
}

func (f *GameFlow) endGame(ctx context.Context, sessionId string, tctx *game.TransitionContext) error {
	log.Printf("[GAME-OVER] Ending game for session %s", sessionId)

	session, err := f.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		next, err := game.Transition(s.CurrentPhase, game.EventGameOver, tctx)
		if err != nil {
			return err
		}
		s.CurrentPhase = next
		return nil
	})
	if err != nil {
		return err
	}

	players, err := f.store.GetPlayers(ctx, sessionId)
	if err != nil {
		return err
	}
	standings := rankPlayers(players)

	// Coin persistence runs BEFORE the end event so a client reconnecting
	// right after game:end observes its final coin totals.
	finals := make([]gin.H, 0, len(standings))
	for _, entry := range standings {
		repeat, err := f.ledger.HasCompleted(ctx, entry.player.Nickname, session.QuestionSetId)
		if err != nil {
			log.Printf("[GAME-OVER-ERROR] Completion lookup failed for %s: %v (treating as first play)",
				entry.player.Nickname, err)
			repeat = false
		}
		coins := game.FinalCoins(entry.player.CoinsEarned, entry.rank, repeat)

		if err := f.ledger.PersistCoins(ctx, entry.player.Nickname, session.QuestionSetId, coins); err != nil {
			// Upstream failure: the game ends either way.
			log.Printf("[GAME-OVER-ERROR] Coin persist failed for %s: %v", entry.player.Nickname, err)
		}
		if err := f.ledger.RecordCompletion(ctx, entry.player.Nickname, session.QuestionSetId); err != nil {
			log.Printf("[GAME-OVER-ERROR] Completion record failed for %s: %v", entry.player.Nickname, err)
		}

		finals = append(finals, gin.H{
			"player_id": entry.player.PlayerId,
			"nickname":  entry.player.Nickname,
			"score":     entry.player.Score,
			"rank":      entry.rank,
			"coins":     coins,
		})
	}

	f.sio.EmitToGroup(sessionId, "game:end", gin.H{
		"session_id": sessionId,
		"standings":  finals,
	})

	f.CancelSessionJobs(sessionId)
	if err := f.store.DeleteSession(ctx, sessionId); err != nil {
		log.Printf("[GAME-OVER-ERROR] Error deleting finished session %s: %v", sessionId, err)
	}
	return nil
}

// ---------------------------------------------------------------
// Timed progression
// ---------------------------------------------------------------

func (f *GameFlow) beginCountdown(session *models.LiveSession, totalQuestions int) {
	questionIndex := session.CurrentQuestionIndex

	// Schedule BEFORE broadcasting so the countdown the clients see is never
	// longer than the real one.
	f.schedule(jobKey{session.Id, questionIndex, jobStartQuestion},
		game_constants.COUNTDOWN_DURATION, func() {
			f.startQuestion(context.Background(), session.Id, questionIndex)
		})

	f.sio.EmitToGroup(session.Id, "game:countdown", gin.H{
		"session_id":      session.Id,
		"question_index":  questionIndex,
		"total_questions": totalQuestions,
		"duration_ms":     game_constants.COUNTDOWN_DURATION.Milliseconds(),
	})
}

func (f *GameFlow) startQuestion(ctx context.Context, sessionId string, questionIndex int) {
	log.Printf("[QUESTION-START] Starting question %d for session %s", questionIndex, sessionId)

	set, err := f.loadQuestions(ctx, sessionId)
	if err != nil {
		log.Printf("[QUESTION-START-ERROR] Error loading questions: %v", err)
		return
	}
	if questionIndex >= len(set.Questions) {
		log.Printf("[QUESTION-START-ERROR] Question index %d out of range for session %s", questionIndex, sessionId)
		return
	}
	question := set.Questions[questionIndex]

	// Scratch fields are cleared BEFORE the phase flips to QUESTION so a
	// reconnecting client can never observe last question's answer as this
	// question's.
	players, err := f.store.GetPlayers(ctx, sessionId)
	if err != nil {
		log.Printf("[QUESTION-START-ERROR] Error getting players: %v", err)
		return
	}
	for _, p := range players {
		if _, err := f.store.UpdatePlayer(ctx, sessionId, p.PlayerId, func(pl *models.Player) error {
			pl.ClearScratch()
			return nil
		}); err != nil {
			log.Printf("[QUESTION-START-ERROR] Error clearing scratch for %s: %v", p.PlayerId, err)
		}
	}

	startedAt := f.clock.Now()
	_, err = f.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		if s.CurrentPhase != models.PhaseCountdown || s.CurrentQuestionIndex != questionIndex {
			return errStaleTrigger
		}
		next, err := game.Transition(s.CurrentPhase, game.EventCountdownComplete, nil)
		if err != nil {
			return err
		}
		s.CurrentPhase = next
		s.QuestionStartedAt = &startedAt
		return nil
	})
	if err == errStaleTrigger {
		log.Printf("[QUESTION-START-INFO] Session %s moved on before question %d started, skipping",
			sessionId, questionIndex)
		return
	} else if err != nil {
		log.Printf("[QUESTION-START-ERROR] Error starting question: %v", err)
		return
	}

	limit := time.Duration(question.TimeLimitMs) * time.Millisecond
	f.schedule(jobKey{sessionId, questionIndex, jobEndQuestion}, limit, func() {
		f.EndQuestion(context.Background(), sessionId, questionIndex)
	})

	// Answer key withheld: clients get prompt, options and timing only.
	f.sio.EmitToGroup(sessionId, "game:question", gin.H{
		"session_id":      sessionId,
		"question_index":  questionIndex,
		"total_questions": len(set.Questions),
		"kind":            question.Kind,
		"prompt":          question.Prompt,
		"options":         question.Options,
		"time_limit_ms":   question.TimeLimitMs,
	})
}

// EndQuestion closes a question's answering window. Exported because the
// all-players-answered early resolution calls it too; the phase/index guard
// makes whichever trigger fires second a no-op.
func (f *GameFlow) EndQuestion(ctx context.Context, sessionId string, questionIndex int) {
	session, err := f.store.GetSession(ctx, sessionId)
	if err == store.ErrNotFound {
		return // session deleted under a pending timer
	} else if err != nil {
		log.Printf("[QUESTION-END-ERROR] Error getting session: %v", err)
		return
	}

	event := game.EventTimeUp
	if session.GameType == game_constants.GameTypePenalty {
		event = game.EventPenaltyStart
	}

	session, err = f.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		if s.CurrentPhase != models.PhaseQuestion || s.CurrentQuestionIndex != questionIndex {
			return errStaleTrigger
		}
		next, err := game.Transition(s.CurrentPhase, event, nil)
		if err != nil {
			return err
		}
		s.CurrentPhase = next
		return nil
	})
	if err == errStaleTrigger {
		log.Printf("[QUESTION-END-INFO] Stale trigger for session %s question %d, skipping",
			sessionId, questionIndex)
		return
	} else if err != nil {
		log.Printf("[QUESTION-END-ERROR] Error ending question: %v", err)
		return
	}

	if session.CurrentPhase == models.PhasePenaltyKick {
		f.schedule(jobKey{sessionId, questionIndex, jobResolvePenalty},
			game_constants.PENALTY_KICK_TIMEOUT, func() {
				f.ResolvePenalties(context.Background(), sessionId, questionIndex)
			})
		f.sio.EmitToGroup(sessionId, "game:penalty_kick", gin.H{
			"session_id":     sessionId,
			"question_index": questionIndex,
			"timeout_ms":     game_constants.PENALTY_KICK_TIMEOUT.Milliseconds(),
		})
		return
	}

	f.revealClassic(ctx, session, questionIndex)
}

func (f *GameFlow) revealClassic(ctx context.Context, session *models.LiveSession, questionIndex int) {
	set, err := f.loadQuestions(ctx, session.Id)
	if err != nil {
		log.Printf("[REVEAL-ERROR] Error loading questions: %v", err)
		return
	}
	question := set.Questions[questionIndex]

	players, err := f.store.GetPlayers(ctx, session.Id)
	if err != nil {
		log.Printf("[REVEAL-ERROR] Error getting players: %v", err)
		return
	}

	tally := make(map[int]int)
	results := make([]gin.H, 0, len(players))
	for _, p := range players {
		if p.LastAnswerIndex != nil {
			tally[*p.LastAnswerIndex]++
		}
		var correct bool
		var points int
		updated, err := f.store.UpdatePlayer(ctx, session.Id, p.PlayerId, func(pl *models.Player) error {
			correct, points = scoreAnswer(pl, &question, session.QuestionStartedAt)
			pl.Score += points
			pl.Streak = game.NextStreak(pl.Streak, points)
			pl.CoinsEarned += game.QuestionCoins(correct, pl.Streak)
			return nil
		})
		if err != nil {
			log.Printf("[REVEAL-ERROR] Error scoring player %s: %v", p.PlayerId, err)
			continue
		}
		results = append(results, gin.H{
			"player_id": updated.PlayerId,
			"nickname":  updated.Nickname,
			"correct":   correct,
			"points":    points,
			"score":     updated.Score,
			"streak":    updated.Streak,
		})
	}

	f.sio.EmitToGroup(session.Id, "game:reveal", gin.H{
		"session_id":     session.Id,
		"question_index": questionIndex,
		"correct_index":  question.CorrectIndex,
		"correct_answer": question.Answer,
		"answer_tally":   tally,
		"results":        results,
	})
}

// ResolvePenalties settles the penalty-kick phase. Idempotent against both
// the scheduled timeout and the all-kicked early trigger via the phase guard.
func (f *GameFlow) ResolvePenalties(ctx context.Context, sessionId string, questionIndex int) {
	session, err := f.store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		if s.CurrentPhase != models.PhasePenaltyKick || s.CurrentQuestionIndex != questionIndex {
			return errStaleTrigger
		}
		next, err := game.Transition(s.CurrentPhase, game.EventPenaltyComplete, nil)
		if err != nil {
			return err
		}
		s.CurrentPhase = next
		return nil
	})
	if err == errStaleTrigger {
		log.Printf("[PENALTY-RESOLVE-INFO] Stale trigger for session %s question %d, skipping",
			sessionId, questionIndex)
		return
	} else if err == store.ErrNotFound {
		return
	} else if err != nil {
		log.Printf("[PENALTY-RESOLVE-ERROR] Error resolving penalties: %v", err)
		return
	}

	set, err := f.loadQuestions(ctx, sessionId)
	if err != nil {
		log.Printf("[PENALTY-RESOLVE-ERROR] Error loading questions: %v", err)
		return
	}
	question := set.Questions[questionIndex]

	players, err := f.store.GetPlayers(ctx, sessionId)
	if err != nil {
		log.Printf("[PENALTY-RESOLVE-ERROR] Error getting players: %v", err)
		return
	}

	results := make([]gin.H, 0, len(players))
	for _, p := range players {
		var outcome, flavor string
		var points int
		updated, err := f.store.UpdatePlayer(ctx, sessionId, p.PlayerId, func(pl *models.Player) error {
			quizCorrect, _ := scoreAnswer(pl, &question, session.QuestionStartedAt)
			switch {
			case !quizCorrect:
				// Wrong quiz answer: automatic miss, flavored for the client.
				outcome = game_constants.PenaltyMiss
				flavor = missFlavors[rand.Intn(len(missFlavors))]
			case pl.PenaltyDirection == nil:
				outcome = game_constants.PenaltyMiss
			default:
				// The goalie dives independently of the kick.
				goalie := kickDirections[rand.Intn(len(kickDirections))]
				if goalie == *pl.PenaltyDirection {
					outcome = game_constants.PenaltySave
				} else {
					outcome = game_constants.PenaltyGoal
				}
			}
			elapsed, limit := answerTiming(pl, &question, session.QuestionStartedAt)
			points = game.PenaltyScore(quizCorrect, outcome == game_constants.PenaltyGoal, elapsed, limit)
			pl.PenaltyResult = &outcome
			pl.Score += points
			pl.Streak = game.NextStreak(pl.Streak, points)
			pl.CoinsEarned += game.QuestionCoins(quizCorrect, pl.Streak)
			return nil
		})
		if err != nil {
			log.Printf("[PENALTY-RESOLVE-ERROR] Error scoring player %s: %v", p.PlayerId, err)
			continue
		}
		result := gin.H{
			"player_id": updated.PlayerId,
			"nickname":  updated.Nickname,
			"outcome":   outcome,
			"points":    points,
			"score":     updated.Score,
			"streak":    updated.Streak,
		}
		if flavor != "" {
			result["miss_flavor"] = flavor
		}
		results = append(results, result)
	}

	f.sio.EmitToGroup(sessionId, "game:reveal", gin.H{
		"session_id":     sessionId,
		"question_index": questionIndex,
		"correct_index":  question.CorrectIndex,
		"correct_answer": question.Answer,
		"results":        results,
	})
}

// ---------------------------------------------------------------
// Cleanup sweep
// ---------------------------------------------------------------

// StartCleanupSweep periodically deletes sessions whose host has been gone
// past the grace period and sessions stuck in the lobby past the stall
// timeout.
func (f *GameFlow) StartCleanupSweep() {
	go func() {
		ticker := f.clock.NewTicker(game_constants.CLEANUP_SWEEP_PERIOD)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				f.sweepSessions(context.Background())
			case <-f.stopCleanup:
				return
			}
		}
	}()
}

func (f *GameFlow) StopCleanupSweep() {
	close(f.stopCleanup)
}

func (f *GameFlow) sweepSessions(ctx context.Context) {
	sessions, err := f.store.ListSessions(ctx)
	if err != nil {
		log.Printf("[CLEANUP-ERROR] Error listing sessions: %v", err)
		return
	}

	now := f.clock.Now()
	for _, session := range sessions {
		reason := ""
		if !session.HostConnected && session.HostDisconnectedAt != nil &&
			now.Sub(*session.HostDisconnectedAt) > game_constants.HOST_DISCONNECT_GRACE {
			reason = "host_gone"
		} else if session.CurrentPhase == models.PhaseLobby &&
			now.Sub(session.CreatedAt) > game_constants.LOBBY_STALL_TIMEOUT {
			reason = "lobby_stalled"
		}
		if reason == "" {
			continue
		}

		log.Printf("[CLEANUP] Deleting session %s (%s)", session.Id, reason)
		f.sio.EmitToGroup(session.Id, "game:end", gin.H{
			"session_id": session.Id,
			"reason":     reason,
		})
		f.CancelSessionJobs(session.Id)
		if err := f.store.DeleteSession(ctx, session.Id); err != nil && err != store.ErrNotFound {
			log.Printf("[CLEANUP-ERROR] Error deleting session %s: %v", session.Id, err)
		}
	}
}

// ---------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------

func (f *GameFlow) loadQuestions(ctx context.Context, sessionId string) (*questions.QuestionSet, error) {
	session, err := f.store.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	set, err := f.questions.GetQuestionSet(ctx, session.QuestionSetId)
	if err != nil {
		return nil, utils.NewUpstreamError(fmt.Sprintf("question set %s unavailable", session.QuestionSetId))
	}
	return set, nil
}

// scoreAnswer evaluates a player's recorded answer against the question.
func scoreAnswer(p *models.Player, q *questions.Question, startedAt *time.Time) (correct bool, points int) {
	elapsed, limit := answerTiming(p, q, startedAt)
	if q.Kind == questions.KindText {
		if p.LastTextAnswer == nil {
			return false, 0
		}
		points = game.TextScore(*p.LastTextAnswer, q.Answer, elapsed, limit)
		return points > 0, points
	}
	if p.LastAnswerIndex == nil {
		return false, 0
	}
	correct = *p.LastAnswerIndex == q.CorrectIndex
	return correct, game.QuestionScore(correct, elapsed, limit)
}

func answerTiming(p *models.Player, q *questions.Question, startedAt *time.Time) (elapsedMs, limitMs int64) {
	limitMs = q.TimeLimitMs
	if p.LastAnswerTime == nil || startedAt == nil {
		return limitMs, limitMs
	}
	return p.LastAnswerTime.Sub(*startedAt).Milliseconds(), limitMs
}

type rankedPlayer struct {
	player models.Player
	rank   int
}

// rankPlayers sorts descending by score (join order breaks ties) and assigns
// 1-based ranks.
func rankPlayers(players []models.Player) []rankedPlayer {
	sorted := make([]models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	ranked := make([]rankedPlayer, len(sorted))
	for i, p := range sorted {
		ranked[i] = rankedPlayer{player: p, rank: i + 1}
	}
	return ranked
}

func standingsPayload(players []models.Player) []gin.H {
	ranked := rankPlayers(players)
	payload := make([]gin.H, len(ranked))
	for i, entry := range ranked {
		payload[i] = gin.H{
			"player_id": entry.player.PlayerId,
			"nickname":  entry.player.Nickname,
			"score":     entry.player.Score,
			"streak":    entry.player.Streak,
			"rank":      entry.rank,
			"connected": entry.player.Connected,
		}
	}
	return payload
}
