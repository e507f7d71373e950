package handlers

import (
	"context"
	"strings"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/services/game"
	"Trivio/services/questions"
	"Trivio/services/ratelimit"
	socketio_types "Trivio/services/socket_io/types"
	"Trivio/utils"

	"github.com/gin-gonic/gin"
)

// answerContext loads and checks everything a submission needs: the caller's
// seat, the session in a compatible phase, and the live question.
func answerContext(ctx context.Context, d *Deps, client socketio_types.Conn,
	sessionId, wantPhase string) (*models.Player, *models.LiveSession, *questions.Question, error) {

	session, err := d.Store.GetSession(ctx, sessionId)
	if err != nil {
		return nil, nil, nil, storeError(err, "Session not found")
	}
	if session.CurrentPhase != wantPhase {
		return nil, nil, nil, utils.NewStateConflictError("Submissions are closed")
	}
	player, err := findPlayerByConnection(ctx, d, sessionId, string(client.Id()))
	if err != nil {
		return nil, nil, nil, err
	}

	set, err := d.Questions.GetQuestionSet(ctx, session.QuestionSetId)
	if err != nil {
		return nil, nil, nil, utils.NewUpstreamError("Could not load the question")
	}
	if session.CurrentQuestionIndex >= len(set.Questions) {
		return nil, nil, nil, utils.NewUpstreamError("Could not load the question")
	}
	question := set.Questions[session.CurrentQuestionIndex]
	return player, session, &question, nil
}

// quizCorrect reports whether a player's recorded answer matches the key.
func quizCorrect(p *models.Player, q *questions.Question) bool {
	if q.Kind == questions.KindText {
		return p.LastTextAnswer != nil &&
			game.NormalizeAnswer(*p.LastTextAnswer) == game.NormalizeAnswer(q.Answer)
	}
	return p.LastAnswerIndex != nil && *p.LastAnswerIndex == q.CorrectIndex
}

// HandleSubmitAnswer records a choice answer during the answering window.
// First submission wins; the answer key is never echoed back.
func HandleSubmitAnswer(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		if err := checkRateLimit(d, string(client.Id()), ratelimit.SubmitAnswer); err != nil {
			emitError(client, err)
			return
		}

		payload := utils.ParsePayload(args)
		sessionId, _ := utils.GetString(payload, "session_id")
		answerIndex, ok := utils.GetInt(payload, "answer_index")
		if sessionId == "" || !ok {
			emitError(client, utils.NewValidationError("session_id and answer_index are required"))
			return
		}

		player, session, question, err := answerContext(ctx, d, client, sessionId, models.PhaseQuestion)
		if err != nil {
			emitError(client, err)
			return
		}
		if question.Kind != questions.KindChoice {
			emitError(client, utils.NewValidationError("This question takes a text answer"))
			return
		}
		if answerIndex < 0 || answerIndex >= len(question.Options) {
			emitError(client, utils.NewValidationError("answer_index is out of range"))
			return
		}

		now := d.Clock.Now()
		questionIndex := session.CurrentQuestionIndex
		if _, err := d.Store.UpdatePlayer(ctx, sessionId, player.PlayerId, func(pl *models.Player) error {
			if pl.HasAnswered() {
				return utils.NewStateConflictError("You already answered this question")
			}
			pl.LastAnswerIndex = &answerIndex
			pl.LastAnswerTime = &now
			return nil
		}); err != nil {
			emitError(client, err)
			return
		}

		client.Emit("answer:ack", gin.H{
			"session_id":     sessionId,
			"question_index": questionIndex,
		})
		maybeResolveEarly(ctx, d, session, questionIndex)
	}
}

// HandleSubmitTextAnswer records a free-text answer. Matching against the
// key is case and whitespace insensitive, done at reveal time.
func HandleSubmitTextAnswer(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		if err := checkRateLimit(d, string(client.Id()), ratelimit.SubmitAnswer); err != nil {
			emitError(client, err)
			return
		}

		payload := utils.ParsePayload(args)
		sessionId, _ := utils.GetString(payload, "session_id")
		text, _ := utils.GetString(payload, "answer_text")
		sessionId = strings.TrimSpace(sessionId)
		if sessionId == "" || strings.TrimSpace(text) == "" {
			emitError(client, utils.NewValidationError("session_id and answer_text are required"))
			return
		}
		if len(text) > 200 {
			emitError(client, utils.NewValidationError("Answer is too long"))
			return
		}

		player, session, question, err := answerContext(ctx, d, client, sessionId, models.PhaseQuestion)
		if err != nil {
			emitError(client, err)
			return
		}
		if question.Kind != questions.KindText {
			emitError(client, utils.NewValidationError("This question takes a choice answer"))
			return
		}

		now := d.Clock.Now()
		questionIndex := session.CurrentQuestionIndex
		if _, err := d.Store.UpdatePlayer(ctx, sessionId, player.PlayerId, func(pl *models.Player) error {
			if pl.HasAnswered() {
				return utils.NewStateConflictError("You already answered this question")
			}
			pl.LastTextAnswer = &text
			pl.LastAnswerTime = &now
			return nil
		}); err != nil {
			emitError(client, err)
			return
		}

		client.Emit("answer:ack", gin.H{
			"session_id":     sessionId,
			"question_index": questionIndex,
		})
		maybeResolveEarly(ctx, d, session, questionIndex)
	}
}

// maybeResolveEarly closes the answering window as soon as every connected
// player has answered. Classic games only; the penalty variant always runs
// its full timer so the kick phase starts on a predictable clock.
func maybeResolveEarly(ctx context.Context, d *Deps, session *models.LiveSession, questionIndex int) {
	if session.GameType != game_constants.GameTypeClassic {
		return
	}
	players, err := d.Store.GetPlayers(ctx, session.Id)
	if err != nil {
		return
	}
	for _, p := range players {
		if p.Connected && !p.HasAnswered() {
			return
		}
	}
	d.Flow.EndQuestion(ctx, session.Id, questionIndex)
}

// HandleSubmitKick records a penalty-kick direction. Only players whose quiz
// answer was correct get a kick, and only one.
func HandleSubmitKick(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		payload := utils.ParsePayload(args)
		sessionId, _ := utils.GetString(payload, "session_id")
		direction, _ := utils.GetString(payload, "direction")
		if sessionId == "" {
			emitError(client, utils.NewValidationError("session_id is required"))
			return
		}
		switch direction {
		case game_constants.KickLeft, game_constants.KickCenter, game_constants.KickRight:
		default:
			emitError(client, utils.NewValidationError("direction must be left, center or right"))
			return
		}

		player, session, question, err := answerContext(ctx, d, client, sessionId, models.PhasePenaltyKick)
		if err != nil {
			emitError(client, err)
			return
		}
		if session.GameType != game_constants.GameTypePenalty {
			emitError(client, utils.NewStateConflictError("This game has no penalty kicks"))
			return
		}

		questionIndex := session.CurrentQuestionIndex
		if _, err := d.Store.UpdatePlayer(ctx, sessionId, player.PlayerId, func(pl *models.Player) error {
			if pl.PenaltyDirection != nil {
				return utils.NewStateConflictError("You already took your kick")
			}
			if !quizCorrect(pl, question) {
				return utils.NewStateConflictError("Only a correct answer earns a kick")
			}
			pl.PenaltyDirection = &direction
			return nil
		}); err != nil {
			emitError(client, err)
			return
		}

		client.Emit("kick:ack", gin.H{
			"session_id":     sessionId,
			"question_index": questionIndex,
			"direction":      direction,
		})

		// Settle early once every connected, kick-eligible player has kicked.
		players, err := d.Store.GetPlayers(ctx, sessionId)
		if err != nil {
			return
		}
		for _, p := range players {
			if p.Connected && quizCorrect(&p, question) && p.PenaltyDirection == nil {
				return
			}
		}
		d.Flow.ResolvePenalties(ctx, sessionId, questionIndex)
	}
}
