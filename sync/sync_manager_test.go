package sync

import (
	"context"
	"testing"
	"time"

	models "Trivio/models/redis"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistCoins(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sm := NewSyncManager(db)

	mock.ExpectExec(`INSERT INTO game_profiles \(username, coins\)`).
		WithArgs("ana", 85).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = sm.PersistCoins(context.Background(), "ana", "set-1", 85)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistCoinsPropagatesDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sm := NewSyncManager(db)

	mock.ExpectExec(`INSERT INTO game_profiles`).
		WithArgs("ana", 85).
		WillReturnError(assert.AnError)

	err = sm.PersistCoins(context.Background(), "ana", "set-1", 85)
	assert.Error(t, err)
}

func TestHasCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sm := NewSyncManager(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM set_completions WHERE username = \$1 AND question_set_id = \$2`).
		WithArgs("ana", "set-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	done, err := sm.HasCompleted(context.Background(), "ana", "set-1")
	require.NoError(t, err)
	assert.True(t, done)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM set_completions`).
		WithArgs("bea", "set-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	done, err = sm.HasCompleted(context.Background(), "bea", "set-1")
	require.NoError(t, err)
	assert.False(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCompletion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sm := NewSyncManager(db)

	// Repeat completions hit ON CONFLICT DO NOTHING: zero rows is still fine.
	mock.ExpectExec(`INSERT INTO set_completions \(username, question_set_id\)`).
		WithArgs("ana", "set-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = sm.RecordCompletion(context.Background(), "ana", "set-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveChatMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sm := NewSyncManager(db)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO chat_messages \(channel, nickname, message, created_at\)`).
		WithArgs("lobby:s1", "ana", "good luck all", ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = sm.SaveChatMessage(context.Background(), &models.ChatMessage{
		Channel:   "lobby:s1",
		Nickname:  "ana",
		Message:   "good luck all",
		Timestamp: ts,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
