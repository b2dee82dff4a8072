package storage

import (
	"testing"
	"time"

	"fodmate-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string) *model.Session {
	return &model.Session{
		ID:        id,
		Title:     "Groceries",
		Messages:  []model.Message{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestMemoryStorageSessionLifecycle(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.Init())

	require.NoError(t, store.CreateSession(newSession("s1")))

	session, err := store.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", session.Title)

	session.Title = "Banana run"
	require.NoError(t, store.UpdateSession(session))

	session, err = store.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "Banana run", session.Title)

	require.NoError(t, store.DeleteSession("s1"))
	_, err = store.GetSession("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStorageUnknownSession(t *testing.T) {
	store := NewMemoryStorage()

	_, err := store.GetSession("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = store.AddMessage("nope", &model.Message{ID: "m1"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = store.DeleteSession("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStorageMessagesOrdered(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.CreateSession(newSession("s1")))

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, store.AddMessage("s1", &model.Message{
			ID: content, SessionID: "s1", Role: "user", Content: content,
		}))
	}

	messages, err := store.GetMessages("s1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)
}
