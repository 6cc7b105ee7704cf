package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreach/outreach-chat/internal/models"
	"github.com/outreach/outreach-chat/internal/repository"
)

var _ repository.SessionRepository = (*SessionRepository)(nil)

func newTestRepo() *SessionRepository {
	repo := NewSessionRepository()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return repo
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	s := &models.Session{UserID: "u1", Title: "Draft"}
	require.NoError(t, repo.Create(ctx, s))
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestSessionRepository_ScopedToUser(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	s := &models.Session{UserID: "u1", Title: "Mine"}
	require.NoError(t, repo.Create(ctx, s))

	_, err := repo.Get(ctx, "u2", s.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	_, err = repo.AppendMessages(ctx, "u2", s.ID, models.Message{Role: models.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "u2", s.ID), repository.ErrSessionNotFound)

	list, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionRepository_ListByRecentActivity(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	first := &models.Session{UserID: "u1", Title: "first"}
	second := &models.Session{UserID: "u1", Title: "second"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)

	_, err = repo.AppendMessages(ctx, "u1", first.ID, models.Message{Role: models.RoleUser, Content: "bump"})
	require.NoError(t, err)

	list, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "first", list[0].Title)
}

func TestSessionRepository_AppendKeepsOrder(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	s := &models.Session{UserID: "u1"}
	require.NoError(t, repo.Create(ctx, s))

	_, err := repo.AppendMessages(ctx, "u1", s.ID, models.Message{Role: models.RoleUser, Content: "one"})
	require.NoError(t, err)
	updated, err := repo.AppendMessages(ctx, "u1", s.ID,
		models.Message{Role: models.RoleUser, Content: "two"},
		models.Message{Role: models.RoleAssistant, Content: "three"},
	)
	require.NoError(t, err)

	require.Len(t, updated.Messages, 3)
	assert.Equal(t, "one", updated.Messages[0].Content)
	assert.Equal(t, "three", updated.Messages[2].Content)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestSessionRepository_ReturnedCopiesAreIsolated(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	s := &models.Session{UserID: "u1", Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}}}
	require.NoError(t, repo.Create(ctx, s))
	s.Messages[0].Content = "changed after create"

	got, err := repo.Get(ctx, "u1", s.ID)
	require.NoError(t, err)
	got.Messages[0].Content = "changed after get"

	again, err := repo.Get(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Messages[0].Content)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo := newTestRepo()
	ctx := context.Background()

	s := &models.Session{UserID: "u1"}
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.Delete(ctx, "u1", s.ID))

	_, err := repo.Get(ctx, "u1", s.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}
