package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreach/outreach-chat/internal/models"
)

func newDirectory(t *testing.T, ft *fakeTransport) (*Directory, *Controller) {
	t.Helper()
	ctrl := NewController(ft, nil)
	return NewDirectory(ft, ctrl, "", nil), ctrl
}

func TestDirectory_LoadKeepsServerOrder(t *testing.T) {
	ft := newFakeTransport(
		models.Session{ID: "S2", Title: "Later"},
		models.Session{ID: "S1", Title: "Earlier"},
		models.Session{ID: "S3", Title: "Middle"},
	)
	dir, _ := newDirectory(t, ft)

	require.NoError(t, dir.Load(context.Background()))

	assert.Equal(t, []string{"S2", "S1", "S3"}, ids(dir.Sessions()))
	snap := dir.Snapshot()
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
}

func TestDirectory_LoadFailureKeepsPreviousList(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"}, models.Session{ID: "S2"})
	dir, _ := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))

	ft.listErr = errNetwork
	err := dir.Load(context.Background())

	assert.ErrorIs(t, err, errNetwork)
	assert.Equal(t, []string{"S1", "S2"}, ids(dir.Sessions()))
	snap := dir.Snapshot()
	assert.False(t, snap.Loading)
	assert.ErrorIs(t, snap.Err, errNetwork)
}

func TestDirectory_FirstLoadFailureLeavesEmptyList(t *testing.T) {
	ft := newFakeTransport()
	ft.listErr = errNetwork
	dir, _ := newDirectory(t, ft)

	require.Error(t, dir.Load(context.Background()))
	snap := dir.Snapshot()
	assert.Empty(t, snap.Sessions)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Loaded)
}

func TestDirectory_CreatePrependsAndActivates(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"}, models.Session{ID: "S2"})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))

	created, err := dir.Create(context.Background(), "Draft")
	require.NoError(t, err)

	assert.Equal(t, "S3", created.ID)
	assert.Equal(t, []string{"S3", "S1", "S2"}, ids(dir.Sessions()))
	assert.Equal(t, "Draft", dir.Sessions()[0].Title)

	active, ok := ctrl.Active()
	require.True(t, ok)
	assert.Equal(t, "S3", active.ID)
	assert.Empty(t, active.Messages)
	assert.Equal(t, StateViewing, ctrl.State())
}

func TestDirectory_CreateBlankTitleUsesDefault(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{name: "Empty", title: ""},
		{name: "Whitespace", title: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := newFakeTransport(models.Session{ID: "S1"})
			dir, ctrl := newDirectory(t, ft)
			require.NoError(t, dir.Load(context.Background()))

			created, err := dir.Create(context.Background(), tt.title)
			require.NoError(t, err)

			assert.Equal(t, DefaultTitle, ft.lastCreate.Title)
			assert.Equal(t, created.ID, dir.Sessions()[0].ID)
			assert.Equal(t, created.ID, ctrl.ActiveID())
		})
	}
}

func TestDirectory_CreateCustomDefaultTitle(t *testing.T) {
	ft := newFakeTransport()
	ctrl := NewController(ft, nil)
	dir := NewDirectory(ft, ctrl, "Untitled", nil)

	_, err := dir.Create(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", ft.lastCreate.Title)
}

func TestDirectory_CreateForContext(t *testing.T) {
	ft := newFakeTransport()
	dir, _ := newDirectory(t, ft)

	created, err := dir.CreateForContext(context.Background(), "Campaign help", "campaign", "c-42")
	require.NoError(t, err)
	assert.Equal(t, "campaign", created.ContextType)
	assert.Equal(t, "c-42", created.ContextID)
	assert.Equal(t, models.CreateSessionRequest{Title: "Campaign help", ContextType: "campaign", ContextID: "c-42"}, ft.lastCreate)
}

func TestDirectory_CreateFailureChangesNothing(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"}, models.Session{ID: "S2"})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))
	require.NoError(t, dir.Select(context.Background(), "S2"))

	ft.createErr = errNetwork
	_, err := dir.Create(context.Background(), "Draft")

	assert.ErrorIs(t, err, errNetwork)
	assert.Equal(t, []string{"S1", "S2"}, ids(dir.Sessions()))
	assert.Equal(t, "S2", ctrl.ActiveID())
}

func TestDirectory_SelectHydratesController(t *testing.T) {
	ft := newFakeTransport(models.Session{
		ID:       "S1",
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))

	require.NoError(t, dir.Select(context.Background(), "S1"))
	first, ok := ctrl.Active()
	require.True(t, ok)

	require.NoError(t, dir.Select(context.Background(), "S1"))
	second, _ := ctrl.Active()

	assert.Equal(t, first, second)
	assert.Equal(t, "hi", second.Messages[0].Content)
}

func TestDirectory_SelectUnknownIDSkipsTransport(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))

	err := dir.Select(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrUnknownSession)
	_, _, gets, _ := ft.calls()
	assert.Zero(t, gets)
	assert.Equal(t, StateEmpty, ctrl.State())
}

func TestDirectory_SelectFailureKeepsActiveSession(t *testing.T) {
	ft := newFakeTransport(
		models.Session{ID: "S1", Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}}},
		models.Session{ID: "S2"},
	)
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))
	require.NoError(t, dir.Select(context.Background(), "S1"))
	before := ctrl.Snapshot()

	ft.getErr = errNetwork
	err := dir.Select(context.Background(), "S2")

	assert.ErrorIs(t, err, errNetwork)
	after := ctrl.Snapshot()
	assert.Equal(t, before.Session, after.Session)
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, StateViewing, after.State)
}

func TestDirectory_LatestSelectionWins(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"}, models.Session{ID: "S2"})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))

	slow := make(chan struct{})
	ft.getGates["S1"] = slow

	done := make(chan error, 1)
	go func() { done <- dir.Select(context.Background(), "S1") }()

	require.Eventually(t, func() bool {
		_, _, gets, _ := ft.calls()
		return gets == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, dir.Select(context.Background(), "S2"))
	close(slow)
	require.NoError(t, <-done)

	assert.Equal(t, "S2", ctrl.ActiveID())
}

func TestDirectory_CreateSupersedesPendingSelection(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"}, models.Session{ID: "S2"})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))

	slow := make(chan struct{})
	ft.getGates["S1"] = slow

	done := make(chan error, 1)
	go func() { done <- dir.Select(context.Background(), "S1") }()

	require.Eventually(t, func() bool {
		_, _, gets, _ := ft.calls()
		return gets == 1
	}, time.Second, 5*time.Millisecond)

	created, err := dir.Create(context.Background(), "Draft")
	require.NoError(t, err)
	close(slow)
	require.NoError(t, <-done)

	assert.Equal(t, created.ID, ctrl.ActiveID())
	assert.Equal(t, []string{created.ID, "S1", "S2"}, ids(dir.Sessions()))
}

func TestDirectory_ResetSupersedesPendingSelection(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"}, models.Session{ID: "S2"})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))

	slow := make(chan struct{})
	ft.getGates["S1"] = slow

	done := make(chan error, 1)
	go func() { done <- dir.Select(context.Background(), "S1") }()

	require.Eventually(t, func() bool {
		_, _, gets, _ := ft.calls()
		return gets == 1
	}, time.Second, 5*time.Millisecond)

	ctrl.Reset()
	close(slow)
	require.NoError(t, <-done)

	assert.Equal(t, StateEmpty, ctrl.State())
	assert.Empty(t, ctrl.ActiveID())
}

func TestDirectory_SendRefreshesSummaryInPlace(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"}, models.Session{ID: "S2"})
	dir, ctrl := newDirectory(t, ft)
	require.NoError(t, dir.Load(context.Background()))
	require.NoError(t, dir.Select(context.Background(), "S2"))

	require.NoError(t, ctrl.SendMessage(context.Background(), "hello"))

	sessions := dir.Sessions()
	assert.Equal(t, []string{"S1", "S2"}, ids(sessions))
	assert.Len(t, sessions[1].Messages, 2)
	assert.Equal(t, "ok...", sessions[1].Preview())
}

func TestDirectory_SubscribersSeeLoadingTransitions(t *testing.T) {
	ft := newFakeTransport(models.Session{ID: "S1"})
	dir, _ := newDirectory(t, ft)

	var seen []DirectorySnapshot
	cancel := dir.Subscribe(func(s DirectorySnapshot) { seen = append(seen, s) })
	require.NoError(t, dir.Load(context.Background()))
	cancel()
	require.NoError(t, dir.Load(context.Background()))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Equal(t, []string{"S1"}, ids(seen[1].Sessions))
}
