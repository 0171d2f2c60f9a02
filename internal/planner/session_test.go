package planner

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type sessionHarness struct {
	s       *Session
	auth    *fakeAuthority
	notices *NoticeLog
	ctx     context.Context
	stop    func()
}

// startSession runs a session until the test ends. It does not wait for
// the initial load.
func startSession(t *testing.T, auth *fakeAuthority, surface Surface) *sessionHarness {
	t.Helper()
	notices := &NoticeLog{}
	s, err := NewSession(Options{
		Authority:   auth,
		Surface:     surface,
		Notifier:    notices,
		SyncTimeout: time.Second,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	runCtx, stopRun := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = s.Run(runCtx)
	}()

	stop := func() {
		stopRun()
		<-stopped
	}
	t.Cleanup(func() {
		stop()
		cancel()
	})
	return &sessionHarness{s: s, auth: auth, notices: notices, ctx: ctx, stop: stop}
}

func (h *sessionHarness) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, h.s.Settle(h.ctx))
}

func (h *sessionHarness) snapshot(t *testing.T) OrderSnapshot {
	t.Helper()
	snap, err := h.s.Snapshot(h.ctx)
	require.NoError(t, err)
	return snap
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(Options{})
	assert.Error(t, err)

	_, err = NewSession(Options{Authority: newFakeAuthority(nil), Columns: Columns{{ID: "a"}, {ID: "a"}}})
	assert.ErrorIs(t, err, ErrInvalidColumns)
}

func TestSession_InitialLoad(t *testing.T) {
	// Arrange
	a, b := item("A"), item("B")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}, ColumnFilming: {b}})
	surface := &fakeSurface{containers: columnContainers()}

	// Act
	h := startSession(t, auth, surface)
	h.settle(t)

	// Assert
	snap := h.snapshot(t)
	assert.Equal(t, ids(a), snap[ColumnIdea])
	assert.Equal(t, ids(b), snap[ColumnFilming])
	assert.Len(t, snap, 5)
	assert.Equal(t, 1, surface.binds())
	assert.Equal(t, 1, auth.fetches())
}

func TestSession_DropPersistsFullSnapshot(t *testing.T) {
	// Arrange
	x, y, z := item("X"), item("Y"), item("Z")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {x, y}, ColumnScripting: {z}})
	h := startSession(t, auth, nil)
	h.settle(t)

	// Act
	snap, err := h.s.Drop(h.ctx, DropEvent{ItemID: x.ID, From: ColumnIdea, To: ColumnScripting, TargetIndex: 0})
	require.NoError(t, err)
	h.settle(t)

	// Assert
	assert.Equal(t, ids(y), snap[ColumnIdea])
	assert.Equal(t, ids(x, z), snap[ColumnScripting])
	moves := auth.sentMoves()
	require.Len(t, moves, 1)
	assert.True(t, moves[0].Equal(snap))
	assert.True(t, h.snapshot(t).Equal(snap))
	assert.Equal(t, 1, auth.fetches())
	assert.Empty(t, h.notices.Drain())
}

func TestSession_NoOpDropIsSent(t *testing.T) {
	a, b := item("A"), item("B")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a, b}})
	h := startSession(t, auth, nil)
	h.settle(t)
	before := h.snapshot(t)

	_, err := h.s.Drop(h.ctx, DropEvent{ItemID: b.ID, From: ColumnIdea, To: ColumnIdea, TargetIndex: 1})
	require.NoError(t, err)
	h.settle(t)

	require.Len(t, auth.sentMoves(), 1)
	assert.True(t, auth.sentMoves()[0].Equal(before))
}

func TestSession_RejectedPersistSnapsBack(t *testing.T) {
	// Arrange
	a, b := item("A"), item("B")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a, b}})
	auth.moveHook = func(context.Context, OrderSnapshot) (MoveResult, error) {
		return MoveResult{Success: false, Message: "nope"}, nil
	}
	h := startSession(t, auth, nil)
	h.settle(t)

	// Act
	_, err := h.s.Drop(h.ctx, DropEvent{ItemID: a.ID, From: ColumnIdea, To: ColumnFilming, TargetIndex: 0})
	require.NoError(t, err)
	h.settle(t)

	// Assert
	snap := h.snapshot(t)
	assert.Equal(t, ids(a, b), snap[ColumnIdea])
	assert.Empty(t, snap[ColumnFilming])
	assert.Equal(t, 2, auth.fetches())
	assert.Equal(t, []Notice{{Level: LevelError, Message: "Error saving changes: nope"}}, h.notices.Drain())
}

func TestSession_TransportFailureReloads(t *testing.T) {
	a := item("A")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}})
	auth.moveHook = func(context.Context, OrderSnapshot) (MoveResult, error) {
		return MoveResult{}, fmt.Errorf("%w: connection reset", ErrTransport)
	}
	h := startSession(t, auth, nil)
	h.settle(t)

	_, err := h.s.MoveAdjacent(h.ctx, a.ID, Next)
	require.NoError(t, err)
	h.settle(t)

	assert.Equal(t, ids(a), h.snapshot(t)[ColumnIdea])
	assert.Equal(t, 2, auth.fetches())
	assert.Equal(t, []Notice{{Level: LevelError, Message: "A network error occurred while saving the changes."}}, h.notices.Drain())
}

func TestSession_DriftTriggersReload(t *testing.T) {
	// Arrange
	a := item("A")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}})
	h := startSession(t, auth, nil)
	h.settle(t)
	before := h.snapshot(t)

	// Act
	_, err := h.s.Drop(h.ctx, DropEvent{ItemID: uuid.New(), From: ColumnIdea, To: ColumnFilming})
	h.settle(t)

	// Assert
	assert.ErrorIs(t, err, ErrDrift)
	assert.True(t, before.Equal(h.snapshot(t)))
	assert.Equal(t, 2, auth.fetches())
	assert.Empty(t, auth.sentMoves())
}

func TestSession_ReloadsCoalesce(t *testing.T) {
	// Arrange
	a := item("A")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}})
	gate := make(chan struct{})
	auth.fetchHook = func(ctx context.Context) (RemoteBoard, error) {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		auth.mu.Lock()
		defer auth.mu.Unlock()
		return auth.remote(), nil
	}
	h := startSession(t, auth, nil)

	// Act: the initial load is blocked, every drift asks for another.
	for i := 0; i < 3; i++ {
		_, err := h.s.Drop(h.ctx, DropEvent{ItemID: uuid.New(), From: ColumnIdea, To: ColumnIdea})
		assert.ErrorIs(t, err, ErrDrift)
	}
	close(gate)
	h.settle(t)

	// Assert
	assert.Equal(t, 2, auth.fetches())
	assert.Equal(t, ids(a), h.snapshot(t)[ColumnIdea])
}

func TestSession_DropDuringReloadIsNotOverwritten(t *testing.T) {
	// Arrange
	a, b := item("A"), item("B")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a, b}})
	gate := make(chan struct{})
	var fetched atomic.Int32
	auth.fetchHook = func(ctx context.Context) (RemoteBoard, error) {
		auth.mu.Lock()
		remote := auth.remote()
		auth.mu.Unlock()
		if fetched.Add(1) == 2 {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return remote, nil
	}
	auth.moveHook = func(_ context.Context, snap OrderSnapshot) (MoveResult, error) {
		auth.store(snap)
		return MoveResult{Success: true}, nil
	}
	h := startSession(t, auth, nil)
	h.settle(t)

	// Act: a drift starts a reload whose fetch reads the old board, then a
	// real drop is saved before that fetch returns.
	_, err := h.s.Drop(h.ctx, DropEvent{ItemID: uuid.New(), From: ColumnIdea, To: ColumnIdea})
	require.ErrorIs(t, err, ErrDrift)
	require.Eventually(t, func() bool { return fetched.Load() == 2 }, testTimeout, time.Millisecond)

	_, err = h.s.Drop(h.ctx, DropEvent{ItemID: a.ID, From: ColumnIdea, To: ColumnFilming})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(auth.sentMoves()) == 1 }, testTimeout, time.Millisecond)
	close(gate)
	h.settle(t)

	// Assert
	snap := h.snapshot(t)
	assert.Equal(t, ids(b), snap[ColumnIdea])
	assert.Equal(t, ids(a), snap[ColumnFilming])
	assert.Equal(t, 3, auth.fetches())
	assert.Empty(t, h.notices.Drain())
}

func TestSession_StaleConfirmationDoesNotRewind(t *testing.T) {
	// Arrange
	a, b := item("A"), item("B")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a, b}})
	release := make(chan struct{})
	var calls atomic.Int32
	auth.moveHook = func(ctx context.Context, _ OrderSnapshot) (MoveResult, error) {
		if calls.Add(1) == 1 {
			select {
			case <-release:
			case <-ctx.Done():
				return MoveResult{}, ctx.Err()
			}
		}
		return MoveResult{Success: true}, nil
	}
	h := startSession(t, auth, nil)
	h.settle(t)

	// Act
	_, err := h.s.Drop(h.ctx, DropEvent{ItemID: a.ID, From: ColumnIdea, To: ColumnScripting})
	require.NoError(t, err)
	latest, err := h.s.Drop(h.ctx, DropEvent{ItemID: b.ID, From: ColumnIdea, To: ColumnScripting, TargetIndex: 0})
	require.NoError(t, err)
	close(release)
	h.settle(t)

	// Assert
	assert.True(t, latest.Equal(h.snapshot(t)))
	assert.Equal(t, ids(b, a), h.snapshot(t)[ColumnScripting])
	assert.Len(t, auth.sentMoves(), 2)
	assert.Equal(t, 1, auth.fetches())
}

func TestSession_RecoverIsIdempotent(t *testing.T) {
	a, b, c := item("A"), item("B"), item("C")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a, b}, ColumnEditing: {c}})
	h := startSession(t, auth, nil)
	h.settle(t)

	require.NoError(t, h.s.Recover(h.ctx))
	first := h.snapshot(t)
	var firstItems []Item
	require.NoError(t, h.s.View(h.ctx, func(v BoardView) { firstItems = v.Items(ColumnIdea) }))

	require.NoError(t, h.s.Recover(h.ctx))
	second := h.snapshot(t)
	var secondItems []Item
	require.NoError(t, h.s.View(h.ctx, func(v BoardView) { secondItems = v.Items(ColumnIdea) }))

	assert.True(t, first.Equal(second))
	assert.Equal(t, firstItems, secondItems)
}

func TestSession_FailedLoadKeepsBoard(t *testing.T) {
	a := item("A")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}})
	h := startSession(t, auth, nil)
	h.settle(t)

	auth.mu.Lock()
	auth.fetchHook = func(context.Context) (RemoteBoard, error) {
		return nil, fmt.Errorf("%w: timeout", ErrTransport)
	}
	auth.mu.Unlock()

	err := h.s.Recover(h.ctx)

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, ids(a), h.snapshot(t)[ColumnIdea])
	assert.Equal(t, []Notice{{Level: LevelError, Message: "Failed to load planner data. Please refresh."}}, h.notices.Drain())
}

func TestSession_MoveAdjacentAtEdgeNotifies(t *testing.T) {
	a := item("A")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}})
	h := startSession(t, auth, nil)
	h.settle(t)

	_, err := h.s.MoveAdjacent(h.ctx, a.ID, Previous)
	h.settle(t)

	assert.ErrorIs(t, err, ErrNoAdjacentColumn)
	assert.Equal(t, []Notice{{Level: LevelInfo, Message: "There are no more columns to move to."}}, h.notices.Drain())
	assert.Empty(t, auth.sentMoves())
	assert.Equal(t, 1, auth.fetches())
}

func TestSession_CreateUpdateDelete(t *testing.T) {
	// Arrange
	a := item("A")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}})
	surface := &fakeSurface{containers: columnContainers()}
	h := startSession(t, auth, surface)
	h.settle(t)

	// Act: create
	created, err := h.s.CreateItem(h.ctx, "  Desk tour  ", nil)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "Desk tour", created.Title)
	assert.Equal(t, ids(a, created), h.snapshot(t)[ColumnIdea])

	// Act: update
	notes := "b-roll"
	updated, err := h.s.UpdateItem(h.ctx, created.ID, ItemUpdate{Title: "Desk tour 2026", Notes: &notes})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "Desk tour 2026", updated.Label())
	var got Item
	require.NoError(t, h.s.View(h.ctx, func(v BoardView) { got = v.Items(ColumnIdea)[1] }))
	assert.Equal(t, &notes, got.Notes)

	// Act: delete
	require.NoError(t, h.s.DeleteItem(h.ctx, a.ID))
	h.settle(t)

	// Assert
	assert.Equal(t, ids(created), h.snapshot(t)[ColumnIdea])
	assert.Empty(t, auth.sentMoves())
	assert.Equal(t, 1, auth.fetches())
	assert.Equal(t, 3, surface.binds())
}

func TestSession_RemoteFailuresNotify(t *testing.T) {
	a := item("A")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a}})
	auth.createErr = fmt.Errorf("%w: refused", ErrTransport)
	auth.deleteErr = fmt.Errorf("planner api 404: Idea not found")
	h := startSession(t, auth, nil)
	h.settle(t)

	_, err := h.s.CreateItem(h.ctx, "Vlog", nil)
	assert.ErrorIs(t, err, ErrTransport)
	err = h.s.DeleteItem(h.ctx, a.ID)
	assert.Error(t, err)
	_, err = h.s.CreateItem(h.ctx, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	assert.Equal(t, []Notice{
		{Level: LevelError, Message: "A network error occurred while adding idea."},
		{Level: LevelError, Message: "Error deleting idea: planner api 404: Idea not found"},
	}, h.notices.Drain())
	assert.Equal(t, ids(a), h.snapshot(t)[ColumnIdea])
}

func TestSession_UpdateOfMissingItemReloads(t *testing.T) {
	auth := newFakeAuthority(nil)
	h := startSession(t, auth, nil)
	h.settle(t)

	_, err := h.s.UpdateItem(h.ctx, uuid.New(), ItemUpdate{Title: "Ghost"})
	require.NoError(t, err)
	h.settle(t)

	assert.Equal(t, 2, auth.fetches())
}

func TestSession_StaleBindingDropIgnored(t *testing.T) {
	// Arrange
	a, b := item("A"), item("B")
	auth := newFakeAuthority(map[ColumnID][]Item{ColumnIdea: {a, b}})
	surface := &fakeSurface{containers: columnContainers()}
	h := startSession(t, auth, surface)
	h.settle(t)

	// Act: a drop through the live binding rebinds the surface
	surface.binding(0)(DropEvent{ItemID: a.ID, From: ColumnIdea, To: ColumnFilming})
	h.settle(t)
	surface.binding(0)(DropEvent{ItemID: b.ID, From: ColumnIdea, To: ColumnFilming})
	h.settle(t)

	// Assert
	snap := h.snapshot(t)
	assert.Equal(t, ids(b), snap[ColumnIdea])
	assert.Equal(t, ids(a), snap[ColumnFilming])
	assert.Len(t, auth.sentMoves(), 1)
	assert.Equal(t, 2, surface.binds())
}

func TestSession_ClosedAfterRun(t *testing.T) {
	h := startSession(t, newFakeAuthority(nil), nil)
	h.settle(t)

	h.stop()

	_, err := h.s.Snapshot(h.ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
