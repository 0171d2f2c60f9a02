package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options configures a Session. Authority is required.
type Options struct {
	Columns          Columns
	Authority        Authority
	Surface          Surface
	Notifier         Notifier
	SyncTimeout      time.Duration
	RebindRetryDelay time.Duration
}

// Session owns one board and serializes every change to it on a single
// goroutine (Run). Remote calls run on their own goroutines and report
// back to that loop, so the board never waits on the network.
//
// Persist results never mutate the board. Any failed persist, and any
// drift, triggers a full reload; reloads requested while one is running
// collapse into a single follow-up. A save issued while a fetch is running
// also earns a follow-up, started once no save is in flight.
type Session struct {
	columns    Columns
	board      *Board
	engine     *Engine
	dispatcher *Dispatcher
	reconciler *Reconciler
	binder     *Binder
	authority  Authority
	notifier   Notifier

	inbox chan func()
	done  chan struct{}
	calls errgroup.Group

	// owned by the loop goroutine
	runCtx   context.Context
	seq      uint64
	inflight int
	reload   reloadState
	settlers []chan struct{}
}

// reloadState tracks one reload cycle. A follow-up requested because a
// persist overlapped the fetch is held back (deferred) until no persist is
// in flight, so it reads what the authority stored.
type reloadState struct {
	running  bool
	again    bool
	deferred bool
	waiting  []chan error
	queued   []chan error
}

func NewSession(opts Options) (*Session, error) {
	if opts.Authority == nil {
		return nil, errors.New("planner: session needs an authority")
	}
	if opts.Columns == nil {
		opts.Columns = DefaultColumns()
	}
	if err := opts.Columns.Validate(); err != nil {
		return nil, err
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}

	s := &Session{
		columns:   opts.Columns,
		board:     NewBoard(opts.Columns),
		authority: opts.Authority,
		notifier:  opts.Notifier,
		inbox:     make(chan func(), 64),
		done:      make(chan struct{}),
	}
	s.engine = NewEngine(s.board)
	s.binder = NewBinder(opts.Surface, func(ev DropEvent) {
		s.post(func() { _, _ = s.applyDrop(ev) })
	}, opts.RebindRetryDelay)
	s.binder.after = func(d time.Duration, fn func()) {
		time.AfterFunc(d, func() { s.post(fn) })
	}
	s.binder.onError = func(err error) {
		s.notifier.Notify(Notice{Level: LevelError, Message: "Drag and drop is unavailable: " + err.Error()})
	}
	s.dispatcher = NewDispatcher(opts.Authority, opts.Notifier, opts.SyncTimeout, func(out Outcome) {
		s.post(func() { s.requestReload("persist "+out.Kind.String(), nil) })
	})
	s.reconciler = NewReconciler(s.board, opts.Authority, s.binder)
	return s, nil
}

// Run loads the board and processes work until ctx is done. It waits for
// remote calls still in flight before returning.
func (s *Session) Run(ctx context.Context) error {
	s.runCtx = ctx
	s.requestReload("initial load", nil)
	for {
		select {
		case <-ctx.Done():
			close(s.done)
			_ = s.calls.Wait()
			return nil
		case fn := <-s.inbox:
			fn()
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case s.inbox <- func() { fn(); close(finished) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// post queues fn for the loop. Never call it from the loop itself.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

// Drop applies a drop event and hands the resulting snapshot to the
// dispatcher. It returns once the local board has changed, not when the
// authority has answered.
func (s *Session) Drop(ctx context.Context, ev DropEvent) (OrderSnapshot, error) {
	var (
		snap OrderSnapshot
		err  error
	)
	if e := s.do(ctx, func() { snap, err = s.applyDrop(ev) }); e != nil {
		return nil, e
	}
	return snap, err
}

// MoveAdjacent moves an item to the end of the neighbouring column.
func (s *Session) MoveAdjacent(ctx context.Context, id uuid.UUID, dir Direction) (OrderSnapshot, error) {
	var (
		snap OrderSnapshot
		err  error
	)
	e := s.do(ctx, func() {
		snap, err = s.engine.MoveAdjacent(id, dir)
		switch {
		case errors.Is(err, ErrNoAdjacentColumn):
			s.notifier.Notify(Notice{Level: LevelInfo, Message: "There are no more columns to move to."})
		case err != nil:
			s.driftDetected(err)
		default:
			s.rebind()
			s.persist(snap)
		}
	})
	if e != nil {
		return nil, e
	}
	return snap, err
}

func (s *Session) applyDrop(ev DropEvent) (OrderSnapshot, error) {
	snap, err := s.engine.Drop(ev)
	if err != nil {
		s.driftDetected(err)
		return nil, err
	}
	s.rebind()
	s.persist(snap)
	return snap, nil
}

// CreateItem asks the authority for a new item and appends it to the first column.
func (s *Session) CreateItem(ctx context.Context, title string, notes *string) (Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Item{}, ErrEmptyTitle
	}
	first := s.columns.First()
	item, err := s.authority.CreateItem(ctx, NewItem{Title: title, Notes: notes, Status: first})
	if err != nil {
		s.remoteFailed("adding idea", err)
		return Item{}, err
	}
	err = s.do(ctx, func() {
		if aerr := s.engine.Append(first, item); aerr != nil {
			s.driftDetected(aerr)
			return
		}
		s.rebind()
	})
	return item, err
}

// UpdateItem saves new content for an item. Its column does not change.
func (s *Session) UpdateItem(ctx context.Context, id uuid.UUID, upd ItemUpdate) (Item, error) {
	upd = upd.Normalize()
	if upd.Title == "" {
		return Item{}, ErrEmptyTitle
	}
	item, err := s.authority.UpdateItem(ctx, id, upd)
	if err != nil {
		s.remoteFailed("updating idea", err)
		return Item{}, err
	}
	err = s.do(ctx, func() {
		if rerr := s.engine.Replace(item); rerr != nil {
			slog.Warn("updated item not on the board", "item", id)
			s.driftDetected(rerr)
		}
	})
	return item, err
}

// DeleteItem deletes an item remotely, then removes it from the board.
func (s *Session) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.authority.DeleteItem(ctx, id); err != nil {
		s.remoteFailed("deleting idea", err)
		return err
	}
	return s.do(ctx, func() {
		if _, err := s.engine.Delete(id); err != nil {
			slog.Debug("deleted item was not on the board", "item", id)
			return
		}
		s.rebind()
	})
}

// Recover reloads the board from the authority and waits for the result.
func (s *Session) Recover(ctx context.Context) error {
	result := make(chan error, 1)
	if err := s.do(ctx, func() { s.requestReload("recover", result) }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// View calls fn on the loop with a read-only board.
func (s *Session) View(ctx context.Context, fn func(BoardView)) error {
	return s.do(ctx, func() { fn(s.board) })
}

// Snapshot returns the current order.
func (s *Session) Snapshot(ctx context.Context) (OrderSnapshot, error) {
	var snap OrderSnapshot
	err := s.View(ctx, func(v BoardView) { snap = v.Snapshot() })
	return snap, err
}

// Settle waits until no persist or reload is in flight.
func (s *Session) Settle(ctx context.Context) error {
	idle := make(chan struct{})
	if err := s.do(ctx, func() {
		s.settlers = append(s.settlers, idle)
		s.checkSettled()
	}); err != nil {
		return err
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) persist(snap OrderSnapshot) {
	s.seq++
	seq := s.seq
	s.inflight++
	if s.reload.running && !s.reload.deferred {
		// The fetch in flight may predate this snapshot.
		s.reload.again = true
	}
	ctx := s.runCtx
	s.calls.Go(func() error {
		out := s.dispatcher.Persist(ctx, snap)
		s.post(func() { s.persisted(seq, out) })
		return nil
	})
}

// persisted never touches the board. Failures were already routed to a
// reload by the dispatcher, and a confirmation is never authoritative. The
// last answer releases a reload held back for it.
func (s *Session) persisted(seq uint64, out Outcome) {
	s.inflight--
	if out.OK() && seq < s.seq {
		slog.Debug("late confirmation for older snapshot", "seq", seq, "latest", s.seq)
	}
	if s.inflight == 0 && s.reload.deferred {
		s.reload.deferred = false
		s.startReload("after pending saves")
		return
	}
	s.checkSettled()
}

func (s *Session) requestReload(reason string, result chan error) {
	if s.reload.deferred {
		// The held-back reload has not fetched yet and will cover this request.
		if result != nil {
			s.reload.waiting = append(s.reload.waiting, result)
		}
		return
	}
	if s.reload.running {
		s.reload.again = true
		if result != nil {
			s.reload.queued = append(s.reload.queued, result)
		}
		return
	}
	if result != nil {
		s.reload.waiting = append(s.reload.waiting, result)
	}
	s.startReload(reason)
}

func (s *Session) startReload(reason string) {
	s.reload.running = true
	slog.Info("reloading planner board", "reason", reason)
	ctx := s.runCtx
	s.calls.Go(func() error {
		remote, err := s.reconciler.fetch(ctx)
		s.post(func() { s.reloaded(remote, err) })
		return nil
	})
}

func (s *Session) reloaded(remote RemoteBoard, err error) {
	s.reload.running = false
	if err != nil {
		slog.Error("error loading planner data", "error", err)
		s.notifier.Notify(Notice{Level: LevelError, Message: "Failed to load planner data. Please refresh."})
	} else if rerr := s.reconciler.apply(remote); rerr != nil {
		s.notifier.Notify(Notice{Level: LevelError, Message: "Drag and drop is unavailable: " + rerr.Error()})
	}
	for _, w := range s.reload.waiting {
		w <- err
	}
	s.reload.waiting = nil

	if s.reload.again {
		s.reload.again = false
		s.reload.waiting, s.reload.queued = s.reload.queued, nil
		if s.inflight > 0 {
			s.reload.running = true
			s.reload.deferred = true
			return
		}
		s.startReload("coalesced")
		return
	}
	s.checkSettled()
}

func (s *Session) driftDetected(err error) {
	slog.Error("local board drifted, reloading", "error", err)
	s.requestReload("drift", nil)
}

func (s *Session) remoteFailed(action string, err error) {
	msg := fmt.Sprintf("Error %s: %v", action, err)
	if errors.Is(err, ErrTransport) {
		msg = fmt.Sprintf("A network error occurred while %s.", action)
	}
	slog.Error("remote call failed", "action", action, "error", err)
	s.notifier.Notify(Notice{Level: LevelError, Message: msg})
}

func (s *Session) rebind() {
	if err := s.binder.Rebind(); err != nil {
		s.notifier.Notify(Notice{Level: LevelError, Message: "Drag and drop is unavailable: " + err.Error()})
	}
}

func (s *Session) checkSettled() {
	if s.inflight > 0 || s.reload.running {
		return
	}
	for _, ch := range s.settlers {
		close(ch)
	}
	s.settlers = nil
}
