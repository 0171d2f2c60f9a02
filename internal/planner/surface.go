package planner

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultRebindRetryDelay = 100 * time.Millisecond

// Container is a rendered column that drag detection can attach to.
type Container struct {
	Column ColumnID
	Ref    string
}

// DropFunc receives drop notifications from a bound surface. It must not
// be called from inside Bind.
type DropFunc func(DropEvent)

// Surface is the drag-detection collaborator. Bind attaches to every
// container as one group, so an item can move between any two of them.
type Surface interface {
	Containers() []Container
	Bind(containers []Container, onDrop DropFunc) error
	Unbind(c Container)
}

// Binder tears down and recreates surface bindings whenever the rendered
// board changes shape. Drops coming through a binding that has since been
// replaced are discarded. A Binder is safe for use from the deferred retry
// and its owner at the same time.
type Binder struct {
	surface    Surface
	onDrop     DropFunc
	retryDelay time.Duration
	after      func(time.Duration, func())
	onError    func(error)

	mu           sync.Mutex
	bound        []Container
	generation   atomic.Uint64
	retryPending bool
}

// NewBinder returns a binder for surface. A nil surface makes every rebind a no-op.
func NewBinder(surface Surface, onDrop DropFunc, retryDelay time.Duration) *Binder {
	if retryDelay <= 0 {
		retryDelay = DefaultRebindRetryDelay
	}
	b := &Binder{
		surface:    surface,
		onDrop:     onDrop,
		retryDelay: retryDelay,
	}
	b.after = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	return b
}

// Rebind replaces all bindings with bindings for the current containers.
// With no containers rendered yet it releases the old bindings, schedules
// a single retry and returns nil.
func (b *Binder) Rebind() error {
	if b.surface == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	containers := b.surface.Containers()
	if len(containers) > 0 {
		return b.bind(containers)
	}
	b.unbindAll()
	if !b.retryPending {
		slog.Warn("planner columns not found, will retry once", "delay", b.retryDelay)
		b.retryPending = true
		b.after(b.retryDelay, func() {
			if err := b.retry(); err != nil && b.onError != nil {
				b.onError(err)
			}
		})
	}
	return nil
}

// retry is the deferred second attempt. It never schedules another.
func (b *Binder) retry() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.retryPending = false
	containers := b.surface.Containers()
	if len(containers) == 0 {
		b.unbindAll()
		slog.Error("planner columns still not found on retry, drag and drop is unavailable")
		return ErrNoContainers
	}
	return b.bind(containers)
}

// unbindAll releases every binding and invalidates drops still routed
// through them. Callers hold mu.
func (b *Binder) unbindAll() uint64 {
	for _, c := range b.bound {
		b.surface.Unbind(c)
	}
	b.bound = nil
	return b.generation.Add(1)
}

func (b *Binder) bind(containers []Container) error {
	gen := b.unbindAll()
	err := b.surface.Bind(containers, func(ev DropEvent) {
		if b.generation.Load() != gen {
			slog.Warn("ignoring drop from stale binding", "item", ev.ItemID)
			return
		}
		if b.onDrop != nil {
			b.onDrop(ev)
		}
	})
	if err != nil {
		slog.Error("failed to bind drag surface", "error", err)
		return err
	}
	b.bound = append(b.bound, containers...)
	slog.Debug("bound drag surface", "containers", len(containers))
	return nil
}

// Bound returns the containers currently bound.
func (b *Binder) Bound() []Container {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Container(nil), b.bound...)
}
