package planner

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// fakeAuthority is an in-memory Authority. Hooks, when set, replace the
// default behaviour of a call.
type fakeAuthority struct {
	mu     sync.Mutex
	board  map[ColumnID][]Item
	moves  []OrderSnapshot
	fetchN int

	fetchHook func(ctx context.Context) (RemoteBoard, error)
	moveHook  func(ctx context.Context, snap OrderSnapshot) (MoveResult, error)
	createErr error
	updateErr error
	deleteErr error
}

func newFakeAuthority(lanes map[ColumnID][]Item) *fakeAuthority {
	board := make(map[ColumnID][]Item, len(lanes))
	for col, items := range lanes {
		board[col] = append([]Item(nil), items...)
	}
	return &fakeAuthority{board: board}
}

func (f *fakeAuthority) remote() RemoteBoard {
	out := RemoteBoard{}
	for col, items := range f.board {
		if items == nil {
			items = []Item{}
		}
		raw, _ := json.Marshal(items)
		out[col] = raw
	}
	return out
}

func (f *fakeAuthority) FetchBoard(ctx context.Context) (RemoteBoard, error) {
	f.mu.Lock()
	f.fetchN++
	hook := f.fetchHook
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remote(), nil
}

func (f *fakeAuthority) MoveItems(ctx context.Context, snap OrderSnapshot) (MoveResult, error) {
	f.mu.Lock()
	f.moves = append(f.moves, snap)
	hook := f.moveHook
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx, snap)
	}
	return MoveResult{Success: true}, nil
}

func (f *fakeAuthority) CreateItem(_ context.Context, req NewItem) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return Item{}, f.createErr
	}
	it := Item{ID: uuid.New(), Title: req.Title, DisplayTitle: &req.Title, Notes: req.Notes}
	f.board[req.Status] = append(f.board[req.Status], it)
	return it, nil
}

func (f *fakeAuthority) UpdateItem(_ context.Context, id uuid.UUID, upd ItemUpdate) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return Item{}, f.updateErr
	}
	it := Item{ID: id, Title: upd.Title, DisplayTitle: &upd.DisplayTitle, Notes: upd.Notes}
	for col, items := range f.board {
		for i := range items {
			if items[i].ID == id {
				f.board[col][i] = it
			}
		}
	}
	return it, nil
}

func (f *fakeAuthority) DeleteItem(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for col, items := range f.board {
		for i := range items {
			if items[i].ID == id {
				f.board[col] = append(items[:i:i], items[i+1:]...)
				return nil
			}
		}
	}
	return ErrNotFound
}

// store rewrites the stored board to match snap, like the real authority does.
func (f *fakeAuthority) store(snap OrderSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := map[uuid.UUID]Item{}
	for _, items := range f.board {
		for _, it := range items {
			byID[it.ID] = it
		}
	}
	board := make(map[ColumnID][]Item, len(snap))
	for col, idList := range snap {
		lane := []Item{}
		for _, id := range idList {
			lane = append(lane, byID[id])
		}
		board[col] = lane
	}
	f.board = board
}

func (f *fakeAuthority) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchN
}

func (f *fakeAuthority) sentMoves() []OrderSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OrderSnapshot(nil), f.moves...)
}

// fakeSurface records binds and lets tests fire drops through old bindings.
type fakeSurface struct {
	mu         sync.Mutex
	containers []Container
	drops      []DropFunc
	unbound    []Container
	bindErr    error
}

func (s *fakeSurface) Containers() []Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Container(nil), s.containers...)
}

func (s *fakeSurface) Bind(_ []Container, onDrop DropFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bindErr != nil {
		return s.bindErr
	}
	s.drops = append(s.drops, onDrop)
	return nil
}

func (s *fakeSurface) Unbind(c Container) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unbound = append(s.unbound, c)
}

func (s *fakeSurface) binding(i int) DropFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops[i]
}

func (s *fakeSurface) binds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drops)
}

func columnContainers() []Container {
	var out []Container
	for _, c := range DefaultColumns() {
		out = append(out, Container{Column: c.ID, Ref: "col-" + string(c.ID)})
	}
	return out
}
