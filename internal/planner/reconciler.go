package planner

import (
	"context"
	"fmt"
	"log/slog"
)

// Reconciler is the single recovery path: drop the local board, load the
// authority's board, rebind the drag surface. It never merges.
type Reconciler struct {
	board     *Board
	authority Authority
	binder    *Binder
}

func NewReconciler(board *Board, authority Authority, binder *Binder) *Reconciler {
	return &Reconciler{board: board, authority: authority, binder: binder}
}

// Recover fetches and loads the remote board. On a failed fetch the local
// board is left as it was and the error is returned.
func (r *Reconciler) Recover(ctx context.Context) error {
	remote, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	return r.apply(remote)
}

func (r *Reconciler) fetch(ctx context.Context) (RemoteBoard, error) {
	remote, err := r.authority.FetchBoard(ctx)
	if err != nil {
		return nil, fmt.Errorf("load planner data: %w", err)
	}
	return remote, nil
}

func (r *Reconciler) apply(remote RemoteBoard) error {
	discarded := r.board.load(remote)
	slog.Info("planner board loaded", "items", r.board.Len(), "discarded", discarded)
	if r.binder == nil {
		return nil
	}
	return r.binder.Rebind()
}
