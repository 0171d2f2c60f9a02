package planner

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const DefaultSyncTimeout = 10 * time.Second

// OutcomeKind classifies how a persist call ended.
type OutcomeKind int

const (
	Confirmed OutcomeKind = iota
	Rejected
	TransportFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	default:
		return "transport_failed"
	}
}

// Outcome is the result of one persist call.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Err     error
}

func (o Outcome) OK() bool {
	return o.Kind == Confirmed
}

// Dispatcher sends order snapshots to the authority. It never retries:
// any failure is handed to onFailure, which resets to the remote state.
type Dispatcher struct {
	authority Authority
	notifier  Notifier
	timeout   time.Duration
	onFailure func(Outcome)
}

func NewDispatcher(authority Authority, notifier Notifier, timeout time.Duration, onFailure func(Outcome)) *Dispatcher {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &Dispatcher{
		authority: authority,
		notifier:  notifier,
		timeout:   timeout,
		onFailure: onFailure,
	}
}

// Persist sends the full snapshot and waits for the authority's answer.
// A confirmation needs no local follow-up; the board already shows the order.
func (d *Dispatcher) Persist(ctx context.Context, snap OrderSnapshot) Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.authority.MoveItems(ctx, snap)
	out := classify(res, err)
	switch out.Kind {
	case Confirmed:
		slog.Debug("move saved", "items", snap.Len())
		return out
	case Rejected:
		msg := out.Message
		if msg == "" {
			msg = "Please try again."
		}
		slog.Error("failed to save move on server", "message", out.Message, "error", out.Err)
		d.notifier.Notify(Notice{Level: LevelError, Message: "Error saving changes: " + msg})
	case TransportFailed:
		slog.Error("network error saving move", "error", out.Err)
		d.notifier.Notify(Notice{Level: LevelError, Message: "A network error occurred while saving the changes."})
	}
	if d.onFailure != nil {
		d.onFailure(out)
	}
	return out
}

func classify(res MoveResult, err error) Outcome {
	switch {
	case err == nil && res.Success:
		return Outcome{Kind: Confirmed, Message: res.Message}
	case err == nil:
		return Outcome{Kind: Rejected, Message: res.Message}
	case errors.Is(err, ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return Outcome{Kind: TransportFailed, Err: err}
	default:
		return Outcome{Kind: Rejected, Message: err.Error(), Err: err}
	}
}
