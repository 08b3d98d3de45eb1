// Package audit captures structured trail events for lifecycle transitions and
// registrations. Services emit through a Recorder; a Worker drains the inbox
// into a Sink (memory for tests and development, Kafka in production).
package audit

import (
	"context"
	"log/slog"
	"time"

	"podium/pkg/requestcontext"
)

// Recorder accepts events without blocking the request path. A full inbox drops
// the event and logs the drop; audit must never stall a user-facing write.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{inbox: make(chan Event, buffer), logger: logger}
}

// Inbox exposes the receive side for the Worker.
func (r *Recorder) Inbox() <-chan Event { return r.inbox }

// Emit enriches and enqueues the event.
func (r *Recorder) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", string(event.Action),
			"subject", event.Subject,
		)
	}
}

// Sink persists audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Worker consumes audit events from the recorder and persists them. Append
// failures are logged and the worker keeps draining; a flaky sink must not
// stop the trail entirely.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			appendCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := w.sink.Append(appendCtx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", string(event.Action),
					"error", err,
				)
			}
			cancel()
		}
	}
}
