package command

import (
	"context"
	"log/slog"

	dErrors "podium/pkg/domain-errors"
)

// Dispatcher routes commands to the owning service.
type Dispatcher struct {
	content       ContentService
	registrations RegistrationService
	saver         Saver
	logger        *slog.Logger
}

func NewDispatcher(content ContentService, registrations RegistrationService, saver Saver, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		content:       content,
		registrations: registrations,
		saver:         saver,
		logger:        logger,
	}
}

// Dispatch executes one command and returns its result. Unknown command types
// are a programming error, not caller input.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case SoftDelete:
		deleted, err := d.content.SoftDelete(ctx, c.Principal, c.Resource)
		return Result{Deleted: deleted}, err
	case Duplicate:
		newID, err := d.content.Duplicate(ctx, c.Principal, c.Source)
		return Result{NewResource: newID}, err
	case ScheduleSave:
		return Result{}, d.saver.Schedule(c.Principal, c.Resource, c.Fields)
	case SaveNow:
		savedAt, err := d.saver.SaveNow(ctx, c.Principal, c.Resource, c.Fields)
		return Result{SavedAt: savedAt}, err
	case Register:
		outcome, err := d.registrations.Register(ctx, c.Principal, c.Event)
		return Result{Outcome: string(outcome)}, err
	case CancelRegistration:
		return Result{}, d.registrations.Cancel(ctx, c.Principal, c.Event)
	default:
		d.logger.ErrorContext(ctx, "unknown command type", "command", cmd)
		return Result{}, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown command type %T", cmd)
	}
}
