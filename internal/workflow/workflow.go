package workflow

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// Workflow executes steps in order. When a step fails, the failed step and every
// previous one are compensated, last first.
type Workflow struct {
	steps []Step
}

func (w *Workflow) Execute(ctx context.Context) error {
	for idx, step := range w.steps {
		err := step.Execute(ctx)
		if err == nil {
			continue
		}

		executionErr := &StepError{Step: step.Name(), Err: err}

		slog.DebugContext(ctx, "workflow step failed, compensating", slog.String("step", step.Name()), slog.Any("error", err))

		// Compensations must run even if the execution was interrupted
		compensationErrs := w.compensate(context.WithoutCancel(ctx), idx)
		if len(compensationErrs) > 0 {
			return errors.WithStack(NewCompensationError(executionErr, compensationErrs...))
		}

		return errors.WithStack(executionErr)
	}

	return nil
}

func (w *Workflow) compensate(ctx context.Context, from int) []*StepError {
	var errs []*StepError

	for idx := from; idx >= 0; idx-- {
		step := w.steps[idx]
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, &StepError{Step: step.Name(), Err: err})
		}
	}

	return errs
}

func New(steps ...Step) *Workflow {
	return &Workflow{steps: steps}
}
