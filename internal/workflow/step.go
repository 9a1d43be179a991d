package workflow

import "context"

type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

type funcStep struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// Name implements Step.
func (s *funcStep) Name() string {
	return s.name
}

// Execute implements Step.
func (s *funcStep) Execute(ctx context.Context) error {
	if s.execute == nil {
		return nil
	}

	return s.execute(ctx)
}

// Compensate implements Step.
func (s *funcStep) Compensate(ctx context.Context) error {
	if s.compensate == nil {
		return nil
	}

	return s.compensate(ctx)
}

var _ Step = &funcStep{}

// StepFunc builds a named step from functions, both of which may be nil.
func StepFunc(name string, execute func(ctx context.Context) error, compensate func(ctx context.Context) error) Step {
	return &funcStep{
		name:       name,
		execute:    execute,
		compensate: compensate,
	}
}
