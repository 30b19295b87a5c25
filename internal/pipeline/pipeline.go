// Package pipeline runs an ordered list of steps over a shared context.
//
// Each step receives the context and a next callback. Calling next runs the
// following step; returning without calling it stops the current pass. A
// built pipeline can be invoked any number of times and always restarts at
// the first step.
package pipeline

import "errors"

// ErrNoSteps is returned by Build when no step was registered.
var ErrNoSteps = errors.New("no steps have been added to the pipeline")

// Step is a single stage of a pipeline.
type Step[C any] func(ctx C, next func() error) error

// Handler is the entry point returned by Build.
type Handler[C any] func(ctx C) error

// Pipeline collects steps until Build is called.
type Pipeline[C any] struct {
	steps []Step[C]
}

// New returns an empty pipeline.
func New[C any]() *Pipeline[C] {
	return &Pipeline[C]{}
}

// Use appends a step. Steps run in the order they are added.
func (p *Pipeline[C]) Use(step Step[C]) *Pipeline[C] {
	if step == nil {
		panic("pipeline: nil step")
	}
	p.steps = append(p.steps, step)
	return p
}

// Build freezes the registered steps into a Handler.
func (p *Pipeline[C]) Build() (Handler[C], error) {
	if len(p.steps) == 0 {
		return nil, ErrNoSteps
	}

	steps := make([]Step[C], len(p.steps))
	copy(steps, p.steps)

	var invoke func(ctx C, index int) error
	invoke = func(ctx C, index int) error {
		if index >= len(steps) {
			return nil
		}
		return steps[index](ctx, func() error { return invoke(ctx, index+1) })
	}

	return func(ctx C) error { return invoke(ctx, 0) }, nil
}
