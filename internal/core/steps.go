// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/toeirei/obskeeper/internal/logging"
)

// ErrUnknownStep is returned when a step name is not registered.
var ErrUnknownStep = errors.New("unknown step")

// Step is one named unit of a provisioning run.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// RunSteps executes steps in order and stops at the first failure. The
// results cover every step that ran, including the failed one.
func RunSteps(ctx context.Context, steps []Step, rep Reporter) ([]StepResult, error) {
	rep = reporterOrNop(rep)
	results := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		report(rep, "setup.step_start", s.Name)
		start := time.Now()
		err := s.Run(ctx)
		results = append(results, StepResult{Name: s.Name, Err: err, Duration: time.Since(start)})
		if err != nil {
			logging.Errorf("step %s failed: %v", s.Name, err)
			return results, fmt.Errorf("step %s: %w", s.Name, err)
		}
		logging.Debugf("step %s finished in %s", s.Name, time.Since(start))
	}
	return results, nil
}

// SelectSteps returns the steps of all named in names, in the order of
// all. An empty names selects nothing.
func SelectSteps(all []Step, names []string) ([]Step, error) {
	known := lo.Map(all, func(s Step, _ int) string { return s.Name })
	for _, n := range names {
		if !slices.Contains(known, n) {
			return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownStep, n, known)
		}
	}
	return lo.Filter(all, func(s Step, _ int) bool { return slices.Contains(names, s.Name) }), nil
}
