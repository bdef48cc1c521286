// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"testing"
)

func recordStep(name string, ran *[]string, err error) Step {
	return Step{Name: name, Run: func(context.Context) error {
		*ran = append(*ran, name)
		return err
	}}
}

func TestRunStepsFailFast(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	steps := []Step{
		recordStep("one", &ran, nil),
		recordStep("two", &ran, boom),
		recordStep("three", &ran, nil),
	}

	var reported int
	rep := ReporterFunc(func(string, ...any) { reported++ })
	results, err := RunSteps(context.Background(), steps, rep)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(ran) != 2 || ran[1] != "two" {
		t.Errorf("steps after a failure must not run, ran %v", ran)
	}
	if len(results) != 2 || results[1].Err == nil || results[0].Err != nil {
		t.Errorf("unexpected results %+v", results)
	}
	if reported != 2 {
		t.Errorf("expected a start line per executed step, got %d", reported)
	}
}

func TestRunStepsCancelled(t *testing.T) {
	var ran []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunSteps(ctx, []Step{recordStep("one", &ran, nil)}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("nothing should run after cancellation")
	}
}

func TestSelectSteps(t *testing.T) {
	var ran []string
	all := []Step{recordStep("a", &ran, nil), recordStep("b", &ran, nil), recordStep("c", &ran, nil)}

	got, err := SelectSteps(all, []string{"c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("selection must keep registry order, got %v", got)
	}

	if _, err := SelectSteps(all, []string{"a", "nope"}); !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}
}

func TestDefaultStepsExcludeBrokerPassword(t *testing.T) {
	for _, n := range DefaultSteps {
		if n == StepMQTTPassword {
			t.Fatalf("%s must be opt-in", StepMQTTPassword)
		}
	}
	p := &Provisioner{}
	if _, err := SelectSteps(p.Steps(), DefaultSteps); err != nil {
		t.Fatalf("default steps must all be registered: %v", err)
	}
}
