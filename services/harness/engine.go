// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Reporter is the reporting collaborator the engine drives. Calls arrive in
// the exact order variations and checks are processed; the engine does not
// buffer or reorder.
type Reporter interface {
	// StartVariation announces a variation pass. variation is nil for the
	// "none" pass.
	StartVariation(index, total int, variation Variation)
	// FinishVariation closes a variation pass with its batch size and wall
	// time.
	FinishVariation(index, total int, variation Variation, nInputs int, duration time.Duration)
	// StartCheck announces a check evaluation.
	StartCheck(index, total int, name string)
	// FinishCheck records a check's merged severity and annotation.
	FinishCheck(name string, severity Severity, annotation Annotation)
}

// EngineOptions carries the engine's optional collaborators.
type EngineOptions struct {
	// Logger receives structured progress events. Defaults to slog.Default.
	Logger *slog.Logger
	// Metrics receives execution and check counters. May be nil.
	Metrics *Metrics
}

// Engine sequences one verification run: reference construction, variation
// passes, then check passes.
//
// Description:
//
//	The engine is constructed around a single backend and holds no state
//	across calls to Run beyond that reference. Inputs, variations and
//	checks are read-only for the engine's purposes; slices are created,
//	accumulated, and discarded within one Run.
//
//	All business logic is single-threaded and strictly ordered: inputs
//	within a batch, batches across variations, and checks across the check
//	list execute one at a time, in declaration order. Backend configuration
//	is global mutable state for the whole run, so the engine enforces that
//	every configuration mutation is closed out (restored to base) before
//	the next pass or the check phase begins. There is no cancellation
//	beyond ctx reaching the backend's own blocking calls, no retry, and no
//	timeout here.
type Engine struct {
	backend *Backend
	log     *slog.Logger
	metrics *Metrics
}

// NewEngine constructs an engine around a backend.
//
// Inputs:
//   - backend: The backend to drive. Must not be nil.
//   - opts: Optional collaborators. May be nil.
//
// Outputs:
//   - *Engine: The engine, nil on error.
//   - error: ErrNilBackend when backend is nil.
func NewEngine(backend *Backend, opts *EngineOptions) (*Engine, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	e := &Engine{backend: backend}
	if opts != nil {
		e.log = opts.Logger
		e.metrics = opts.Metrics
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e, nil
}

// Run executes one full verification run.
//
// Description:
//
//	First, one reference slice is built per input: a declared reference
//	value is captured verbatim (no backend execution); otherwise the
//	backend runs the input with full cleanup forced, so reference building
//	never leaks state into the variation passes.
//
//	Then each variation pass, in declaration order, applies its variation
//	(nil means "no variation", inputs pass through) and executes the
//	backend over the whole batch. A function- or environment-intent
//	variation deliberately holds its mutated configuration across the
//	batch so every input observes the same altered behaviour; it is undone
//	exactly once, on the batch's last input, restoring isolation before
//	the next pass.
//
//	Finally each check, in declaration order, is evaluated over all
//	accumulated slices. Reference-intent checks receive a reference list
//	aligned positionally with the slice list.
//
//	Every error — backend, cardinality, alignment, or check-internal —
//	aborts the run and propagates to the caller. Nothing is downgraded to
//	INFO; the caller is expected to report the error and stop rather than
//	continue with a partial report.
//
// Inputs:
//   - ctx: Context threaded into every backend call. Must not be nil.
//   - reporter: The reporting sink. Must not be nil.
//   - inputs: The units of work, constructed once per run.
//   - variations: Declared variations; nil entries denote "no variation".
//   - checks: Declared checks.
//
// Outputs:
//   - error: nil on success, the first unhandled error otherwise.
func (e *Engine) Run(ctx context.Context, reporter Reporter, inputs []Input, variations []Variation, checks []Check) error {
	references, err := e.buildReferences(ctx, inputs)
	if err != nil {
		return err
	}

	var allSlices []*Slice

	totalVariations := len(variations)
	for i, variation := range variations {
		reporter.StartVariation(i, totalVariations, variation)
		e.log.Debug("variation pass starting",
			"index", i, "total", totalVariations, "variation", variationName(variation))

		start := time.Now()

		applied := inputs
		if variation != nil {
			applied, err = variation.Apply(ctx, inputs, e.backend)
			if err != nil {
				return fmt.Errorf("apply variation %s: %w", variation.Name(), err)
			}
		}

		slices, err := e.runVariation(ctx, applied, variation)
		if err != nil {
			return err
		}

		reporter.FinishVariation(i, totalVariations, variation, len(applied), time.Since(start))
		allSlices = append(allSlices, slices...)
	}

	totalChecks := len(checks)
	for i, check := range checks {
		reporter.StartCheck(i, totalChecks, check.Name())

		var checkReferences []*Slice
		if check.Intent() == CheckReference {
			checkReferences, err = alignReferences(allSlices, references)
			if err != nil {
				return fmt.Errorf("check %s: %w", check.Name(), err)
			}
		}

		severity, annotation, err := check.Evaluate(allSlices, checkReferences)
		if err != nil {
			return err
		}

		e.metrics.observeCheck(severity)
		reporter.FinishCheck(check.Name(), severity, annotation)
		e.log.Debug("check finished", "check", check.Name(), "severity", severity.String())
	}

	return nil
}

// buildReferences produces exactly one reference slice per input, keyed by
// input id, before any variation runs.
func (e *Engine) buildReferences(ctx context.Context, inputs []Input) (map[string]*Slice, error) {
	references := make(map[string]*Slice, len(inputs))

	for _, input := range inputs {
		function := e.backend.Function()
		environment := e.backend.Environment()

		var output any
		source := "provided"

		if input.Reference != nil {
			output = CloneValue(input.Reference)
		} else {
			var err error
			output, err = e.backend.Run(ctx, input.Data, true, true)
			if err != nil {
				return nil, fmt.Errorf("reference execution for input %s: %w", input.ID, err)
			}
			source = "executed"
			e.metrics.observeExecution("reference")
		}

		s := NewSlice(input, output, function, environment, nil)
		s.Meta["source"] = source
		references[input.ID] = s
	}

	return references, nil
}

// runVariation executes the backend over one batch, deciding cleanup per
// input: configuration is undone only on the last input of the batch, and
// only for the configuration domain the variation's intent names.
func (e *Engine) runVariation(ctx context.Context, inputs []Input, variation Variation) ([]*Slice, error) {
	var intent VariationIntent
	if variation != nil {
		intent = variation.Intent()
	}

	slices := make([]*Slice, 0, len(inputs))

	for i, input := range inputs {
		last := i == len(inputs)-1
		cleanupFunction := last && intent == IntentFunction
		cleanupEnvironment := last && intent == IntentEnvironment

		function := e.backend.Function()
		environment := e.backend.Environment()

		output, err := e.backend.Run(ctx, input.Data, cleanupEnvironment, cleanupFunction)
		if err != nil {
			return nil, fmt.Errorf("execution for input %s under variation %s: %w",
				input.ID, variationName(variation), err)
		}
		e.metrics.observeExecution("variation")

		slices = append(slices, NewSlice(input, output, function, environment, variation))
	}

	return slices, nil
}

// alignReferences builds the reference list positionally aligned with the
// accumulated slices, as reference checks require.
func alignReferences(slices []*Slice, references map[string]*Slice) ([]*Slice, error) {
	aligned := make([]*Slice, 0, len(slices))
	for _, s := range slices {
		reference, ok := references[s.InputID()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingReference, s.InputID())
		}
		aligned = append(aligned, reference)
	}
	return aligned, nil
}

func variationName(v Variation) string {
	if v == nil {
		return "none"
	}
	return v.Name()
}
