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
	"errors"
	"fmt"
)

// System is the extension point a concrete backend supplies.
//
// Description:
//
//	A System translates the abstract environment/function maps into real
//	behaviour. ApplyEnvironment must be idempotent: the harness re-invokes
//	it with the same value during cleanup and reset. Compute must treat the
//	function map as immutable for the duration of the call.
//
//	Both methods may return a system-specific error. The harness does not
//	catch or reinterpret these; they propagate to the engine and abort the
//	run. No retry is provided here — a system may retry internally but must
//	return or fail before the engine proceeds.
type System interface {
	// Name identifies the system type for provenance and reporting.
	Name() string

	// ApplyEnvironment applies the environment map to the underlying
	// system's live state.
	ApplyEnvironment(ctx context.Context, environment Config) error

	// Compute executes one unit of work under the given function
	// configuration and returns the observable output.
	Compute(ctx context.Context, input any, function Config) (any, error)
}

// Backend owns the configuration lifecycle around a System.
//
// Description:
//
//	A Backend holds a base and a current value for two independent
//	configuration maps: the environment (applied eagerly to the system via
//	ApplyEnvironment) and the function (passed verbatim into each Compute,
//	never auto-applied). Variations may temporarily overwrite the current
//	values; cleanup restores them to base, re-applying the environment so
//	the system's live state matches.
//
//	Isolation across runs is guaranteed only by this disciplined cleanup,
//	not by the system being stateless.
//
// Thread Safety: NOT safe for concurrent use. The engine is the only
// writer and runs strictly sequentially; all reads hand out deep copies.
type Backend struct {
	system System

	baseEnvironment Config
	baseFunction    Config

	environment Config
	function    Config
}

// NewBackend constructs a backend around a system, fixing the base
// configuration and applying the environment once so the system starts in
// the declared base state.
//
// Inputs:
//   - ctx: Context for the initial environment apply. Must not be nil.
//   - system: The concrete system. Must not be nil.
//   - environment: Base environment configuration. May be nil.
//   - function: Base function configuration. May be nil.
//
// Outputs:
//   - *Backend: The backend, nil on error.
//   - error: The system's ApplyEnvironment error, if any.
func NewBackend(ctx context.Context, system System, environment, function Config) (*Backend, error) {
	if system == nil {
		return nil, errors.New("system must not be nil")
	}

	b := &Backend{
		system:          system,
		baseEnvironment: environment.Clone(),
		baseFunction:    function.Clone(),
	}
	b.environment = b.baseEnvironment.Clone()
	b.function = b.baseFunction.Clone()

	if err := b.system.ApplyEnvironment(ctx, b.environment.Clone()); err != nil {
		return nil, fmt.Errorf("apply base environment: %w", err)
	}
	return b, nil
}

// Name returns the underlying system's name.
func (b *Backend) Name() string { return b.system.Name() }

// Environment returns a deep copy of the current environment configuration.
func (b *Backend) Environment() Config { return b.environment.Clone() }

// Function returns a deep copy of the current function configuration.
func (b *Backend) Function() Config { return b.function.Clone() }

// SetEnvironment merges partial into the current environment (shallow key
// overwrite) and applies the result to the system immediately. The system's
// live state changes synchronously.
func (b *Backend) SetEnvironment(ctx context.Context, partial Config) error {
	cfg := b.environment.Clone()
	for k, v := range partial {
		cfg[k] = CloneValue(v)
	}
	b.environment = cfg
	return b.system.ApplyEnvironment(ctx, cfg.Clone())
}

// SetFunction merges partial into the current function configuration. There
// is no immediate apply: function configuration only takes effect on the
// next Run.
func (b *Backend) SetFunction(partial Config) {
	cfg := b.function.Clone()
	for k, v := range partial {
		cfg[k] = CloneValue(v)
	}
	b.function = cfg
}

// Run executes one input under the current configuration.
//
// Description:
//
//	The input and the current function map are deep-copied before being
//	handed to Compute. On every exit path, success or failure, the
//	requested cleanups run: cleanupFunction restores the function map to
//	base; cleanupEnvironment restores the environment map to base and
//	re-applies it to the system. A Compute failure propagates to the
//	caller after cleanup has run — cleanup is never skipped on error.
//
// Inputs:
//   - ctx: Context for the execution. Must not be nil.
//   - input: The prepared input artefact.
//   - cleanupEnvironment: Restore + re-apply the environment afterwards.
//   - cleanupFunction: Restore the function configuration afterwards.
//
// Outputs:
//   - any: The system's output, nil on error.
//   - error: The Compute error, joined with any cleanup apply error.
func (b *Backend) Run(ctx context.Context, input any, cleanupEnvironment, cleanupFunction bool) (out any, err error) {
	defer func() {
		if cleanupFunction {
			b.function = b.baseFunction.Clone()
		}
		if cleanupEnvironment {
			b.environment = b.baseEnvironment.Clone()
			if aerr := b.system.ApplyEnvironment(ctx, b.environment.Clone()); aerr != nil {
				err = errors.Join(err, fmt.Errorf("restore base environment: %w", aerr))
			}
		}
	}()

	return b.system.Compute(ctx, CloneValue(input), b.function.Clone())
}

// Reset unconditionally restores both configurations to base and re-applies
// the environment. Intended for out-of-band recovery, independent of any
// execution.
func (b *Backend) Reset(ctx context.Context) error {
	b.function = b.baseFunction.Clone()
	b.environment = b.baseEnvironment.Clone()
	return b.system.ApplyEnvironment(ctx, b.environment.Clone())
}

// Snapshot is a serialisable view of a backend's effective configuration,
// captured for provenance. It is never used to reconstruct state.
type Snapshot struct {
	Type        string `json:"type" yaml:"type"`
	Function    Config `json:"function" yaml:"function"`
	Environment Config `json:"environment" yaml:"environment"`
}

// Snapshot captures the current configuration as deep copies.
func (b *Backend) Snapshot() Snapshot {
	return Snapshot{
		Type:        b.system.Name(),
		Function:    b.function.Clone(),
		Environment: b.environment.Clone(),
	}
}
