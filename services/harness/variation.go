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

import "context"

// VariationIntent declares which domain a variation mutates. The engine
// branches on intent to decide cleanup timing without inspecting variation
// internals: what changed is decoupled from when it must be undone.
type VariationIntent string

const (
	// IntentInput marks variations that modify the input artefacts
	// presented to the backend. Backend configuration is untouched, so
	// there is nothing backend-side to undo.
	IntentInput VariationIntent = "input"
	// IntentFunction marks variations that modify the executed function
	// configuration. Changes are latent until the next Compute and are
	// undone once, after the batch's last input.
	IntentFunction VariationIntent = "function"
	// IntentEnvironment marks variations that modify execution environment
	// conditions. Changes apply to the system immediately and are undone
	// once, after the batch's last input.
	IntentEnvironment VariationIntent = "environment"
)

// Variation is a controlled transformation applied either to an input batch
// or to backend configuration before a batch executes.
//
// The union is closed: the only implementations are InputVariation,
// FunctionVariation and EnvironmentVariation, so the engine's branching on
// intent is exhaustive. Concrete variations are built by passing a vary
// function to one of the three constructors.
//
// A variation is stateless beyond its construction parameters; Params is
// its identity for hashing and reporting.
type Variation interface {
	// Name is the declared type name of the variation (e.g. "add_typos").
	Name() string
	// Intent is the domain this variation mutates.
	Intent() VariationIntent
	// Params returns the variation's own construction parameters for
	// reporting and identity hashing. Callers must not mutate the map.
	Params() map[string]any
	// Apply transforms the batch. Input-intent variations return a new
	// batch; function/environment-intent variations update the backend and
	// pass the batch through unchanged.
	Apply(ctx context.Context, inputs []Input, backend *Backend) ([]Input, error)

	isVariation()
}

// InputVaryFunc mutates a deep-copied input batch in place and returns nil,
// or returns a replacement batch.
type InputVaryFunc func(inputs []Input) ([]Input, error)

// ConfigVaryFunc mutates a deep-copied configuration map in place and
// returns nil, or returns a replacement map.
type ConfigVaryFunc func(cfg Config) (Config, error)

// InputVariation varies the input artefacts only.
type InputVariation struct {
	name   string
	params map[string]any
	vary   InputVaryFunc
}

// NewInputVariation builds an input-intent variation from a vary function.
func NewInputVariation(name string, params map[string]any, vary InputVaryFunc) *InputVariation {
	return &InputVariation{name: name, params: params, vary: vary}
}

func (v *InputVariation) Name() string            { return v.name }
func (v *InputVariation) Intent() VariationIntent { return IntentInput }
func (v *InputVariation) Params() map[string]any  { return v.params }
func (v *InputVariation) isVariation()            {}

// Apply deep-copies the batch and hands it to the vary function. The
// returned (or mutated) batch becomes the batch fed to the backend.
func (v *InputVariation) Apply(_ context.Context, inputs []Input, _ *Backend) ([]Input, error) {
	copied := CloneInputs(inputs)
	varied, err := v.vary(copied)
	if err != nil {
		return nil, err
	}
	if varied == nil {
		varied = copied
	}
	return varied, nil
}

// FunctionVariation varies the backend's function configuration only.
type FunctionVariation struct {
	name   string
	params map[string]any
	vary   ConfigVaryFunc
}

// NewFunctionVariation builds a function-intent variation from a vary
// function.
func NewFunctionVariation(name string, params map[string]any, vary ConfigVaryFunc) *FunctionVariation {
	return &FunctionVariation{name: name, params: params, vary: vary}
}

func (v *FunctionVariation) Name() string            { return v.name }
func (v *FunctionVariation) Intent() VariationIntent { return IntentFunction }
func (v *FunctionVariation) Params() map[string]any  { return v.params }
func (v *FunctionVariation) isVariation()            {}

// Apply varies a copy of the current function map and stores it on the
// backend. No apply step is triggered; function changes are latent until
// the next Compute. The input batch passes through unchanged.
func (v *FunctionVariation) Apply(_ context.Context, inputs []Input, backend *Backend) ([]Input, error) {
	copied := backend.Function()
	varied, err := v.vary(copied)
	if err != nil {
		return nil, err
	}
	if varied == nil {
		varied = copied
	}
	backend.SetFunction(varied)
	return inputs, nil
}

// EnvironmentVariation varies the backend's environment configuration only.
type EnvironmentVariation struct {
	name   string
	params map[string]any
	vary   ConfigVaryFunc
}

// NewEnvironmentVariation builds an environment-intent variation from a
// vary function.
func NewEnvironmentVariation(name string, params map[string]any, vary ConfigVaryFunc) *EnvironmentVariation {
	return &EnvironmentVariation{name: name, params: params, vary: vary}
}

func (v *EnvironmentVariation) Name() string            { return v.name }
func (v *EnvironmentVariation) Intent() VariationIntent { return IntentEnvironment }
func (v *EnvironmentVariation) Params() map[string]any  { return v.params }
func (v *EnvironmentVariation) isVariation()            {}

// Apply varies a copy of the current environment map and stores it on the
// backend, which applies it to the system immediately. The input batch
// passes through unchanged.
func (v *EnvironmentVariation) Apply(ctx context.Context, inputs []Input, backend *Backend) ([]Input, error) {
	copied := backend.Environment()
	varied, err := v.vary(copied)
	if err != nil {
		return nil, err
	}
	if varied == nil {
		varied = copied
	}
	if err := backend.SetEnvironment(ctx, varied); err != nil {
		return nil, err
	}
	return inputs, nil
}
