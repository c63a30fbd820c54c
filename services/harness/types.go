// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package harness implements the behavioural-verification core: the backend
// configuration lifecycle, the variation and check models, and the engine
// that sequences them into a run.
//
// A run executes one reference slice per input, then one slice per input per
// declared variation, and finally evaluates every declared check over the
// accumulated slices. All execution is strictly sequential: backend
// configuration is shared mutable state for the whole run and correctness
// depends on mutations and cleanups happening in declaration order.
//
// Values crossing component boundaries (inputs, configurations, outputs) are
// JSON-like: maps, slices, and scalars. Every hand-off produces an
// independent deep copy; this is a hard contract of the Backend and
// Variation interfaces, not an optimisation detail.
package harness

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

// Config is a key-value configuration map for backend environment or
// function settings. Values must be JSON-serialisable.
type Config map[string]any

// Clone returns an independent deep copy of the config.
func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = CloneValue(v)
	}
	return out
}

// Annotation is the structured result payload produced by a check.
type Annotation map[string]any

// Input is one unit of work presented to the backend.
type Input struct {
	// ID identifies the input within a run. Callers supply it; the spec
	// loader defaults it to the input's ordinal position, stringified.
	// Uniqueness is assumed but not enforced here.
	ID string

	// Data is passed verbatim (deep-copied) to the backend.
	Data any

	// Reference, when non-nil, is a pre-computed expected output. It
	// substitutes for a backend execution when the engine builds the
	// reference slice for this input.
	Reference any
}

// Clone returns an independent deep copy of the input.
func (in Input) Clone() Input {
	return Input{
		ID:        in.ID,
		Data:      CloneValue(in.Data),
		Reference: CloneValue(in.Reference),
	}
}

// CloneInputs deep-copies a batch of inputs.
func CloneInputs(inputs []Input) []Input {
	out := make([]Input, len(inputs))
	for i, in := range inputs {
		out[i] = in.Clone()
	}
	return out
}

// CloneValue deep-copies a JSON-like value (maps, slices, scalars).
//
// Description:
//
//	Maps and slices are copied recursively; scalars are returned as-is.
//	map[string]any, Config, Annotation and []any are handled structurally.
//	Any other type falls back to a JSON round trip, so values that are not
//	JSON-serialisable come back unchanged rather than aliased copies.
func CloneValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string, int, int32, int64, float32, float64:
		return val
	case Config:
		return val.Clone()
	case Annotation:
		return (Config)(val).Clone()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return val
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return val
		}
		return decoded
	}
}

// Slice is the immutable record of one backend execution (or one reference
// capture) for one input. Slices are created once by the engine and shared
// read-only with checks and the report.
type Slice struct {
	// Input is the input the slice was produced for.
	Input Input

	// Output is the observed output of the execution, or the declared
	// reference value for provided references.
	Output any

	// Function is the backend's function configuration snapshot captured
	// immediately before the execution.
	Function Config

	// Environment is the backend's environment configuration snapshot
	// captured immediately before the execution.
	Environment Config

	// Variation is the variation in effect for this slice, or nil for a
	// reference slice.
	Variation Variation

	// Timestamp records when the slice was constructed.
	Timestamp time.Time

	// Meta holds engine-assigned provenance, e.g. meta["source"] is
	// "provided" or "executed" for reference slices.
	Meta map[string]any
}

// NewSlice constructs a slice, stamping the current time and guaranteeing a
// non-nil Meta map.
func NewSlice(input Input, output any, function, environment Config, variation Variation) *Slice {
	return &Slice{
		Input:       input,
		Output:      output,
		Function:    function,
		Environment: environment,
		Variation:   variation,
		Timestamp:   time.Now(),
		Meta:        map[string]any{},
	}
}

// InputID returns the id of the input this slice belongs to.
func (s *Slice) InputID() string {
	return s.Input.ID
}

// ID derives the stable identity of the slice within a run.
//
// Reference slices are "input-{input}-reference"; variation slices are
// "input-{input}-variation-{name}-{hash}" where the hash covers the
// variation's name and parameters, so the same (input, variation) pairing
// yields the same id across the run.
func (s *Slice) ID() string {
	if s.Variation == nil {
		return fmt.Sprintf("input-%s-reference", s.Input.ID)
	}
	return fmt.Sprintf("input-%s-variation-%s-%016x",
		s.Input.ID, s.Variation.Name(), VariationHash(s.Variation))
}

// VariationHash digests a variation's identity: its name plus the canonical
// JSON encoding of its parameters. encoding/json sorts map keys, so the
// digest is stable for equal parameter sets.
func VariationHash(v Variation) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(v.Name()))
	if raw, err := json.Marshal(v.Params()); err == nil {
		_, _ = h.Write(raw)
	}
	return h.Sum64()
}

// GroupSlices partitions slices by input id, preserving the order of first
// appearance for group keys and slice order within each group.
func GroupSlices(slices []*Slice) ([]string, map[string][]*Slice) {
	order := make([]string, 0)
	groups := make(map[string][]*Slice)
	for _, s := range slices {
		id := s.InputID()
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], s)
	}
	return order, groups
}
