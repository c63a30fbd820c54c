// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package variations provides the builtin variation catalogue.
//
// Text-perturbing variations operate on input.data.text and require a
// mapping payload with a string "text" field. All randomness is seeded, so
// a given specification produces the same perturbations on every run.
//
// Importing this package (usually blank) registers every builtin into
// spec.DefaultRegistry.
package variations

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

// ErrBadInputShape is returned when a text variation meets an input whose
// payload is not a mapping with a string "text" field.
var ErrBadInputShape = errors.New("input data must be a mapping with a string text field")

// textOf extracts the mutable payload mapping and its text field.
func textOf(in harness.Input) (map[string]any, string, error) {
	data, ok := in.Data.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("%w: input %s has %T data", ErrBadInputShape, in.ID, in.Data)
	}
	text, ok := data["text"].(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: input %s", ErrBadInputShape, in.ID)
	}
	return data, text, nil
}

// textVariation wraps a per-text transform into an input variation. The
// transform receives a fresh seeded RNG per pass, so repeated passes of the
// same variation perturb identically.
func textVariation(name string, params spec.Params, seed int, transform func(text string, rng *rand.Rand) (string, error)) harness.Variation {
	return harness.NewInputVariation(name, params.Declared(), func(batch []harness.Input) ([]harness.Input, error) {
		rng := rand.New(rand.NewSource(int64(seed)))
		for i := range batch {
			data, text, err := textOf(batch[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			varied, err := transform(text, rng)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			data["text"] = varied
		}
		return nil, nil
	})
}
