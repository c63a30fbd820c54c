// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package variations

import (
	"fmt"

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

func init() {
	spec.DefaultRegistry.MustRegisterVariation("set_input", newSetInput)
	spec.DefaultRegistry.MustRegisterVariation("update_input_keys", newUpdateInputKeys)
	spec.DefaultRegistry.MustRegisterVariation("set_function", newSetFunction)
	spec.DefaultRegistry.MustRegisterVariation("set_environment", newSetEnvironment)
}

// mergeIntoData overwrites keys in each input's payload mapping.
func mergeIntoData(name string, batch []harness.Input, overlay map[string]any) error {
	for i := range batch {
		data, ok := batch[i].Data.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %w: input %s has %T data", name, ErrBadInputShape, batch[i].ID, batch[i].Data)
		}
		for k, v := range overlay {
			data[k] = harness.CloneValue(v)
		}
	}
	return nil
}

// newSetInput merges every declared parameter into each input payload.
func newSetInput(params spec.Params) (harness.Variation, error) {
	overlay := params.Declared()
	return harness.NewInputVariation("set_input", overlay, func(batch []harness.Input) ([]harness.Input, error) {
		return nil, mergeIntoData("set_input", batch, overlay)
	}), nil
}

// newUpdateInputKeys merges the mapping declared under "input" into each
// input payload. Unlike set_input, unrelated parameters stay out of the
// payload.
func newUpdateInputKeys(params spec.Params) (harness.Variation, error) {
	overlay, err := params.Map("input")
	if err != nil {
		return nil, err
	}
	if overlay == nil {
		return nil, fmt.Errorf("%w: input", spec.ErrMissingParameter)
	}
	return harness.NewInputVariation("update_input_keys", params.Declared(), func(batch []harness.Input) ([]harness.Input, error) {
		return nil, mergeIntoData("update_input_keys", batch, overlay)
	}), nil
}

// newSetFunction merges every declared parameter into the function
// configuration. The change is latent until the next execution.
func newSetFunction(params spec.Params) (harness.Variation, error) {
	overlay := params.Declared()
	return harness.NewFunctionVariation("set_function", overlay, func(cfg harness.Config) (harness.Config, error) {
		for k, v := range overlay {
			cfg[k] = harness.CloneValue(v)
		}
		return nil, nil
	}), nil
}

// newSetEnvironment merges every declared parameter into the environment
// configuration, applied to the system immediately.
func newSetEnvironment(params spec.Params) (harness.Variation, error) {
	overlay := params.Declared()
	return harness.NewEnvironmentVariation("set_environment", overlay, func(cfg harness.Config) (harness.Config, error) {
		for k, v := range overlay {
			cfg[k] = harness.CloneValue(v)
		}
		return nil, nil
	}), nil
}
