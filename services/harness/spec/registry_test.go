// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vigil/services/harness"
)

func passthroughVariation(name string) VariationFactory {
	return func(params Params) (harness.Variation, error) {
		return harness.NewInputVariation(name, params.Declared(), func(batch []harness.Input) ([]harness.Input, error) {
			return batch, nil
		}), nil
	}
}

func passCheck(name string) CheckFactory {
	return func(params Params) (harness.Check, error) {
		return harness.NewUnaryCheck(name, params.Declared(), func(*harness.Slice) (harness.Severity, harness.Annotation, error) {
			return harness.SeverityPass, nil, nil
		}), nil
	}
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterVariation("noop", passthroughVariation("noop")))
	require.NoError(t, r.RegisterCheck("pass", passCheck("pass")))
	require.NoError(t, r.RegisterSystem("echo", func(Params) (harness.System, error) {
		return &harness.NoopSystem{}, nil
	}))

	v, err := r.BuildVariation("noop", NewParams(map[string]any{"seed": 1}, nil))
	require.NoError(t, err)
	assert.Equal(t, "noop", v.Name())
	assert.Equal(t, 1, v.Params()["seed"])

	c, err := r.BuildCheck("pass", NewParams(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "pass", c.Name())

	s, err := r.BuildSystem("echo", NewParams(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())
}

func TestRegistry_UnknownComponent(t *testing.T) {
	r := NewRegistry()
	_, err := r.BuildVariation("ghost", NewParams(nil, nil))
	assert.ErrorIs(t, err, ErrUnknownComponent)

	_, err = r.BuildCheck("ghost", NewParams(nil, nil))
	assert.ErrorIs(t, err, ErrUnknownComponent)

	_, err = r.BuildSystem("ghost", NewParams(nil, nil))
	assert.ErrorIs(t, err, ErrUnknownComponent)
}

func TestRegistry_DuplicateAndNil(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterVariation("noop", passthroughVariation("noop")))
	assert.ErrorIs(t, r.RegisterVariation("noop", passthroughVariation("noop")), ErrDuplicateComponent)
	assert.ErrorIs(t, r.RegisterVariation("nil", nil), ErrNilFactory)
	assert.ErrorIs(t, r.RegisterCheck("nil", nil), ErrNilFactory)

	assert.Panics(t, func() {
		r.MustRegisterVariation("noop", passthroughVariation("noop"))
	})
}

func TestRegistry_ListingsAreSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterVariation("zeta", passthroughVariation("zeta")))
	require.NoError(t, r.RegisterVariation("alpha", passthroughVariation("alpha")))
	require.NoError(t, r.RegisterCheck("pass", passCheck("pass")))

	assert.Equal(t, []string{"alpha", "zeta"}, r.Variations())
	assert.Equal(t, []string{"pass"}, r.Checks())
	assert.Empty(t, r.Systems())
}
