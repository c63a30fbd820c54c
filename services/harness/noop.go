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

// NoopSystem is a System that echoes its input and records every
// configuration it sees. It backs smoke runs of a specification without a
// real execution system, and doubles as the tracking fixture for tests.
type NoopSystem struct {
	// AppliedEnvironments records every ApplyEnvironment call in order,
	// including the initial base apply and cleanup re-applies.
	AppliedEnvironments []Config

	// SeenFunctions records the function configuration of every Compute
	// call in order.
	SeenFunctions []Config

	// ComputeCalls counts Compute invocations.
	ComputeCalls int

	// Err, when non-nil, is returned by every Compute call.
	Err error
}

// Name returns "noop".
func (n *NoopSystem) Name() string { return "noop" }

// ApplyEnvironment records the applied environment.
func (n *NoopSystem) ApplyEnvironment(_ context.Context, environment Config) error {
	n.AppliedEnvironments = append(n.AppliedEnvironments, environment)
	return nil
}

// Compute echoes the input back, wrapped with the function configuration
// that was in effect.
func (n *NoopSystem) Compute(_ context.Context, input any, function Config) (any, error) {
	n.SeenFunctions = append(n.SeenFunctions, function)
	n.ComputeCalls++
	if n.Err != nil {
		return nil, n.Err
	}
	return map[string]any{
		"echo":     input,
		"function": map[string]any(function),
	}, nil
}
