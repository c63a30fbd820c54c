// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package systems registers the builtin backend systems.
//
// Importing this package (usually blank) registers every builtin into
// spec.DefaultRegistry. Real projects register their own System
// implementations the same way.
package systems

import (
	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

func init() {
	// noop echoes inputs back; useful for dry runs and for exercising a
	// specification without a live system.
	spec.DefaultRegistry.MustRegisterSystem("noop", func(spec.Params) (harness.System, error) {
		return &harness.NoopSystem{}, nil
	})
}
