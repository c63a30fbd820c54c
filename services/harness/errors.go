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

import "errors"

var (
	// ErrNoSlices is returned when a check is evaluated with zero slices.
	// Callers must guarantee at least one slice before invoking checks.
	ErrNoSlices = errors.New("check requires at least one slice")

	// ErrCountMismatch is returned by reference checks when the slice and
	// reference lists have different lengths. No pairwise comparison is
	// attempted once this is detected.
	ErrCountMismatch = errors.New("mismatched slice and reference counts")

	// ErrMisaligned is returned by reference checks when a positionally
	// paired slice and reference belong to different inputs.
	ErrMisaligned = errors.New("misaligned slice and reference input ids")

	// ErrMissingReference is returned by the engine when a reference check
	// needs a reference slice for an input id that has none.
	ErrMissingReference = errors.New("no reference slice for input")

	// ErrNilBackend is returned when an engine is constructed without a
	// backend.
	ErrNilBackend = errors.New("backend must not be nil")
)
