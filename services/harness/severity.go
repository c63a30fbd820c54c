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

import "fmt"

// Severity is the ordinal outcome level of a check result.
//
// Ordering matters: merged results keep the worst severity observed, so a
// single FAIL is never silently dropped behind a hundred PASSes.
type Severity int

const (
	// SeverityInfo is an informational outcome; it does not affect run
	// standing and is the default for empty merges.
	SeverityInfo Severity = iota
	// SeverityPass marks a passing outcome.
	SeverityPass
	// SeverityWarn marks a warning outcome.
	SeverityWarn
	// SeverityFail marks a failing outcome.
	SeverityFail
)

// String returns the lowercase label used in reports.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityPass:
		return "pass"
	case SeverityWarn:
		return "warn"
	case SeverityFail:
		return "fail"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MergeSeverities folds a list of severities into a single representative
// level: the maximum by ordinal, or SeverityInfo for an empty list. The
// merge is commutative and idempotent under duplication.
func MergeSeverities(severities []Severity) Severity {
	merged := SeverityInfo
	for _, s := range severities {
		if s > merged {
			merged = s
		}
	}
	return merged
}
