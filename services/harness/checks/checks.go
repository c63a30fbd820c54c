// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package checks provides the builtin check catalogue.
//
// Importing this package (usually blank) registers every builtin into
// spec.DefaultRegistry.
package checks

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

func init() {
	spec.DefaultRegistry.MustRegisterCheck("matches_baseline", newMatchesBaseline)
	spec.DefaultRegistry.MustRegisterCheck("summary", newSummary)
}

// newMatchesBaseline asserts each slice's output equals its reference
// output, attaching a bounded diff on mismatch.
//
// Equality is structural over the JSON normalisation of both outputs, so an
// int 1 and a float 1.0 compare equal the way they would after a
// serialisation round trip.
//
// Parameters: include_diff (default true), max_lines (default 200).
func newMatchesBaseline(params spec.Params) (harness.Check, error) {
	includeDiff, err := params.Bool("include_diff", true)
	if err != nil {
		return nil, err
	}
	maxLines, err := params.Int("max_lines", 200)
	if err != nil {
		return nil, err
	}
	if maxLines < 0 {
		return nil, fmt.Errorf("%w: max_lines must be >= 0", spec.ErrInvalidParameter)
	}

	return harness.NewReferenceCheck("matches_baseline", params.Declared(),
		func(s, reference *harness.Slice) (harness.Severity, harness.Annotation, error) {
			got, err := normalize(s.Output)
			if err != nil {
				return 0, nil, fmt.Errorf("matches_baseline: normalise slice output: %w", err)
			}
			want, err := normalize(reference.Output)
			if err != nil {
				return 0, nil, fmt.Errorf("matches_baseline: normalise reference output: %w", err)
			}

			if cmp.Equal(want, got) {
				return harness.SeverityPass, harness.Annotation{
					"input_id": s.InputID(),
					"matched":  true,
				}, nil
			}

			ann := harness.Annotation{
				"input_id":            s.InputID(),
				"matched":             false,
				"reference_timestamp": reference.Timestamp,
				"slice_timestamp":     s.Timestamp,
			}
			if includeDiff {
				diff := strings.Split(strings.TrimRight(cmp.Diff(want, got), "\n"), "\n")
				ann["diff_truncated"] = len(diff) > maxLines
				if len(diff) > maxLines {
					diff = diff[:maxLines]
				}
				ann["diff"] = diff
			}
			return harness.SeverityFail, ann, nil
		}), nil
}

// newSummary records each slice's raw output at INFO severity, optionally
// truncating mapping outputs to max_items entries (by sorted key).
//
// Parameters: max_items (default unlimited).
func newSummary(params spec.Params) (harness.Check, error) {
	maxItems, err := params.Int("max_items", -1)
	if err != nil {
		return nil, err
	}

	return harness.NewUnaryCheck("summary", params.Declared(),
		func(s *harness.Slice) (harness.Severity, harness.Annotation, error) {
			out := s.Output
			truncated := false

			if maxItems >= 0 {
				if m, ok := out.(map[string]any); ok && len(m) > maxItems {
					keys := make([]string, 0, len(m))
					for k := range m {
						keys = append(keys, k)
					}
					sort.Strings(keys)

					kept := make(map[string]any, maxItems)
					for _, k := range keys[:maxItems] {
						kept[k] = m[k]
					}
					out = kept
					truncated = true
				}
			}

			return harness.SeverityInfo, harness.Annotation{
				"slice_id":  s.ID(),
				"output":    out,
				"truncated": truncated,
			}, nil
		}), nil
}

// normalize round-trips a value through JSON so structurally equivalent
// outputs compare equal regardless of concrete Go types.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
