// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vigil/services/harness"
)

func builderForTest() *Builder {
	return NewBuilder(
		Meta{Title: "typo robustness", Hypothesis: "typos do not change answers"},
		harness.Snapshot{Type: "noop", Function: harness.Config{"fn": "base"}},
		[]harness.Input{
			{ID: "a", Data: "question a"},
			{ID: "b", Data: "question b", Reference: "known answer"},
		},
	)
}

func TestBuilder_AccumulatesDocument(t *testing.T) {
	b := builderForTest()

	tune := harness.NewFunctionVariation("tune", map[string]any{"temp": 0.5}, func(cfg harness.Config) (harness.Config, error) {
		return cfg, nil
	})

	b.StartVariation(0, 2, nil)
	b.FinishVariation(0, 2, nil, 2, 120*time.Millisecond)
	b.StartVariation(1, 2, tune)
	b.FinishVariation(1, 2, tune, 2, 80*time.Millisecond)

	b.StartCheck(0, 2, "matches_baseline")
	b.FinishCheck("matches_baseline", harness.SeverityFail, harness.Annotation{"mismatches": 1})
	b.StartCheck(1, 2, "summary")
	b.FinishCheck("summary", harness.SeverityPass, nil)

	doc := b.Document()

	assert.NotEmpty(t, doc.Meta.RunID)
	assert.False(t, doc.Meta.Started.IsZero())
	assert.Equal(t, "typo robustness", doc.Meta.Title)

	require.Len(t, doc.Inputs, 2)
	assert.False(t, doc.Inputs[0].HasReference)
	assert.True(t, doc.Inputs[1].HasReference)

	require.Len(t, doc.Variations, 2)
	assert.Equal(t, "none", doc.Variations[0].Name)
	assert.Empty(t, doc.Variations[0].Intent)
	assert.Equal(t, "tune", doc.Variations[1].Name)
	assert.Equal(t, "function", doc.Variations[1].Intent)
	assert.Equal(t, 0.5, doc.Variations[1].Params["temp"])
	assert.Equal(t, int64(80), doc.Variations[1].DurationMS)

	require.Len(t, doc.Checks, 2)
	assert.Equal(t, "fail", doc.Checks[0].Severity)
	assert.Equal(t, 1, doc.Checks[0].Annotation["mismatches"])

	// Verdict is the max-merge of all check severities.
	assert.Equal(t, "fail", doc.Severity)
	assert.Equal(t, harness.SeverityFail, b.Severity())
}

func TestBuilder_NoChecksVerdictIsInfo(t *testing.T) {
	doc := builderForTest().Document()
	assert.Equal(t, "info", doc.Severity)
}

func TestSanitize(t *testing.T) {
	t.Run("nested structures pass through", func(t *testing.T) {
		v := Sanitize(map[string]any{
			"list":   []any{1, "two", map[string]any{"k": true}},
			"nested": harness.Annotation{"severity": harness.SeverityWarn},
		})
		m := v.(map[string]any)
		assert.Equal(t, []any{1, "two", map[string]any{"k": true}}, m["list"])
		assert.Equal(t, map[string]any{"severity": "warn"}, m["nested"])
	})

	t.Run("unknown types are stringified", func(t *testing.T) {
		type opaque struct{ X int }
		v := Sanitize(map[string]any{"o": opaque{X: 1}})
		assert.Equal(t, "{1}", v.(map[string]any)["o"])
	})
}

func TestWrite_RoundTrip(t *testing.T) {
	b := builderForTest()
	b.FinishCheck("matches_baseline", harness.SeverityPass, harness.Annotation{"n": 2})
	doc := b.Document()

	dir := t.TempDir()
	path, err := Write(doc, dir, "typo-robustness")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, dir))
	assert.True(t, strings.HasSuffix(path, ".report.yml"))
	assert.Contains(t, path, "typo-robustness-")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	parsed, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, doc.Meta.RunID, parsed.Meta.RunID)
	assert.Equal(t, "pass", parsed.Severity)
	require.Len(t, parsed.Checks, 1)
	assert.Equal(t, 2, parsed.Checks[0].Annotation["n"])
}
