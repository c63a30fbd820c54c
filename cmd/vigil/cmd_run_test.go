// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vigil/services/harness/report"
	"github.com/AleutianAI/vigil/services/harness/storage/archive"
)

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t,
		"Behavioural verification of noop with respect to typo robustness",
		deriveTitle("/tmp/typo_robustness.yml", "noop"))
	assert.Equal(t,
		"Behavioural verification of noop with respect to typo robustness",
		deriveTitle("typo-robustness.json", "noop"))
}

func TestParseConfigFlag(t *testing.T) {
	cfg, err := parseConfigFlag("environment", `{"region": "local"}`)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg["region"])

	cfg, err = parseConfigFlag("environment", "")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = parseConfigFlag("environment", "not json")
	assert.Error(t, err)
}

func TestRunner_RunOnce(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "echo-stability.yml")
	require.NoError(t, os.WriteFile(specPath, []byte(`
hypothesis: The system is deterministic for identical inputs.
inputs:
  - id: greeting
    text: "hello there"
variations:
  - none
checks:
  - matches_baseline
  - summary
`), 0o644))

	store, err := archive.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	r := &runner{
		specPath: specPath,
		system:   "noop",
		outDir:   dir,
		store:    store,
	}
	require.NoError(t, r.runOnce(context.Background()))

	matches, err := filepath.Glob(filepath.Join(dir, "echo-stability-*.report.yml"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	doc, err := report.Unmarshal(raw)
	require.NoError(t, err)

	// The noop system is deterministic, so the unvaried pass matches the
	// reference and the run passes.
	assert.Equal(t, "pass", doc.Severity)
	assert.Equal(t, "The system is deterministic for identical inputs.", doc.Meta.Hypothesis)
	require.Len(t, doc.Variations, 1)
	assert.Equal(t, "none", doc.Variations[0].Name)
	require.Len(t, doc.Checks, 2)

	// The same document landed in the archive.
	archived, err := store.Get(doc.Meta.RunID)
	require.NoError(t, err)
	assert.Equal(t, "pass", archived.Severity)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, doc.Meta.RunID, entries[0].RunID)
}

func TestRunner_RunOnce_FailurePropagates(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(specPath, []byte(`
hypothesis: h
inputs: [{text: q}]
variations: [teleport]
checks: [matches_baseline]
`), 0o644))

	r := &runner{specPath: specPath, system: "noop", outDir: dir}
	assert.Error(t, r.runOnce(context.Background()))
}
