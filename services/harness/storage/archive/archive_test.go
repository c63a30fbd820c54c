// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vigil/services/harness/report"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func docFor(runID string, started time.Time, severity string) *report.Document {
	return &report.Document{
		Meta: report.Meta{
			RunID:      runID,
			Started:    started,
			Title:      "run " + runID,
			Hypothesis: "h",
		},
		Severity: severity,
	}
}

func TestArchive_PutGetRoundTrip(t *testing.T) {
	a := openTestArchive(t)

	doc := docFor("run-1", time.Now().UTC().Truncate(time.Millisecond), "pass")
	doc.Checks = []report.CheckRecord{{Name: "matches_baseline", Severity: "pass"}}
	require.NoError(t, a.Put(doc))

	got, err := a.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Meta.RunID, got.Meta.RunID)
	assert.Equal(t, doc.Meta.Title, got.Meta.Title)
	assert.Equal(t, "pass", got.Severity)
	require.Len(t, got.Checks, 1)
	assert.Equal(t, "matches_baseline", got.Checks[0].Name)
}

func TestArchive_GetMissing(t *testing.T) {
	a := openTestArchive(t)
	_, err := a.Get("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchive_PutRejectsMissingRunID(t *testing.T) {
	a := openTestArchive(t)
	err := a.Put(&report.Document{})
	assert.Error(t, err)
}

func TestArchive_ListNewestFirst(t *testing.T) {
	a := openTestArchive(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		doc := docFor(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour), "pass")
		require.NoError(t, a.Put(doc))
	}

	entries, err := a.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i := 0; i < 4; i++ {
		assert.True(t, entries[i].Started.After(entries[i+1].Started),
			"entry %d (%v) should be newer than entry %d (%v)",
			i, entries[i].Started, i+1, entries[i+1].Started)
	}
	assert.Equal(t, "run-4", entries[0].RunID)

	limited, err := a.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "run-4", limited[0].RunID)
	assert.Equal(t, "run-3", limited[1].RunID)
}

func TestArchive_Delete(t *testing.T) {
	a := openTestArchive(t)

	doc := docFor("run-1", time.Now().UTC(), "warn")
	require.NoError(t, a.Put(doc))
	require.NoError(t, a.Delete("run-1"))

	_, err := a.Get("run-1")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := a.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, a.Delete("run-1"), ErrNotFound)
}
