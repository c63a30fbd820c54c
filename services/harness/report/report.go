// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report accumulates one run's results into a serialisable document.
//
// A Builder implements harness.Reporter, so the engine streams variation and
// check results into it as they happen; the finished Document is then written
// as YAML next to the specification file, or archived.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/vigil/services/harness"
)

// Meta identifies a run: who, what, when.
type Meta struct {
	RunID      string    `yaml:"run_id" json:"run_id"`
	Started    time.Time `yaml:"started" json:"started"`
	Spec       string    `yaml:"spec,omitempty" json:"spec,omitempty"`
	Title      string    `yaml:"title" json:"title"`
	Hypothesis string    `yaml:"hypothesis" json:"hypothesis"`
}

// InputRecord is the declared-input provenance carried in the document.
type InputRecord struct {
	ID           string `yaml:"id" json:"id"`
	Data         any    `yaml:"data" json:"data"`
	HasReference bool   `yaml:"has_reference" json:"has_reference"`
}

// VariationRecord captures one finished variation pass.
type VariationRecord struct {
	Name       string         `yaml:"name" json:"name"`
	Intent     string         `yaml:"intent,omitempty" json:"intent,omitempty"`
	Params     map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	NInputs    int            `yaml:"n_inputs" json:"n_inputs"`
	DurationMS int64          `yaml:"duration_ms" json:"duration_ms"`
}

// CheckRecord captures one finished check evaluation.
type CheckRecord struct {
	Name       string         `yaml:"name" json:"name"`
	Severity   string         `yaml:"severity" json:"severity"`
	Annotation map[string]any `yaml:"annotation,omitempty" json:"annotation,omitempty"`
}

// Document is the complete run report.
type Document struct {
	Meta       Meta              `yaml:"meta" json:"meta"`
	Backend    harness.Snapshot  `yaml:"backend" json:"backend"`
	Inputs     []InputRecord     `yaml:"inputs" json:"inputs"`
	Variations []VariationRecord `yaml:"variations" json:"variations"`
	Checks     []CheckRecord     `yaml:"checks" json:"checks"`

	// Severity is the run verdict: the merge of all check severities.
	Severity string `yaml:"severity" json:"severity"`
}

// Builder accumulates engine callbacks into a Document.
//
// Thread Safety: NOT safe for concurrent use. The engine drives it
// sequentially from a single goroutine.
type Builder struct {
	doc      Document
	severity harness.Severity
}

// NewBuilder starts a document for one run. The run id is generated here;
// backend provenance is captured as the pre-run snapshot.
func NewBuilder(meta Meta, backend harness.Snapshot, inputs []harness.Input) *Builder {
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.Started.IsZero() {
		meta.Started = time.Now().UTC()
	}

	records := make([]InputRecord, 0, len(inputs))
	for _, in := range inputs {
		records = append(records, InputRecord{
			ID:           in.ID,
			Data:         Sanitize(in.Data),
			HasReference: in.Reference != nil,
		})
	}

	return &Builder{
		doc: Document{
			Meta:    meta,
			Backend: backend,
			Inputs:  records,
		},
		severity: harness.SeverityInfo,
	}
}

// StartVariation implements harness.Reporter.
func (b *Builder) StartVariation(int, int, harness.Variation) {}

// FinishVariation implements harness.Reporter.
func (b *Builder) FinishVariation(_, _ int, variation harness.Variation, nInputs int, duration time.Duration) {
	record := VariationRecord{
		Name:       "none",
		NInputs:    nInputs,
		DurationMS: duration.Milliseconds(),
	}
	if variation != nil {
		record.Name = variation.Name()
		record.Intent = string(variation.Intent())
		if params := variation.Params(); len(params) > 0 {
			record.Params = sanitizeMap(params)
		}
	}
	b.doc.Variations = append(b.doc.Variations, record)
}

// StartCheck implements harness.Reporter.
func (b *Builder) StartCheck(int, int, string) {}

// FinishCheck implements harness.Reporter.
func (b *Builder) FinishCheck(name string, severity harness.Severity, annotation harness.Annotation) {
	record := CheckRecord{
		Name:     name,
		Severity: severity.String(),
	}
	if len(annotation) > 0 {
		record.Annotation = sanitizeMap(annotation)
	}
	b.doc.Checks = append(b.doc.Checks, record)
	b.severity = harness.MergeSeverities([]harness.Severity{b.severity, severity})
}

// Severity returns the run verdict accumulated so far.
func (b *Builder) Severity() harness.Severity { return b.severity }

// Document finalises and returns the accumulated document.
func (b *Builder) Document() *Document {
	doc := b.doc
	doc.Severity = b.severity.String()
	return &doc
}

// Sanitize converts a value into plain YAML/JSON-serialisable shapes:
// maps, slices, scalars, and strings. Anything else is stringified rather
// than dropped, so the report never loses a field to a marshalling error.
func Sanitize(v any) any {
	switch t := v.(type) {
	case nil, bool, int, int32, int64, float32, float64, string, time.Time:
		return t
	case harness.Severity:
		return t.String()
	case harness.Annotation:
		return sanitizeMap(t)
	case map[string]any:
		return sanitizeMap(t)
	case harness.Config:
		return sanitizeMap(t)
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Sanitize(item)
		}
		return out
	default:
		return fmt.Sprintf("%v", t)
	}
}

func sanitizeMap[M ~map[string]any](m M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Sanitize(v)
	}
	return out
}
