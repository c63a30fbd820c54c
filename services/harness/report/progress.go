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
	"log/slog"
	"time"

	"github.com/AleutianAI/vigil/services/harness"
)

// Progress logs engine progress as structured events. It carries no state,
// so it can wrap any run without affecting the document builder.
type Progress struct {
	log *slog.Logger
}

// NewProgress builds a progress reporter. logger defaults to slog.Default.
func NewProgress(logger *slog.Logger) *Progress {
	if logger == nil {
		logger = slog.Default()
	}
	return &Progress{log: logger}
}

func (p *Progress) StartVariation(index, total int, variation harness.Variation) {
	name := "none"
	if variation != nil {
		name = variation.Name()
	}
	p.log.Info("variation pass", "variation", name, "pass", index+1, "of", total)
}

func (p *Progress) FinishVariation(_, _ int, variation harness.Variation, nInputs int, duration time.Duration) {
	name := "none"
	if variation != nil {
		name = variation.Name()
	}
	p.log.Info("variation pass done", "variation", name, "inputs", nInputs,
		"duration", duration.Round(time.Millisecond).String())
}

func (p *Progress) StartCheck(index, total int, name string) {
	p.log.Info("check", "check", name, "pass", index+1, "of", total)
}

func (p *Progress) FinishCheck(name string, severity harness.Severity, _ harness.Annotation) {
	p.log.Info("check done", "check", name, "severity", severity.String())
}

// Multi fans engine callbacks out to several reporters, in order.
type Multi []harness.Reporter

func (m Multi) StartVariation(index, total int, variation harness.Variation) {
	for _, r := range m {
		r.StartVariation(index, total, variation)
	}
}

func (m Multi) FinishVariation(index, total int, variation harness.Variation, nInputs int, duration time.Duration) {
	for _, r := range m {
		r.FinishVariation(index, total, variation, nInputs, duration)
	}
}

func (m Multi) StartCheck(index, total int, name string) {
	for _, r := range m {
		r.StartCheck(index, total, name)
	}
}

func (m Multi) FinishCheck(name string, severity harness.Severity, annotation harness.Annotation) {
	for _, r := range m {
		r.FinishCheck(name, severity, annotation)
	}
}
