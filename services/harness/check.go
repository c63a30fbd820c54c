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

// CheckIntent declares the arity a check consumes: one slice, one slice
// plus its reference, or a group of slices sharing an input id.
type CheckIntent string

const (
	// CheckUnary evaluates each slice independently.
	CheckUnary CheckIntent = "unary"
	// CheckReference evaluates each slice against its positionally paired
	// reference slice.
	CheckReference CheckIntent = "reference"
	// CheckGroup evaluates groups of two or more slices sharing an input.
	CheckGroup CheckIntent = "group"
)

// Check evaluates the accumulated slices of a run and produces a merged
// severity plus a structured annotation.
//
// The union is closed: the only implementations are UnaryCheck,
// ReferenceCheck and GroupCheck. All three return an error rather than a
// silent INFO when the minimum cardinality is not met; the engine treats
// such errors as fatal to the run.
//
// Checks may hold internal configuration but must not mutate the shared
// slices they are handed.
type Check interface {
	// Name is the declared type name of the check (e.g. "matches_baseline").
	Name() string
	// Intent is the input shape this check consumes.
	Intent() CheckIntent
	// Params returns the check's own construction parameters for
	// reporting. Callers must not mutate the map.
	Params() map[string]any
	// Evaluate runs the check over all accumulated slices. references is
	// aligned positionally with slices for reference-intent checks and
	// empty otherwise.
	Evaluate(slices, references []*Slice) (Severity, Annotation, error)

	isCheck()
}

// UnaryCheckFunc evaluates a single slice.
type UnaryCheckFunc func(s *Slice) (Severity, Annotation, error)

// ReferenceCheckFunc evaluates a slice against its reference slice.
type ReferenceCheckFunc func(s, reference *Slice) (Severity, Annotation, error)

// GroupCheckFunc evaluates a group of slices sharing an input id. The group
// always has at least two members.
type GroupCheckFunc func(group []*Slice) (Severity, Annotation, error)

// UnaryCheck applies a per-slice check to every slice independently and
// merges the outcomes.
type UnaryCheck struct {
	name   string
	params map[string]any
	check  UnaryCheckFunc
}

// NewUnaryCheck builds a unary-intent check from a per-slice check function.
func NewUnaryCheck(name string, params map[string]any, check UnaryCheckFunc) *UnaryCheck {
	return &UnaryCheck{name: name, params: params, check: check}
}

func (c *UnaryCheck) Name() string           { return c.name }
func (c *UnaryCheck) Intent() CheckIntent    { return CheckUnary }
func (c *UnaryCheck) Params() map[string]any { return c.params }
func (c *UnaryCheck) isCheck()               {}

// Evaluate requires at least one slice. The annotation is keyed by slice
// id; each entry carries the per-slice severity label plus the per-slice
// annotation fields.
func (c *UnaryCheck) Evaluate(slices, _ []*Slice) (Severity, Annotation, error) {
	if len(slices) == 0 {
		return SeverityInfo, nil, fmt.Errorf("%s: %w", c.name, ErrNoSlices)
	}

	severities := make([]Severity, 0, len(slices))
	result := Annotation{}

	for _, s := range slices {
		severity, annotation, err := c.check(s)
		if err != nil {
			return SeverityInfo, nil, err
		}
		severities = append(severities, severity)
		result[s.ID()] = entryWithSeverity(severity, annotation)
	}

	return MergeSeverities(severities), result, nil
}

// ReferenceCheck applies a pairwise check to every (slice, reference) pair.
type ReferenceCheck struct {
	name   string
	params map[string]any
	check  ReferenceCheckFunc
}

// NewReferenceCheck builds a reference-intent check from a pairwise check
// function.
func NewReferenceCheck(name string, params map[string]any, check ReferenceCheckFunc) *ReferenceCheck {
	return &ReferenceCheck{name: name, params: params, check: check}
}

func (c *ReferenceCheck) Name() string           { return c.name }
func (c *ReferenceCheck) Intent() CheckIntent    { return CheckReference }
func (c *ReferenceCheck) Params() map[string]any { return c.params }
func (c *ReferenceCheck) isCheck()               {}

// Evaluate requires at least one slice and equal slice/reference counts.
// Pairing is positional, not looked-up: the caller must supply references
// in the same order as slices, and every pair is asserted to belong to the
// same input before the check runs.
func (c *ReferenceCheck) Evaluate(slices, references []*Slice) (Severity, Annotation, error) {
	if len(slices) == 0 {
		return SeverityInfo, nil, fmt.Errorf("%s: %w", c.name, ErrNoSlices)
	}
	if len(slices) != len(references) {
		return SeverityInfo, nil, fmt.Errorf("%s: %w: %d != %d",
			c.name, ErrCountMismatch, len(slices), len(references))
	}

	severities := make([]Severity, 0, len(slices))
	result := Annotation{}

	for i, s := range slices {
		reference := references[i]
		if s.InputID() != reference.InputID() {
			return SeverityInfo, nil, fmt.Errorf("%s: %w: %q != %q",
				c.name, ErrMisaligned, s.InputID(), reference.InputID())
		}

		severity, annotation, err := c.check(s, reference)
		if err != nil {
			return SeverityInfo, nil, err
		}
		severities = append(severities, severity)
		result[s.ID()] = entryWithSeverity(severity, annotation)
	}

	return MergeSeverities(severities), result, nil
}

// GroupCheck applies a relational check across groups of slices sharing an
// input id.
type GroupCheck struct {
	name   string
	params map[string]any
	check  GroupCheckFunc
}

// NewGroupCheck builds a group-intent check from a group check function.
func NewGroupCheck(name string, params map[string]any, check GroupCheckFunc) *GroupCheck {
	return &GroupCheck{name: name, params: params, check: check}
}

func (c *GroupCheck) Name() string           { return c.name }
func (c *GroupCheck) Intent() CheckIntent    { return CheckGroup }
func (c *GroupCheck) Params() map[string]any { return c.params }
func (c *GroupCheck) isCheck()               {}

// Evaluate requires at least one slice. Slices are partitioned by input id
// in order of first appearance; groups with fewer than two members are
// skipped — recorded by input id, not evaluated, and excluded from the
// merged severity (INFO if no group qualifies).
func (c *GroupCheck) Evaluate(slices, _ []*Slice) (Severity, Annotation, error) {
	if len(slices) == 0 {
		return SeverityInfo, nil, fmt.Errorf("%s: %w", c.name, ErrNoSlices)
	}

	order, groups := GroupSlices(slices)

	severities := make([]Severity, 0, len(order))
	results := Annotation{}
	skipped := make([]string, 0)

	for _, inputID := range order {
		group := groups[inputID]
		if len(group) < 2 {
			skipped = append(skipped, inputID)
			continue
		}

		severity, annotation, err := c.check(group)
		if err != nil {
			return SeverityInfo, nil, err
		}
		severities = append(severities, severity)
		results[inputID] = entryWithSeverity(severity, annotation)
	}

	out := Annotation{
		"groups":    results,
		"n_groups":  len(results),
		"skipped":   skipped,
		"n_skipped": len(skipped),
	}
	return MergeSeverities(severities), out, nil
}

// entryWithSeverity prefixes an annotation with its severity label.
func entryWithSeverity(severity Severity, annotation Annotation) Annotation {
	entry := Annotation{"severity": severity.String()}
	for k, v := range annotation {
		entry[k] = v
	}
	return entry
}
