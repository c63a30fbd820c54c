// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/vigil/services/harness"
)

// document is the raw declared form of a specification file. Sections are
// loosely typed because entries are heterogeneous: inputs may be scalars or
// mappings, variation entries may be null, strings, or mappings.
type document struct {
	Title      string `yaml:"title" json:"title"`
	Hypothesis string `yaml:"hypothesis" json:"hypothesis" validate:"required"`
	Inputs     any    `yaml:"inputs" json:"inputs" validate:"required"`
	Variations any    `yaml:"variations" json:"variations" validate:"required"`
	Checks     any    `yaml:"checks" json:"checks" validate:"required"`
}

// Specification is a fully resolved specification: parsed, validated, and
// with every declared component constructed. Configuration errors surface
// here, before any backend execution.
type Specification struct {
	// Path is the specification file the document was loaded from.
	Path string
	// Title is the declared title, or the load option default.
	Title string
	// Hypothesis is the declared hypothesis under test. Required.
	Hypothesis string

	// Inputs are the declared units of work, ids defaulted to ordinals.
	Inputs []harness.Input
	// Variations are the declared variation passes; nil entries denote
	// "no variation". Never empty: an empty declaration yields [nil].
	Variations []harness.Variation
	// Checks are the declared checks, in declaration order.
	Checks []harness.Check
}

// LoadOptions tunes specification loading.
type LoadOptions struct {
	// Registry resolves component type names. Defaults to DefaultRegistry.
	Registry *Registry
	// Ambient provides fallback parameter values. Defaults to
	// EnvironProvider.
	Ambient AmbientProvider
	// DefaultTitle is used when the document declares no title.
	DefaultTitle string
}

var validate = validator.New()

// Load reads, validates, and resolves a specification file.
//
// Description:
//
//	YAML is assumed unless the path ends in .json. The document must
//	declare a hypothesis and non-empty inputs, variations, and checks
//	sections (a "none" variation entry satisfies the latter). Every
//	component declaration is resolved through the registry; an
//	unresolvable name or missing required parameter fails the load.
//
// Inputs:
//   - path: The specification file path.
//   - opts: Optional loading configuration. May be nil.
//
// Outputs:
//   - *Specification: The resolved specification, nil on error.
//   - error: ErrInvalidSpec (wrapped) for document problems,
//     ErrUnknownComponent / ErrMissingParameter for resolution problems.
func Load(path string, opts *LoadOptions) (*Specification, error) {
	registry := DefaultRegistry
	ambient := AmbientProvider(EnvironProvider)
	defaultTitle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if opts != nil {
		if opts.Registry != nil {
			registry = opts.Registry
		}
		if opts.Ambient != nil {
			ambient = opts.Ambient
		}
		if opts.DefaultTitle != "" {
			defaultTitle = opts.DefaultTitle
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specification: %w", err)
	}

	var doc document
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &doc)
	} else {
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidSpec, path, err)
	}

	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, path, err)
	}

	s := &Specification{
		Path:       path,
		Title:      doc.Title,
		Hypothesis: doc.Hypothesis,
	}
	if s.Title == "" {
		s.Title = defaultTitle
	}

	l := &loader{registry: registry, ambient: ambient}

	if s.Inputs, err = l.loadInputs(doc.Inputs); err != nil {
		return nil, err
	}
	if s.Variations, err = l.loadVariations(doc.Variations); err != nil {
		return nil, err
	}
	if s.Checks, err = l.loadChecks(doc.Checks); err != nil {
		return nil, err
	}

	return s, nil
}

type loader struct {
	registry *Registry
	ambient  AmbientProvider
}

// sectionList normalises a section: scalars wrap into a one-element list,
// and an empty list is a document error.
func sectionList(name string, raw any) ([]any, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: section %q must be defined", ErrInvalidSpec, name)
	}
	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: section %q must declare at least one item", ErrInvalidSpec, name)
	}
	return list, nil
}

// loadInputs normalises declared inputs.
//
// A scalar entry becomes {id: ordinal, data: scalar}. A mapping entry takes
// "id" (defaulting to the ordinal) and "reference" out; the payload is the
// "data" key when present, otherwise the remaining keys. A mapping with
// nothing left beyond id/reference is rejected.
func (l *loader) loadInputs(raw any) ([]harness.Input, error) {
	list, err := sectionList("inputs", raw)
	if err != nil {
		return nil, err
	}

	inputs := make([]harness.Input, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			inputs = append(inputs, harness.Input{ID: strconv.Itoa(i), Data: item})
			continue
		}

		in := harness.Input{ID: strconv.Itoa(i)}
		if id, ok := entry["id"]; ok {
			in.ID = fmt.Sprintf("%v", id)
		}
		if reference, ok := entry["reference"]; ok {
			in.Reference = reference
		}

		if data, ok := entry["data"]; ok {
			in.Data = data
		} else {
			rest := make(map[string]any)
			for k, v := range entry {
				if k == "id" || k == "reference" {
					continue
				}
				rest[k] = v
			}
			if len(rest) == 0 {
				return nil, fmt.Errorf(
					"%w: inputs[%d] must contain data or fields besides id/reference", ErrInvalidSpec, i)
			}
			in.Data = rest
		}

		inputs = append(inputs, in)
	}
	return inputs, nil
}

// loadVariations resolves the variations section. Entries expand
// recursively: "none"/null contribute a nil pass, strings and mappings
// resolve through the registry, and "repeat" blocks multiply their inner
// entries. An empty result defaults to a single nil pass.
func (l *loader) loadVariations(raw any) ([]harness.Variation, error) {
	list, err := sectionList("variations", raw)
	if err != nil {
		return nil, err
	}

	var variations []harness.Variation
	for i, entry := range list {
		resolved, err := l.resolveVariationEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("variations[%d]: %w", i, err)
		}
		variations = append(variations, resolved...)
	}

	if len(variations) == 0 {
		variations = []harness.Variation{nil}
	}
	return variations, nil
}

func (l *loader) resolveVariationEntry(entry any) ([]harness.Variation, error) {
	switch e := entry.(type) {
	case nil:
		return []harness.Variation{nil}, nil

	case string:
		if e == "none" {
			return []harness.Variation{nil}, nil
		}
		v, err := l.registry.BuildVariation(e, NewParams(nil, l.ambient))
		if err != nil {
			return nil, err
		}
		return []harness.Variation{v}, nil

	case map[string]any:
		name, ok := e["type"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: entry must declare a type", ErrInvalidSpec)
		}

		if name == "repeat" {
			return l.resolveRepeat(e)
		}

		params := make(map[string]any, len(e))
		for k, v := range e {
			if k != "type" {
				params[k] = v
			}
		}
		v, err := l.registry.BuildVariation(name, NewParams(params, l.ambient))
		if err != nil {
			return nil, err
		}
		return []harness.Variation{v}, nil

	default:
		return nil, fmt.Errorf("%w: invalid component entry %v", ErrInvalidSpec, entry)
	}
}

// resolveRepeat expands {type: repeat, times: N, do: [...]} into its inner
// entries repeated N times, preserving inner order within each repetition.
func (l *loader) resolveRepeat(entry map[string]any) ([]harness.Variation, error) {
	times := 1
	if declared, ok := entry["times"]; ok {
		switch n := declared.(type) {
		case int:
			times = n
		case float64:
			times = int(n)
		default:
			return nil, fmt.Errorf("%w: repeat.times must be an integer", ErrInvalidSpec)
		}
	}
	if times < 0 {
		return nil, fmt.Errorf("%w: repeat.times must be >= 0", ErrInvalidSpec)
	}

	do, ok := entry["do"].([]any)
	if !ok || len(do) == 0 {
		return nil, fmt.Errorf("%w: repeat.do must be a non-empty list", ErrInvalidSpec)
	}

	var inner []harness.Variation
	for _, block := range do {
		resolved, err := l.resolveVariationEntry(block)
		if err != nil {
			return nil, err
		}
		inner = append(inner, resolved...)
	}

	out := make([]harness.Variation, 0, len(inner)*times)
	for n := 0; n < times; n++ {
		out = append(out, inner...)
	}
	return out, nil
}

// loadChecks resolves the checks section: bare type names or mappings with
// a "type" key.
func (l *loader) loadChecks(raw any) ([]harness.Check, error) {
	list, err := sectionList("checks", raw)
	if err != nil {
		return nil, err
	}

	checks := make([]harness.Check, 0, len(list))
	for i, entry := range list {
		switch e := entry.(type) {
		case string:
			c, err := l.registry.BuildCheck(e, NewParams(nil, l.ambient))
			if err != nil {
				return nil, fmt.Errorf("checks[%d]: %w", i, err)
			}
			checks = append(checks, c)

		case map[string]any:
			name, ok := e["type"].(string)
			if !ok || name == "" {
				return nil, fmt.Errorf("%w: checks[%d] must declare a type", ErrInvalidSpec, i)
			}
			params := make(map[string]any, len(e))
			for k, v := range e {
				if k != "type" {
					params[k] = v
				}
			}
			c, err := l.registry.BuildCheck(name, NewParams(params, l.ambient))
			if err != nil {
				return nil, fmt.Errorf("checks[%d]: %w", i, err)
			}
			checks = append(checks, c)

		default:
			return nil, fmt.Errorf("%w: checks[%d] invalid component entry %v", ErrInvalidSpec, i, entry)
		}
	}
	return checks, nil
}
