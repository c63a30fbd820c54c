// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package variations

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

func init() {
	spec.DefaultRegistry.MustRegisterVariation("perturb_whitespace", newPerturbWhitespace)
	spec.DefaultRegistry.MustRegisterVariation("perturb_linebreaks", newPerturbLinebreaks)
}

var (
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
	linebreakRuns  = regexp.MustCompile(`\s*\n+\s*`)
)

// newPerturbWhitespace perturbs whitespace in input.data.text without
// changing semantic content.
//
// Modes:
//   - collapse: collapse runs of spaces/tabs to a single space, keeping
//     newlines
//   - expand: add extra spaces at a fraction of existing space positions
//   - tabs: replace a fraction of spaces with tabs
//
// Parameters: mode (default collapse), seed (default 0), intensity
// (default 0.15, clamped to [0, 1]).
func newPerturbWhitespace(params spec.Params) (harness.Variation, error) {
	mode, err := params.String("mode", "collapse")
	if err != nil {
		return nil, err
	}
	seed, err := params.Int("seed", 0)
	if err != nil {
		return nil, err
	}
	intensity, err := params.Float("intensity", 0.15)
	if err != nil {
		return nil, err
	}
	if mode != "collapse" && mode != "expand" && mode != "tabs" {
		return nil, fmt.Errorf("%w: mode must be one of collapse, expand, tabs (got %q)", spec.ErrInvalidParameter, mode)
	}

	return textVariation("perturb_whitespace", params, seed, func(text string, rng *rand.Rand) (string, error) {
		switch mode {
		case "collapse":
			return horizontalRuns.ReplaceAllString(text, " "), nil

		case "expand":
			chars := splitChars(text)
			chosen := sampleSpaces(chars, intensity, rng)
			sort.Sort(sort.Reverse(sort.IntSlice(chosen)))
			for _, i := range chosen {
				extra := "  "
				if rng.Float64() >= 0.7 {
					extra = "   "
				}
				chars = append(chars[:i], append([]string{extra}, chars[i:]...)...)
			}
			return strings.Join(chars, ""), nil

		default: // tabs
			chars := splitChars(text)
			for _, i := range sampleSpaces(chars, intensity, rng) {
				chars[i] = "\t"
			}
			return strings.Join(chars, ""), nil
		}
	}), nil
}

// newPerturbLinebreaks perturbs line breaks and paragraph structure in
// input.data.text.
//
// Modes:
//   - insert: replace a fraction of spaces with newlines (sometimes double)
//   - remove: fold all line breaks into single spaces and normalise runs
//   - wrap: re-wrap long lines at approximately wrap_width characters
//
// Parameters: mode (default insert), seed (default 0), intensity
// (default 0.08), wrap_width (default 60).
func newPerturbLinebreaks(params spec.Params) (harness.Variation, error) {
	mode, err := params.String("mode", "insert")
	if err != nil {
		return nil, err
	}
	seed, err := params.Int("seed", 0)
	if err != nil {
		return nil, err
	}
	intensity, err := params.Float("intensity", 0.08)
	if err != nil {
		return nil, err
	}
	wrapWidth, err := params.Int("wrap_width", 60)
	if err != nil {
		return nil, err
	}
	if mode != "insert" && mode != "remove" && mode != "wrap" {
		return nil, fmt.Errorf("%w: mode must be one of insert, remove, wrap (got %q)", spec.ErrInvalidParameter, mode)
	}
	if wrapWidth < 1 {
		return nil, fmt.Errorf("%w: wrap_width must be >= 1", spec.ErrInvalidParameter)
	}

	return textVariation("perturb_linebreaks", params, seed, func(text string, rng *rand.Rand) (string, error) {
		switch mode {
		case "remove":
			text = linebreakRuns.ReplaceAllString(text, " ")
			return strings.TrimSpace(horizontalRuns.ReplaceAllString(text, " ")), nil

		case "insert":
			chars := splitChars(text)
			for _, i := range sampleSpaces(chars, intensity, rng) {
				if rng.Float64() < 0.75 {
					chars[i] = "\n"
				} else {
					chars[i] = "\n\n"
				}
			}
			return strings.Join(chars, ""), nil

		default: // wrap
			return wrapLines(text, wrapWidth), nil
		}
	}), nil
}

// splitChars breaks text into per-rune strings so edits can replace a
// position with a multi-character substitute.
func splitChars(text string) []string {
	runes := []rune(text)
	chars := make([]string, len(runes))
	for i, r := range runes {
		chars[i] = string(r)
	}
	return chars
}

// sampleSpaces picks a fraction of the space positions, shuffled, with the
// fraction clamped to [0, 1].
func sampleSpaces(chars []string, intensity float64, rng *rand.Rand) []int {
	var positions []int
	for i, c := range chars {
		if c == " " {
			positions = append(positions, i)
		}
	}
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}
	n := int(float64(len(positions)) * intensity)
	rng.Shuffle(len(positions), func(i, j int) {
		positions[i], positions[j] = positions[j], positions[i]
	})
	return positions[:n]
}

// wrapLines re-wraps every line at approximately width characters,
// preferring to break at the nearest space before the width.
func wrapLines(text string, width int) string {
	blocks := strings.Split(text, "\n")
	var out []string
	for _, block := range blocks {
		line := []rune(block)
		for len(line) > width {
			cut := lastSpaceBefore(line, width+1)
			if cut <= 0 {
				cut = width
			}
			out = append(out, strings.TrimRight(string(line[:cut]), " \t"))
			line = []rune(strings.TrimLeft(string(line[cut:]), " \t"))
		}
		out = append(out, string(line))
	}
	return strings.Join(out, "\n")
}

func lastSpaceBefore(line []rune, limit int) int {
	if limit > len(line) {
		limit = len(line)
	}
	for i := limit - 1; i >= 0; i-- {
		if line[i] == ' ' {
			return i
		}
	}
	return -1
}
