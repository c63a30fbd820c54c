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
	"strings"
	"unicode"

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

func init() {
	spec.DefaultRegistry.MustRegisterVariation("add_typos", newAddTypos)
}

var typoOps = map[string]bool{"swap": true, "delete": true, "replace": true}

// newAddTypos applies light typographical noise to input.data.text.
//
// Supported edit operations:
//   - swap: swap a letter with the adjacent letter to its right
//   - delete: drop a letter
//   - replace: substitute a letter with a nearby alternative (vowels swap
//     within vowels, consonants shift one step in the alphabet)
//
// Parameters: seed (default 0), ops (default all three), n_edits
// (default 3, must be >= 0).
func newAddTypos(params spec.Params) (harness.Variation, error) {
	seed, err := params.Int("seed", 0)
	if err != nil {
		return nil, err
	}
	ops, err := params.StringSlice("ops", []string{"swap", "delete", "replace"})
	if err != nil {
		return nil, err
	}
	nEdits, err := params.Int("n_edits", 3)
	if err != nil {
		return nil, err
	}

	if nEdits < 0 {
		return nil, fmt.Errorf("%w: n_edits must be >= 0", spec.ErrInvalidParameter)
	}
	for _, op := range ops {
		if !typoOps[op] {
			return nil, fmt.Errorf("%w: ops may contain only swap, delete, replace (got %q)", spec.ErrInvalidParameter, op)
		}
	}

	return textVariation("add_typos", params, seed, func(text string, rng *rand.Rand) (string, error) {
		return applyTypos(text, rng, ops, nEdits), nil
	}), nil
}

func applyTypos(text string, rng *rand.Rand, ops []string, nEdits int) string {
	runes := []rune(text)
	chars := make([]string, len(runes))
	var alphaPositions []int
	for i, r := range runes {
		chars[i] = string(r)
		if unicode.IsLetter(r) {
			alphaPositions = append(alphaPositions, i)
		}
	}

	if len(alphaPositions) < 2 || nEdits == 0 {
		return text
	}

	for n := 0; n < nEdits; n++ {
		op := "swap"
		if len(ops) > 0 {
			op = ops[rng.Intn(len(ops))]
		}
		i := alphaPositions[rng.Intn(len(alphaPositions))]

		switch op {
		case "swap":
			j := i + 1
			if j < len(chars) && isLetterString(chars[j]) && isLetterString(chars[i]) {
				chars[i], chars[j] = chars[j], chars[i]
			}
		case "delete":
			if isLetterString(chars[i]) {
				chars[i] = ""
			}
		case "replace":
			if isLetterString(chars[i]) {
				chars[i] = replacementFor(chars[i], rng)
			}
		}
	}

	return strings.Join(chars, "")
}

func isLetterString(s string) bool {
	r := []rune(s)
	return len(r) == 1 && unicode.IsLetter(r[0])
}

// replacementFor picks a readable substitute: vowels stay vowels of the
// same case, consonants shift one step in the alphabet.
func replacementFor(s string, rng *rand.Rand) string {
	const vowelsLower = "aeiou"
	const vowelsUpper = "AEIOU"

	c := []rune(s)[0]
	if strings.ContainsRune(vowelsLower, c) {
		return string(vowelsLower[rng.Intn(len(vowelsLower))])
	}
	if strings.ContainsRune(vowelsUpper, c) {
		return string(vowelsUpper[rng.Intn(len(vowelsUpper))])
	}
	if c < 'A' || c > 'z' || (c > 'Z' && c < 'a') {
		return s
	}

	base := rune('a')
	if unicode.IsUpper(c) {
		base = 'A'
	}
	off := int(c - base)
	step := 1
	if rng.Intn(2) == 0 {
		step = -1
	}
	off += step
	if off < 0 {
		off = 0
	}
	if off > 25 {
		off = 25
	}
	return string(base + rune(off))
}
