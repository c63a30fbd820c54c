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

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

func init() {
	spec.DefaultRegistry.MustRegisterVariation("insert_junk_characters", newInsertJunkCharacters)
	spec.DefaultRegistry.MustRegisterVariation("add_boilerplate", newAddBoilerplate)
	spec.DefaultRegistry.MustRegisterVariation("inject_headline", newInjectHeadline)
}

// defaultJunkChars are benign but tokenizer-hostile unicode characters:
// valid text, no invalid bytes.
var defaultJunkChars = []string{
	"\u200b", // zero width space
	"\u2060", // word joiner
	"\u00a0", // no-break space
	"\u202f", // narrow no-break space
	"\u2026", // ellipsis
	"\u201c", // left smart quote
	"\u201d", // right smart quote
}

var defaultBoilerplate = []string{
	"Sent from my iPhone",
	"Disclaimer: This message may contain confidential information.",
	"If you received this in error, please delete it and notify the sender.",
	"Unsubscribe: https://example.com/unsubscribe?id=123",
	"Read on the web: https://example.com/article?utm_source=email&utm_medium=footer",
	"-----Original Message-----",
}

var defaultHeadlines = []string{
	"Breaking: Product feedback report",
	"Customer Review Summary",
	"Excerpt",
	"Internal Memo",
	"Published on 2026-02-10",
	"Read more: https://example.com",
}

// newInsertJunkCharacters sprinkles invisible or typographic unicode
// characters through input.data.text at random positions.
//
// Parameters: seed (default 0), chars (default zero-width and smart-quote
// characters), count (default 5, must be >= 0).
func newInsertJunkCharacters(params spec.Params) (harness.Variation, error) {
	seed, err := params.Int("seed", 0)
	if err != nil {
		return nil, err
	}
	chars, err := params.StringSlice("chars", defaultJunkChars)
	if err != nil {
		return nil, err
	}
	count, err := params.Int("count", 5)
	if err != nil {
		return nil, err
	}

	if len(chars) == 0 {
		return nil, fmt.Errorf("%w: chars must be a non-empty list of strings", spec.ErrInvalidParameter)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be >= 0", spec.ErrInvalidParameter)
	}

	return textVariation("insert_junk_characters", params, seed, func(text string, rng *rand.Rand) (string, error) {
		if text == "" || count == 0 {
			return text, nil
		}
		out := splitChars(text)
		for n := 0; n < count; n++ {
			pos := rng.Intn(len(out) + 1)
			junk := chars[rng.Intn(len(chars))]
			out = append(out[:pos], append([]string{junk}, out[pos:]...)...)
		}
		return strings.Join(out, ""), nil
	}), nil
}

// newAddBoilerplate appends signature/disclaimer style lines to
// input.data.text, mimicking real-world ingestion artefacts.
//
// Lines are drawn without replacement until the template pool runs dry,
// then with replacement.
//
// Parameters: seed (default 0), templates (default builtin disclaimers),
// n_lines (default 2, must be >= 1), separator (default blank line).
func newAddBoilerplate(params spec.Params) (harness.Variation, error) {
	seed, err := params.Int("seed", 0)
	if err != nil {
		return nil, err
	}
	templates, err := params.StringSlice("templates", defaultBoilerplate)
	if err != nil {
		return nil, err
	}
	nLines, err := params.Int("n_lines", 2)
	if err != nil {
		return nil, err
	}
	separator, err := params.String("separator", "\n\n")
	if err != nil {
		return nil, err
	}

	if nLines < 1 {
		return nil, fmt.Errorf("%w: n_lines must be >= 1", spec.ErrInvalidParameter)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: templates must be a non-empty list of strings", spec.ErrInvalidParameter)
	}

	return textVariation("add_boilerplate", params, seed, func(text string, rng *rand.Rand) (string, error) {
		pool := make([]string, len(templates))
		copy(pool, templates)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		chosen := make([]string, 0, nLines)
		for len(chosen) < nLines {
			if len(pool) > 0 {
				chosen = append(chosen, pool[len(pool)-1])
				pool = pool[:len(pool)-1]
			} else {
				chosen = append(chosen, templates[rng.Intn(len(templates))])
			}
		}

		return text + separator + strings.Join(chosen, "\n"), nil
	}), nil
}

// newInjectHeadline prepends one headline line to input.data.text,
// mimicking scraped or formatted documents.
//
// Parameters: seed (default 0), templates (default builtin headlines),
// separator (default blank line).
func newInjectHeadline(params spec.Params) (harness.Variation, error) {
	seed, err := params.Int("seed", 0)
	if err != nil {
		return nil, err
	}
	templates, err := params.StringSlice("templates", defaultHeadlines)
	if err != nil {
		return nil, err
	}
	separator, err := params.String("separator", "\n\n")
	if err != nil {
		return nil, err
	}

	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: templates must be a non-empty list of strings", spec.ErrInvalidParameter)
	}

	return textVariation("inject_headline", params, seed, func(text string, rng *rand.Rand) (string, error) {
		headline := templates[rng.Intn(len(templates))]
		return headline + separator + text, nil
	}), nil
}
