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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vigil/services/harness"
	"github.com/AleutianAI/vigil/services/harness/spec"
)

func build(t *testing.T, name string, params map[string]any) harness.Variation {
	t.Helper()
	v, err := spec.DefaultRegistry.BuildVariation(name, spec.NewParams(params, nil))
	require.NoError(t, err)
	return v
}

func textBatch(texts ...string) []harness.Input {
	batch := make([]harness.Input, len(texts))
	for i, text := range texts {
		batch[i] = harness.Input{ID: string(rune('a' + i)), Data: map[string]any{"text": text}}
	}
	return batch
}

func textsOf(t *testing.T, batch []harness.Input) []string {
	t.Helper()
	out := make([]string, len(batch))
	for i, in := range batch {
		out[i] = in.Data.(map[string]any)["text"].(string)
	}
	return out
}

func TestBuiltinsAreRegistered(t *testing.T) {
	names := spec.DefaultRegistry.Variations()
	for _, want := range []string{
		"add_boilerplate", "add_typos", "inject_headline", "insert_junk_characters",
		"perturb_linebreaks", "perturb_whitespace",
		"set_environment", "set_function", "set_input", "update_input_keys",
	} {
		assert.Contains(t, names, want)
	}
}

func TestAddTypos(t *testing.T) {
	t.Run("is deterministic per seed", func(t *testing.T) {
		v := build(t, "add_typos", map[string]any{"seed": 7, "n_edits": 4})

		first, err := v.Apply(context.Background(), textBatch("the quick brown fox"), nil)
		require.NoError(t, err)
		second, err := v.Apply(context.Background(), textBatch("the quick brown fox"), nil)
		require.NoError(t, err)

		assert.Equal(t, textsOf(t, first), textsOf(t, second))
	})

	t.Run("zero edits leaves text alone", func(t *testing.T) {
		v := build(t, "add_typos", map[string]any{"n_edits": 0})
		out, err := v.Apply(context.Background(), textBatch("hello world"), nil)
		require.NoError(t, err)
		assert.Equal(t, "hello world", textsOf(t, out)[0])
	})

	t.Run("delete op only shortens", func(t *testing.T) {
		v := build(t, "add_typos", map[string]any{"seed": 1, "ops": []any{"delete"}, "n_edits": 3})
		out, err := v.Apply(context.Background(), textBatch("abcdefghij"), nil)
		require.NoError(t, err)
		varied := textsOf(t, out)[0]
		assert.Less(t, len(varied), len("abcdefghij"))
	})

	t.Run("rejects unknown ops", func(t *testing.T) {
		_, err := spec.DefaultRegistry.BuildVariation("add_typos",
			spec.NewParams(map[string]any{"ops": []any{"shout"}}, nil))
		assert.ErrorIs(t, err, spec.ErrInvalidParameter)
	})

	t.Run("rejects negative n_edits", func(t *testing.T) {
		_, err := spec.DefaultRegistry.BuildVariation("add_typos",
			spec.NewParams(map[string]any{"n_edits": -1}, nil))
		assert.ErrorIs(t, err, spec.ErrInvalidParameter)
	})

	t.Run("rejects non-text payload", func(t *testing.T) {
		v := build(t, "add_typos", nil)
		_, err := v.Apply(context.Background(), []harness.Input{{ID: "a", Data: 42}}, nil)
		assert.ErrorIs(t, err, ErrBadInputShape)
	})
}

func TestPerturbWhitespace(t *testing.T) {
	t.Run("collapse squeezes runs but keeps newlines", func(t *testing.T) {
		v := build(t, "perturb_whitespace", map[string]any{"mode": "collapse"})
		out, err := v.Apply(context.Background(), textBatch("a  b\t\tc\nd   e"), nil)
		require.NoError(t, err)
		assert.Equal(t, "a b c\nd e", textsOf(t, out)[0])
	})

	t.Run("expand only adds spaces", func(t *testing.T) {
		v := build(t, "perturb_whitespace", map[string]any{"mode": "expand", "intensity": 1.0, "seed": 3})
		text := "one two three four"
		out, err := v.Apply(context.Background(), textBatch(text), nil)
		require.NoError(t, err)

		varied := textsOf(t, out)[0]
		assert.Greater(t, len(varied), len(text))
		assert.Equal(t, text, strings.Join(strings.Fields(varied), " "))
	})

	t.Run("tabs swaps spaces for tabs", func(t *testing.T) {
		v := build(t, "perturb_whitespace", map[string]any{"mode": "tabs", "intensity": 1.0})
		out, err := v.Apply(context.Background(), textBatch("a b c"), nil)
		require.NoError(t, err)
		assert.Equal(t, "a\tb\tc", textsOf(t, out)[0])
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		_, err := spec.DefaultRegistry.BuildVariation("perturb_whitespace",
			spec.NewParams(map[string]any{"mode": "scramble"}, nil))
		assert.ErrorIs(t, err, spec.ErrInvalidParameter)
	})
}

func TestPerturbLinebreaks(t *testing.T) {
	t.Run("remove folds paragraphs into one line", func(t *testing.T) {
		v := build(t, "perturb_linebreaks", map[string]any{"mode": "remove"})
		out, err := v.Apply(context.Background(), textBatch("line one\n\n  line two  \nthree"), nil)
		require.NoError(t, err)
		assert.Equal(t, "line one line two three", textsOf(t, out)[0])
	})

	t.Run("insert replaces spaces with newlines", func(t *testing.T) {
		v := build(t, "perturb_linebreaks", map[string]any{"mode": "insert", "intensity": 1.0, "seed": 2})
		out, err := v.Apply(context.Background(), textBatch("a b c d"), nil)
		require.NoError(t, err)

		varied := textsOf(t, out)[0]
		assert.NotContains(t, varied, " ")
		assert.Contains(t, varied, "\n")
	})

	t.Run("wrap keeps lines under width", func(t *testing.T) {
		v := build(t, "perturb_linebreaks", map[string]any{"mode": "wrap", "wrap_width": 10})
		out, err := v.Apply(context.Background(), textBatch("aaaa bbbb cccc dddd eeee"), nil)
		require.NoError(t, err)

		for _, line := range strings.Split(textsOf(t, out)[0], "\n") {
			assert.LessOrEqual(t, len(line), 10, "line %q", line)
		}
	})

	t.Run("wrap hard-breaks unbreakable runs", func(t *testing.T) {
		v := build(t, "perturb_linebreaks", map[string]any{"mode": "wrap", "wrap_width": 4})
		out, err := v.Apply(context.Background(), textBatch("abcdefghij"), nil)
		require.NoError(t, err)
		assert.Equal(t, "abcd\nefgh\nij", textsOf(t, out)[0])
	})
}

func TestInsertJunkCharacters(t *testing.T) {
	t.Run("inserts exactly count characters", func(t *testing.T) {
		v := build(t, "insert_junk_characters", map[string]any{"seed": 5, "count": 4, "chars": []any{"#"}})
		out, err := v.Apply(context.Background(), textBatch("hello"), nil)
		require.NoError(t, err)

		varied := textsOf(t, out)[0]
		assert.Equal(t, 4, strings.Count(varied, "#"))
		assert.Equal(t, "hello", strings.ReplaceAll(varied, "#", ""))
	})

	t.Run("empty text passes through", func(t *testing.T) {
		v := build(t, "insert_junk_characters", map[string]any{"count": 3})
		out, err := v.Apply(context.Background(), textBatch(""), nil)
		require.NoError(t, err)
		assert.Equal(t, "", textsOf(t, out)[0])
	})

	t.Run("rejects empty chars", func(t *testing.T) {
		_, err := spec.DefaultRegistry.BuildVariation("insert_junk_characters",
			spec.NewParams(map[string]any{"chars": []any{}}, nil))
		assert.ErrorIs(t, err, spec.ErrInvalidParameter)
	})
}

func TestAddBoilerplate(t *testing.T) {
	t.Run("appends n_lines joined lines", func(t *testing.T) {
		v := build(t, "add_boilerplate", map[string]any{
			"seed": 1, "n_lines": 2, "templates": []any{"one", "two", "three"}, "separator": "\n--\n",
		})
		out, err := v.Apply(context.Background(), textBatch("body"), nil)
		require.NoError(t, err)

		varied := textsOf(t, out)[0]
		require.True(t, strings.HasPrefix(varied, "body\n--\n"))
		appended := strings.Split(strings.TrimPrefix(varied, "body\n--\n"), "\n")
		assert.Len(t, appended, 2)
	})

	t.Run("repeats templates once the pool is exhausted", func(t *testing.T) {
		v := build(t, "add_boilerplate", map[string]any{"n_lines": 3, "templates": []any{"only"}})
		out, err := v.Apply(context.Background(), textBatch("body"), nil)
		require.NoError(t, err)
		assert.Equal(t, "body\n\nonly\nonly\nonly", textsOf(t, out)[0])
	})

	t.Run("rejects n_lines below one", func(t *testing.T) {
		_, err := spec.DefaultRegistry.BuildVariation("add_boilerplate",
			spec.NewParams(map[string]any{"n_lines": 0}, nil))
		assert.ErrorIs(t, err, spec.ErrInvalidParameter)
	})
}

func TestInjectHeadline(t *testing.T) {
	v := build(t, "inject_headline", map[string]any{"seed": 1, "templates": []any{"Headline"}, "separator": ": "})
	out, err := v.Apply(context.Background(), textBatch("body"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Headline: body", textsOf(t, out)[0])
}

func TestSetInput(t *testing.T) {
	v := build(t, "set_input", map[string]any{"lang": "fr", "text": "bonjour"})

	original := textBatch("hello")
	out, err := v.Apply(context.Background(), original, nil)
	require.NoError(t, err)

	data := out[0].Data.(map[string]any)
	assert.Equal(t, "fr", data["lang"])
	assert.Equal(t, "bonjour", data["text"])

	// The declared batch is untouched; mutation happened on the copy.
	assert.Equal(t, "hello", original[0].Data.(map[string]any)["text"])
}

func TestUpdateInputKeys(t *testing.T) {
	t.Run("merges the declared mapping", func(t *testing.T) {
		v := build(t, "update_input_keys", map[string]any{"input": map[string]any{"tone": "formal"}})
		out, err := v.Apply(context.Background(), textBatch("hello"), nil)
		require.NoError(t, err)

		data := out[0].Data.(map[string]any)
		assert.Equal(t, "formal", data["tone"])
		assert.Equal(t, "hello", data["text"])
	})

	t.Run("requires the input parameter", func(t *testing.T) {
		_, err := spec.DefaultRegistry.BuildVariation("update_input_keys", spec.NewParams(nil, nil))
		assert.ErrorIs(t, err, spec.ErrMissingParameter)
	})
}

func TestSetFunctionAndEnvironment(t *testing.T) {
	ctx := context.Background()
	backend, err := harness.NewBackend(ctx, &harness.NoopSystem{},
		harness.Config{"region": "base"}, harness.Config{"model": "base"})
	require.NoError(t, err)

	fn := build(t, "set_function", map[string]any{"model": "varied"})
	_, err = fn.Apply(ctx, nil, backend)
	require.NoError(t, err)
	assert.Equal(t, "varied", backend.Function()["model"])
	assert.Equal(t, harness.IntentFunction, fn.Intent())

	env := build(t, "set_environment", map[string]any{"region": "degraded"})
	_, err = env.Apply(ctx, nil, backend)
	require.NoError(t, err)
	assert.Equal(t, "degraded", backend.Environment()["region"])
	assert.Equal(t, harness.IntentEnvironment, env.Intent())
}
