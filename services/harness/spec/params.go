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
	"strings"
)

// AmbientProvider resolves a parameter by name from ambient configuration
// (typically the process environment). The boolean reports whether a value
// was found.
type AmbientProvider func(name string) (any, bool)

// EnvironProvider is the default ambient provider: a process environment
// lookup with JSON decoding, so `SEED=3` yields an int and
// `OPS=["swap","delete"]` yields a list. Values that are not valid JSON
// are returned as plain strings. Empty values count as absent.
func EnvironProvider(name string) (any, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw, true
	}
	return decoded, true
}

// ambientPrefix namespaces the fallback ambient lookup.
const ambientPrefix = "VIGIL_"

// Params is the parameter bag handed to component factories.
//
// Lookup priority per parameter name: (a) the explicitly declared value,
// (b) the ambient provider by plain name, (c) the ambient provider with the
// namespaced VIGIL_<NAME> key. A missing required parameter with no default
// is a hard configuration error.
type Params struct {
	declared map[string]any
	ambient  AmbientProvider
}

// NewParams builds a parameter bag. ambient may be nil to disable ambient
// injection.
func NewParams(declared map[string]any, ambient AmbientProvider) Params {
	if declared == nil {
		declared = map[string]any{}
	}
	return Params{declared: declared, ambient: ambient}
}

// Declared returns the explicitly declared values, for reporting.
func (p Params) Declared() map[string]any { return p.declared }

// Get resolves a parameter by the documented priority order.
func (p Params) Get(name string) (any, bool) {
	if v, ok := p.declared[name]; ok {
		return v, true
	}
	if p.ambient != nil {
		if v, ok := p.ambient(name); ok {
			return v, true
		}
		if v, ok := p.ambient(ambientPrefix + strings.ToUpper(name)); ok {
			return v, true
		}
	}
	return nil, false
}

// Require resolves a parameter and fails if it is absent.
func (p Params) Require(name string) (any, error) {
	v, ok := p.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	return v, nil
}

// String resolves a string parameter with a default.
func (p Params) String(name, def string) (string, error) {
	v, ok := p.Get(name)
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParameter, name, v)
	}
	return s, nil
}

// Int resolves an integer parameter with a default. JSON-decoded numbers
// (float64) and YAML ints are both accepted.
func (p Params) Int(name string, def int) (int, error) {
	v, ok := p.Get(name)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidParameter, name, v)
	}
}

// Float resolves a float parameter with a default.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p.Get(name)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidParameter, name, v)
	}
}

// Bool resolves a boolean parameter with a default.
func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p.Get(name)
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidParameter, name, v)
	}
	return b, nil
}

// StringSlice resolves a list-of-strings parameter with a default.
func (p Params) StringSlice(name string, def []string) ([]string, error) {
	v, ok := p.Get(name)
	if !ok {
		return def, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must contain only strings, got %T", ErrInvalidParameter, name, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings, got %T", ErrInvalidParameter, name, v)
	}
}

// Map resolves a mapping parameter; absent yields nil without error.
func (p Params) Map(name string) (map[string]any, error) {
	v, ok := p.Get(name)
	if !ok {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a mapping, got %T", ErrInvalidParameter, name, v)
	}
	return m, nil
}
