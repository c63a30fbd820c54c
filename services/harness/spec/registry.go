// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package spec turns declared specification documents into constructed
// inputs, variations, and checks ready for the engine.
//
// Component resolution is a registry of named factories per kind: builtins
// register themselves during init, embedders add project components the
// same way. Factories receive a Params bag; parameter values come from the
// declaration first, then from ambient configuration (see Params).
package spec

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/vigil/services/harness"
)

var (
	// ErrUnknownComponent is returned when no factory is registered for a
	// declared type name.
	ErrUnknownComponent = errors.New("unknown component type")

	// ErrDuplicateComponent is returned when registering a name twice.
	ErrDuplicateComponent = errors.New("component already registered")

	// ErrNilFactory is returned when attempting to register a nil factory.
	ErrNilFactory = errors.New("factory must not be nil")

	// ErrMissingParameter is returned when a required constructor
	// parameter resolves to nothing.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidParameter is returned when a parameter has the wrong shape.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidSpec is returned for malformed specification documents.
	ErrInvalidSpec = errors.New("invalid specification")
)

// VariationFactory constructs a variation from a parameter bag.
type VariationFactory func(params Params) (harness.Variation, error)

// CheckFactory constructs a check from a parameter bag.
type CheckFactory func(params Params) (harness.Check, error)

// SystemFactory constructs a backend system from a parameter bag.
type SystemFactory func(params Params) (harness.System, error)

// Registry maps declared component type names to factories, per kind.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu         sync.RWMutex
	variations map[string]VariationFactory
	checks     map[string]CheckFactory
	systems    map[string]SystemFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		variations: make(map[string]VariationFactory),
		checks:     make(map[string]CheckFactory),
		systems:    make(map[string]SystemFactory),
	}
}

// RegisterVariation registers a variation factory under a type name.
func (r *Registry) RegisterVariation(name string, factory VariationFactory) error {
	if factory == nil {
		return fmt.Errorf("%w: variation %s", ErrNilFactory, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.variations[name]; exists {
		return fmt.Errorf("%w: variation %s", ErrDuplicateComponent, name)
	}
	r.variations[name] = factory
	return nil
}

// RegisterCheck registers a check factory under a type name.
func (r *Registry) RegisterCheck(name string, factory CheckFactory) error {
	if factory == nil {
		return fmt.Errorf("%w: check %s", ErrNilFactory, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[name]; exists {
		return fmt.Errorf("%w: check %s", ErrDuplicateComponent, name)
	}
	r.checks[name] = factory
	return nil
}

// RegisterSystem registers a backend system factory under a type name.
func (r *Registry) RegisterSystem(name string, factory SystemFactory) error {
	if factory == nil {
		return fmt.Errorf("%w: system %s", ErrNilFactory, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.systems[name]; exists {
		return fmt.Errorf("%w: system %s", ErrDuplicateComponent, name)
	}
	r.systems[name] = factory
	return nil
}

// MustRegisterVariation registers a variation factory and panics on error.
// Intended for init-time registration of builtins.
func (r *Registry) MustRegisterVariation(name string, factory VariationFactory) {
	if err := r.RegisterVariation(name, factory); err != nil {
		panic(fmt.Sprintf("spec: %v", err))
	}
}

// MustRegisterCheck registers a check factory and panics on error.
func (r *Registry) MustRegisterCheck(name string, factory CheckFactory) {
	if err := r.RegisterCheck(name, factory); err != nil {
		panic(fmt.Sprintf("spec: %v", err))
	}
}

// MustRegisterSystem registers a system factory and panics on error.
func (r *Registry) MustRegisterSystem(name string, factory SystemFactory) {
	if err := r.RegisterSystem(name, factory); err != nil {
		panic(fmt.Sprintf("spec: %v", err))
	}
}

// BuildVariation resolves a type name and constructs the variation.
func (r *Registry) BuildVariation(name string, params Params) (harness.Variation, error) {
	r.mu.RLock()
	factory, ok := r.variations[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: variation %q", ErrUnknownComponent, name)
	}
	return factory(params)
}

// BuildCheck resolves a type name and constructs the check.
func (r *Registry) BuildCheck(name string, params Params) (harness.Check, error) {
	r.mu.RLock()
	factory, ok := r.checks[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: check %q", ErrUnknownComponent, name)
	}
	return factory(params)
}

// BuildSystem resolves a type name and constructs the backend system.
func (r *Registry) BuildSystem(name string, params Params) (harness.System, error) {
	r.mu.RLock()
	factory, ok := r.systems[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: system %q", ErrUnknownComponent, name)
	}
	return factory(params)
}

// Variations lists registered variation type names, sorted.
func (r *Registry) Variations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.variations)
}

// Checks lists registered check type names, sorted.
func (r *Registry) Checks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.checks)
}

// Systems lists registered backend system type names, sorted.
func (r *Registry) Systems() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.systems)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultRegistry is the global registry. Builtin components register
// themselves here during init.
var DefaultRegistry = NewRegistry()
