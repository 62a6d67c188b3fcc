// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package provider

import (
	"context"
	"slices"
	"strings"
	"sync"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/raglet-dev/raglet/pkg/health"
)

// Registry manages generator registration, lookup, and routing with
// failover. The set of backends is closed at construction time: every
// ref the registry will ever route to must name a registered backend.
type Registry struct {
	mu         sync.RWMutex
	backends   map[string]Generator
	defaultRef string   // "provider/model" format
	failover   []string // ordered list of "provider/model" refs
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Generator),
	}
}

// Register adds a generator to the registry.
func (r *Registry) Register(name string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = g
}

// Get retrieves a generator by name.
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.backends[name]
	if !ok {
		return nil, ragerr.New(
			ragerr.CodeGenerateProviderNotFound,
			"provider not found: "+name,
			ragerr.FieldProvider(name),
		)
	}
	return g, nil
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetDefault sets the default "provider/model" reference used when the
// caller does not name a model. Returns an error if the provider
// portion of the ref is not registered.
func (r *Registry) SetDefault(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provName, _ := parseRef(ref)
	if _, ok := r.backends[provName]; !ok {
		return ragerr.New(
			ragerr.CodeGenerateProviderNotFound,
			"SetDefault: provider not registered: "+provName,
			ragerr.FieldProvider(provName),
		)
	}
	r.defaultRef = ref
	return nil
}

// DefaultRef returns the configured default "provider/model" reference,
// or the empty string when none is set.
func (r *Registry) DefaultRef() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultRef
}

// SetFailover sets the ordered failover chain of "provider/model" refs.
// Returns an error if any provider portion of the refs is not
// registered.
func (r *Registry) SetFailover(chain []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range chain {
		provName, _ := parseRef(ref)
		if _, ok := r.backends[provName]; !ok {
			return ragerr.New(
				ragerr.CodeGenerateProviderNotFound,
				"SetFailover: provider not registered: "+provName,
				ragerr.FieldProvider(provName),
			)
		}
	}
	r.failover = append([]string(nil), chain...)
	return nil
}

// MaxAttempts returns 1 (primary) + len(failover chain) so callers cap
// their retry count to exactly the number of configured candidates.
func (r *Registry) MaxAttempts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return 1 + len(r.failover)
}

// Route selects a generator for the given model ref. When modelRef is
// empty or "default" the configured default is used, falling through
// the failover chain past unavailable backends. The exclude list
// contains backend names to skip (already-tried backends in the
// current failover sequence).
func (r *Registry) Route(ctx context.Context, modelRef string, exclude []string) (Generator, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, err := r.resolveRef(modelRef)
	if err != nil {
		return nil, "", err
	}
	if ref == "" {
		return nil, "", ragerr.New(
			ragerr.CodeGenerateNoDefault,
			"no default provider configured",
		)
	}

	provName, _ := parseRef(ref)
	if !slices.Contains(exclude, provName) {
		g, model, err := r.tryRef(ctx, ref)
		if err == nil {
			return g, model, nil
		}
	}

	for _, fallback := range r.failover {
		fbProv, _ := parseRef(fallback)
		if slices.Contains(exclude, fbProv) {
			continue
		}
		g, model, err := r.tryRef(ctx, fallback)
		if err == nil {
			return g, model, nil
		}
	}

	return nil, "", ragerr.New(
		ragerr.CodeGenerateAllUnavailable,
		"all providers unavailable: no healthy backend found",
	)
}

// RecordOutcome reports a generation result back to the routed backend
// so its health state reflects it. Backends that do not track health
// are left alone.
func (r *Registry) RecordOutcome(g Generator, err error) {
	hr, ok := g.(HealthReporter)
	if !ok {
		return
	}
	if err != nil {
		hr.RecordFailure()
		return
	}
	hr.RecordSuccess()
}

// Metrics returns per-backend health snapshots for backends that
// report them.
func (r *Registry) Metrics() map[string]health.Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]health.Metrics)
	for name, g := range r.backends {
		if mp, ok := g.(interface{ Metrics() health.Metrics }); ok {
			out[name] = mp.Metrics()
		}
	}
	return out
}

// Close shuts down all registered generators.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, g := range r.backends {
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return ragerr.Join(errs...)
	}
	return nil
}

// resolveRef determines which "provider/model" ref to use. The caller
// must hold r.mu (at least RLock). Explicit refs must be qualified
// with a "provider/" prefix.
func (r *Registry) resolveRef(modelRef string) (string, error) {
	if modelRef != "" && modelRef != "default" {
		if !strings.Contains(modelRef, "/") {
			return "", ragerr.Errorf(
				ragerr.CodeGenerateInvalidModelRef,
				"model ref %q must use provider/model format", modelRef,
			)
		}
		return modelRef, nil
	}
	return r.defaultRef, nil
}

// tryRef parses a "provider/model" ref, looks up the generator, and
// checks availability. The caller must hold r.mu (at least RLock).
func (r *Registry) tryRef(ctx context.Context, ref string) (Generator, string, error) {
	providerName, model := parseRef(ref)

	g, ok := r.backends[providerName]
	if !ok {
		return nil, "", ragerr.New(
			ragerr.CodeGenerateProviderNotFound,
			"provider not found: "+providerName,
			ragerr.FieldProvider(providerName),
		)
	}

	if !g.Available(ctx) {
		return nil, "", ragerr.New(
			ragerr.CodeGenerateBackendFailure,
			"provider unavailable: "+providerName,
			ragerr.FieldProvider(providerName),
		)
	}

	return g, model, nil
}

// parseRef splits a "provider/model" reference on the first "/".
func parseRef(ref string) (providerName, model string) {
	idx := strings.Index(ref, "/")
	if idx < 0 {
		return ref, ""
	}
	return ref[:idx], ref[idx+1:]
}
