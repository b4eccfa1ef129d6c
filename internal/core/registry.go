package core

import (
	"errors"
	"fmt"
)

// ErrDuplicateRuleID is wrapped into the error Register returns when a rule
// id is already claimed by a rule with a different title.
var ErrDuplicateRuleID = errors.New("rule id already registered to a different rule")

// Registry is the process-wide mapping of rule_id → rule factory (spec.md
// §4.2). It is built once at process start (typically via
// RegisterBuiltinRules) and treated as read-only for the rest of the
// process's lifetime (spec.md §5).
type Registry struct {
	order     []string
	factories map[string]RuleFactory
	titles    map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]RuleFactory),
		titles:    make(map[string]string),
	}
}

// Register adds a rule factory under the given id. Registering the exact
// same (id, title) pair again is a no-op (spec.md §4.2: "register_rule is
// idempotent"). Registering a different rule under an id already claimed by
// another rule is rejected with ErrDuplicateRuleID ("rejects duplicate ids
// with a distinct id").
func (r *Registry) Register(id string, factory RuleFactory) error {
	probe := factory()
	if probe.ID() != id {
		return fmt.Errorf("register rule %q: factory produced rule with id %q", id, probe.ID())
	}
	if existingTitle, exists := r.titles[id]; exists {
		if existingTitle == probe.Title() {
			return nil // identical re-registration: idempotent no-op
		}
		return fmt.Errorf("register rule %q (title %q vs existing %q): %w", id, probe.Title(), existingTitle, ErrDuplicateRuleID)
	}
	r.factories[id] = factory
	r.titles[id] = probe.Title()
	r.order = append(r.order, id)
	return nil
}

// MustRegister panics on registration failure. Intended for use in
// RegisterBuiltinRules, where a duplicate/conflicting id is a programming
// error that should fail loudly at init time rather than surface at
// runtime (spec.md §9: "Duplicate ids must be rejected loudly").
func (r *Registry) MustRegister(id string, factory RuleFactory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Rules returns a fresh Rule instance per registered id, in registration
// order — the order the runner and the catalog export both use.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.factories[id]())
	}
	return out
}

// Len returns the number of distinct registered rule ids.
func (r *Registry) Len() int {
	return len(r.order)
}
