// Package testutil provides the deterministic scripted evaluator used
// across this module's test suite. It fulfills pkg/evaluator.Evaluator by
// dispatching every code fragment to a Go closure registered under that
// exact fragment string, instead of parsing an expression language.
package testutil

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kairoscore/statechart/pkg/evaluator"
)

// GuardFunc evaluates a registered guard, precondition, postcondition, or
// invariant fragment.
type GuardFunc func(evaluator.StepContext) bool

// ActionFunc runs a registered action, on_entry, or on_exit fragment.
type ActionFunc func(evaluator.StepContext)

// Scripted is a deterministic Evaluator keyed by fragment string: every
// guard/action/on_entry/on_exit code used by a statechart built against one
// Scripted instance must be registered with Guard/Action before the
// interpreter runs. It also owns a flat variable bag (Set/Get) and a
// per-state scope overlay, modeling per-state lexical scoping without an
// expression parser.
type Scripted struct {
	mu sync.Mutex

	guards  map[string]GuardFunc
	actions map[string]ActionFunc

	vars   map[string]interface{}
	scopes map[string]map[string]interface{}
}

var _ evaluator.Evaluator = (*Scripted)(nil)

// New creates an empty Scripted evaluator.
func New() *Scripted {
	return &Scripted{
		guards:  map[string]GuardFunc{},
		actions: map[string]ActionFunc{},
		vars:    map[string]interface{}{},
		scopes:  map[string]map[string]interface{}{},
	}
}

// Guard registers fn under code, usable as a guard, precondition,
// postcondition, or invariant fragment. Returns s for chaining.
func (s *Scripted) Guard(code string, fn GuardFunc) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guards[code] = fn
	return s
}

// Action registers fn under code, usable as an action, on_entry, or on_exit
// fragment. Returns s for chaining.
func (s *Scripted) Action(code string, fn ActionFunc) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[code] = fn
	return s
}

// Set writes a value into the global variable bag.
func (s *Scripted) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[key] = value
}

// Get reads a value from the global variable bag.
func (s *Scripted) Get(key string) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars[key]
}

// SetScoped writes a value into the scope owned by stateName: writes made
// during on_entry/on_exit/actions mutate the owning state's scope.
func (s *Scripted) SetScoped(stateName, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[stateName]
	if !ok {
		sc = map[string]interface{}{}
		s.scopes[stateName] = sc
	}
	sc[key] = value
}

func (s *Scripted) EvaluateGuard(code string, sc evaluator.StepContext) (bool, error) {
	if code == "" {
		return true, nil
	}
	fn, ok := s.lookupGuard(code)
	if !ok {
		return false, fmt.Errorf("testutil: no guard registered for %q", code)
	}
	return fn(sc), nil
}

func (s *Scripted) ExecuteAction(code string, sc evaluator.StepContext) error {
	return s.runAction(code, sc, "action")
}

func (s *Scripted) ExecuteOnEntry(_ string, code string, sc evaluator.StepContext) error {
	return s.runAction(code, sc, "on_entry")
}

func (s *Scripted) ExecuteOnExit(_ string, code string, sc evaluator.StepContext) error {
	return s.runAction(code, sc, "on_exit")
}

func (s *Scripted) runAction(code string, sc evaluator.StepContext, kind string) error {
	if code == "" {
		return nil
	}
	fn, ok := s.lookupAction(code)
	if !ok {
		return fmt.Errorf("testutil: no %s registered for %q", kind, code)
	}
	fn(sc)
	return nil
}

func (s *Scripted) EvaluatePreconditions(conds []string, sc evaluator.StepContext) (string, error) {
	return s.evaluateConds(conds, sc)
}

func (s *Scripted) EvaluatePostconditions(conds []string, sc evaluator.StepContext) (string, error) {
	return s.evaluateConds(conds, sc)
}

func (s *Scripted) EvaluateInvariants(conds []string, sc evaluator.StepContext) (string, error) {
	return s.evaluateConds(conds, sc)
}

func (s *Scripted) evaluateConds(conds []string, sc evaluator.StepContext) (string, error) {
	for _, c := range conds {
		fn, ok := s.lookupGuard(c)
		if !ok {
			return "", fmt.Errorf("testutil: no condition registered for %q", c)
		}
		if !fn(sc) {
			return c, nil
		}
	}
	return "", nil
}

func (s *Scripted) Context() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneVars(s.vars)
}

// ContextFor returns the global variable bag overlaid with stateName's own
// scope. Scopes of the state's ancestors are not included.
func (s *Scripted) ContextFor(stateName string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := cloneVars(s.vars)
	for k, v := range s.scopes[stateName] {
		out[k] = v
	}
	return out
}

func (s *Scripted) lookupGuard(code string) (GuardFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, ok := s.guards[code]
	return fn, ok
}

func (s *Scripted) lookupAction(code string) (ActionFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, ok := s.actions[code]
	return fn, ok
}

func cloneVars(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RegisteredGuardNames returns every registered guard key, sorted, useful
// for assertions that a fixture wired up exactly the guards it expects.
func (s *Scripted) RegisteredGuardNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.guards))
	for k := range s.guards {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
