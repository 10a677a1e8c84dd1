// Package builder is the fluent construction API for pkg/model
// statecharts: a way to assemble a Statechart in code, without a markup
// parser. Build aggregates every problem it finds instead of stopping at
// the first one.
package builder

import (
	"fmt"
	"strings"
)

// collector accumulates construction-time errors (state names declared more
// than once, Reopen of an undeclared state) so Build can report all of them
// at once, the same way model.Build aggregates structural errors.
type collector struct {
	errs []error
}

func (c *collector) add(format string, args ...interface{}) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func (c *collector) hasErrors() bool { return len(c.errs) > 0 }

// Error aggregates every problem the builder itself detected (as opposed to
// the structural errors model.Build reports once the draft is assembled).
type Error struct {
	Errors []error
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d builder errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *Error) Unwrap() []error { return e.Errors }
