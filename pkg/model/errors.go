package model

import (
	"fmt"
	"strings"
)

// StructureError reports a single structural validation failure discovered
// while building a Statechart.
type StructureError struct {
	StateID string
	Message string
}

func (e *StructureError) Error() string {
	if e.StateID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.StateID, e.Message)
}

// StatechartStructureError aggregates every StructureError found during
// Build, so construction-time validation reports every failure at once.
type StatechartStructureError struct {
	Errors []*StructureError
}

func (e *StatechartStructureError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, se.Error())
	}
	return fmt.Sprintf("%d structural errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

// collector accumulates structure errors during Build so validation can
// report every problem in one pass rather than failing at the first one.
type collector struct {
	errs []*StructureError
}

func (c *collector) add(stateID, format string, args ...interface{}) {
	c.errs = append(c.errs, &StructureError{StateID: stateID, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &StatechartStructureError{Errors: c.errs}
}
