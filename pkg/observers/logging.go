// Package observers ships concrete meta-event listeners: Logging
// (structured logs via zerolog), Metrics (in-memory counters), and Tracing
// (OpenTelemetry spans per macro/micro step). Each wraps
// pkg/interpreter.Listener.
package observers

import (
	"github.com/rs/zerolog"

	"github.com/kairoscore/statechart/pkg/interpreter"
)

// Logging wraps a zerolog.Logger, emitting one structured log line per
// meta-event.
type Logging struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLogging creates a Logging observer writing through logger at level (or
// above).
func NewLogging(logger zerolog.Logger, level zerolog.Level) *Logging {
	return &Logging{logger: logger, level: level}
}

// Listener returns the interpreter.Listener function to Attach.
func (o *Logging) Listener() interpreter.Listener {
	return o.onMetaEvent
}

func (o *Logging) onMetaEvent(me interpreter.MetaEvent) {
	evt := o.logger.WithLevel(o.level).
		Str("kind", string(me.Kind)).
		Float64("time", me.Time)
	if me.State != "" {
		evt = evt.Str("state", me.State)
	}
	if me.Source != "" {
		evt = evt.Str("source", me.Source)
	}
	if me.HasTarget {
		evt = evt.Str("target", me.Target)
	}
	if me.Event != nil {
		evt = evt.Str("event", me.Event.Name)
	}
	if me.Assertion != "" {
		evt = evt.Str("assertion", me.Assertion)
	}
	switch me.Kind {
	case interpreter.PreconditionViolation, interpreter.PostconditionViolation, interpreter.InvariantViolation:
		evt.Msg("contract violation")
	default:
		evt.Msg("statechart step")
	}
}
