package observers

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kairoscore/statechart/pkg/interpreter"
)

var tracer = otel.Tracer("github.com/kairoscore/statechart/pkg/observers")

// Tracing opens one span per macro step and a child span per micro-step
// effect (state entered/exited, transition processed), so the
// interpreter's step boundaries are visible to any OTel-compatible
// backend.
type Tracing struct {
	mu   sync.Mutex
	ctx  context.Context
	span trace.Span
}

// NewTracing creates a Tracing observer rooted at ctx. Each macro step's
// span becomes a child of whatever span is current in ctx when step_started
// fires.
func NewTracing(ctx context.Context) *Tracing {
	return &Tracing{ctx: ctx}
}

// Listener returns the interpreter.Listener function to Attach.
func (o *Tracing) Listener() interpreter.Listener {
	return o.onMetaEvent
}

func (o *Tracing) onMetaEvent(me interpreter.MetaEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch me.Kind {
	case interpreter.StepStarted:
		_, span := tracer.Start(o.ctx, "statechart.macro_step",
			trace.WithAttributes(attribute.Float64("statechart.time", me.Time)))
		o.span = span
	case interpreter.StepEnded:
		if o.span != nil {
			o.span.End()
			o.span = nil
		}
	case interpreter.StateEntered, interpreter.StateExited:
		o.childSpan(stateSpanName(me.Kind), attribute.String("statechart.state", me.State))
	case interpreter.TransitionProcessed:
		attrs := []attribute.KeyValue{attribute.String("statechart.source", me.Source)}
		if me.HasTarget {
			attrs = append(attrs, attribute.String("statechart.target", me.Target))
		}
		if me.Event != nil {
			attrs = append(attrs, attribute.String("statechart.event", me.Event.Name))
		}
		o.childSpan("statechart.transition", attrs...)
	case interpreter.PreconditionViolation, interpreter.PostconditionViolation, interpreter.InvariantViolation:
		if o.span != nil {
			o.span.AddEvent(string(me.Kind), trace.WithAttributes(
				attribute.String("statechart.state", me.State),
				attribute.String("statechart.assertion", me.Assertion),
			))
		}
	}
}

func (o *Tracing) childSpan(name string, attrs ...attribute.KeyValue) {
	parent := o.ctx
	if o.span != nil {
		parent = trace.ContextWithSpan(o.ctx, o.span)
	}
	_, span := tracer.Start(parent, name, trace.WithAttributes(attrs...))
	span.End()
}

func stateSpanName(kind interpreter.MetaKind) string {
	if kind == interpreter.StateEntered {
		return "statechart.state_entered"
	}
	return "statechart.state_exited"
}
