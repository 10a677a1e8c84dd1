package interpreter

import "github.com/kairoscore/statechart/pkg/model"

// Bind installs a listener on in that forwards every internal event
// emission to target as an external event. Forwarded events are enqueued
// immediately, synchronously, on the target interpreter; cyclic bindings
// are explicitly supported since delivery never recurses into ExecuteOnce,
// only into Queue.
func (in *Interpreter) Bind(target *Interpreter) ListenerHandle {
	return in.BindFunc(func(ev model.Event) {
		target.Queue(ev.Name, WithParams(ev.Params))
	})
}

// BindFunc installs a listener on in that invokes fn with every internal
// event it emits, forwarding to an arbitrary callable collaborator instead
// of another Interpreter.
func (in *Interpreter) BindFunc(fn func(model.Event)) ListenerHandle {
	return in.Attach(func(me MetaEvent) {
		if me.Kind != EventSent || me.Event == nil {
			return
		}
		fn(*me.Event)
	})
}

// AttachProperty attaches property as a property statechart: every
// meta-event this interpreter emits is delivered to property as an
// external event of the same name, and property is driven one step per
// delivery. If property ever reaches Final, a PropertyStatechartError is
// raised from the ExecuteOnce call on in that triggered it (fail-fast
// property checking).
func (in *Interpreter) AttachProperty(name string, property *Interpreter) ListenerHandle {
	return in.Attach(func(me MetaEvent) {
		property.Queue(string(me.Kind), WithParams(metaEventParams(me)))
		if _, err := property.ExecuteOnce(); err != nil {
			return
		}
		if property.Final() {
			in.propertyErr = newPropertyStatechart(name, in.configList())
		}
	})
}

// metaEventParams flattens a MetaEvent into the parameter bag delivered to
// a property statechart's external event.
func metaEventParams(me MetaEvent) map[string]interface{} {
	params := map[string]interface{}{}
	if me.State != "" {
		params["state"] = me.State
	}
	if me.Source != "" {
		params["source"] = me.Source
	}
	if me.HasTarget {
		params["target"] = me.Target
	}
	if me.Event != nil {
		params["event"] = me.Event.Name
	}
	if me.Assertion != "" {
		params["assertion"] = me.Assertion
	}
	return params
}
