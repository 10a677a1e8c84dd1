package observers_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairoscore/statechart/pkg/interpreter"
	"github.com/kairoscore/statechart/pkg/model"
	"github.com/kairoscore/statechart/pkg/observers"
)

func TestLogging_EmitsOneStructuredLinePerMetaEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	o := observers.NewLogging(logger, zerolog.InfoLevel)
	listener := o.Listener()

	ev := model.New("coin")
	listener(interpreter.MetaEvent{Kind: interpreter.EventConsumed, Time: 3, Event: &ev})
	listener(interpreter.MetaEvent{Kind: interpreter.TransitionProcessed, Source: "locked", Target: "unlocked", HasTarget: true})

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"kind":"event consumed"`)
	assert.Contains(t, out, `"event":"coin"`)
	assert.Contains(t, out, `"source":"locked"`)
	assert.Contains(t, out, `"target":"unlocked"`)
}

func TestLogging_ContractViolationsGetTheirOwnMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	o := observers.NewLogging(logger, zerolog.WarnLevel)

	o.Listener()(interpreter.MetaEvent{
		Kind:      interpreter.InvariantViolation,
		State:     "movingElevator",
		Assertion: "current >= 0",
	})

	out := buf.String()
	assert.Contains(t, out, "contract violation")
	assert.Contains(t, out, `"assertion":"current >= 0"`)
}
