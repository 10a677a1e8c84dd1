package interpreter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairoscore/statechart/builder"
	"github.com/kairoscore/statechart/internal/testutil"
	"github.com/kairoscore/statechart/pkg/clock"
	"github.com/kairoscore/statechart/pkg/evaluator"
	"github.com/kairoscore/statechart/pkg/interpreter"
)

// S1: shallow history resumes the last active direct child of "loop".
func TestScenario_ShallowHistory(t *testing.T) {
	b := builder.New("s1").Root("root")
	b.Compound("root", "loop", "pause", "stop").Initial("loop")
	b.Compound("loop", "s1", "s2", "s3", "hist").Initial("s1")
	b.Atomic("s1").Transition().On("next").To("s2")
	b.Atomic("s2").Transition().On("next").To("s3")
	b.Atomic("s3")
	b.ShallowHistory("hist")
	b.Reopen("loop").
		Transition().On("pause").To("pause").
		Transition().On("stop").To("stop")
	b.Atomic("pause").
		Transition().On("continue").To("hist").
		Transition().On("stop").To("stop")
	b.Final("stop")

	sc, err := b.Build()
	require.NoError(t, err)

	in := interpreter.New(sc, testutil.New())
	_, err = in.ExecuteOnce()
	require.NoError(t, err)

	for _, name := range []string{"next", "pause", "continue"} {
		in.Queue(name)
		_, err = in.ExecuteOnce()
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []string{"root", "loop", "s2"}, in.Configuration())

	in.Queue("stop")
	_, err = in.ExecuteOnce()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root", "stop"}, in.Configuration())
	assert.True(t, in.Final())
}

// S2: deep history resumes every region's full active leaf set.
func TestScenario_DeepHistory(t *testing.T) {
	b := builder.New("s2").Root("root")
	b.Compound("root", "running", "paused").Initial("running")
	b.Compound("running", "active", "runHist").Initial("active")
	b.Orthogonal("active", "proc1", "proc2")
	b.Compound("proc1", "s11", "s12", "s13").Initial("s11")
	b.Atomic("s11").Transition().On("next1").To("s12")
	b.Atomic("s12").Transition().On("next1").To("s13")
	b.Atomic("s13")
	b.Compound("proc2", "s21", "s22", "s23").Initial("s21")
	b.Atomic("s21").Transition().On("next2").To("s22")
	b.Atomic("s22").Transition().On("next2").To("s23")
	b.Atomic("s23")
	b.DeepHistory("runHist")
	b.Reopen("running").Transition().On("pause").To("paused")
	b.Atomic("paused").Transition().On("continue").To("runHist")

	sc, err := b.Build()
	require.NoError(t, err)

	in := interpreter.New(sc, testutil.New())
	_, err = in.ExecuteOnce()
	require.NoError(t, err)

	for _, name := range []string{"next1", "next2", "next1", "pause", "continue"} {
		in.Queue(name)
		_, err = in.ExecuteOnce()
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{"root", "running", "active", "proc1", "s13", "proc2", "s22"}, in.Configuration())
}

func buildElevator(t *testing.T) (*interpreter.Interpreter, *testutil.Scripted, *clock.Simulated) {
	t.Helper()
	b := builder.New("elevator").Root("root")
	b.Compound("root", "doorsOpen", "movingElevator").Initial("doorsOpen")
	b.Atomic("doorsOpen").Transition().On("floorSelected").To("movingElevator").Action("set_destination")
	b.Atomic("movingElevator").
		Transition().Guard("arrived").To("doorsOpen").Action("arrive").
		Transition().Guard("idle_timeout").To("doorsOpen").Action("return_to_ground").Priority(builder.PriorityLow)

	sc, err := b.Build()
	require.NoError(t, err)

	ev := testutil.New()
	ev.Set("current", 0)
	ev.Set("destination", 0)
	ev.Guard("arrived", func(sc evaluator.StepContext) bool {
		// Nothing in this fixture ever advances "current" toward
		// "destination", so this guard is never satisfied; the idle timeout
		// below is what this scenario is actually about.
		cur, _ := ev.Get("current").(int)
		return cur != 0 && ev.Get("current") == ev.Get("destination")
	})
	ev.Guard("idle_timeout", func(sc evaluator.StepContext) bool {
		return sc.Now-sc.EntryTime >= 10
	})
	ev.Action("set_destination", func(sc evaluator.StepContext) {
		if floor, ok := sc.Event.Param("floor"); ok {
			ev.Set("destination", floor)
		}
	})
	ev.Action("arrive", func(sc evaluator.StepContext) {
		ev.Set("current", ev.Get("destination"))
	})
	ev.Action("return_to_ground", func(sc evaluator.StepContext) {
		ev.Set("current", 0)
		ev.Set("destination", 0)
	})

	clk := clock.NewSimulated()
	return interpreter.New(sc, ev, interpreter.WithClock(clk)), ev, clk
}

// S3: an elevator returns to the ground floor if it idles past its delayed
// eventless transition's guard.
func TestScenario_ElevatorDelayedTransition(t *testing.T) {
	in, ev, clk := buildElevator(t)

	_, err := in.ExecuteOnce()
	require.NoError(t, err)

	in.Queue("floorSelected", interpreter.WithParams(map[string]interface{}{"floor": 4}))
	_, err = in.ExecuteOnce()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root", "movingElevator"}, in.Configuration())

	clk.Set(2)
	ms, err := in.ExecuteOnce()
	require.NoError(t, err)
	assert.Nil(t, ms, "neither guard is satisfied yet at t=2")
	assert.ElementsMatch(t, []string{"root", "movingElevator"}, in.Configuration())

	clk.Set(10)
	_, err = in.ExecuteOnce()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root", "doorsOpen"}, in.Configuration())
	assert.Equal(t, 0, ev.Get("current"))
}

// S4: two equal-priority transitions from the same state, on the same
// event, both guard-satisfied, must raise NonDeterminismError.
func TestScenario_NonDeterminism(t *testing.T) {
	b := builder.New("s4").Root("root")
	b.Compound("root", "s", "a", "b").Initial("s")
	b.Atomic("s").
		Transition().On("go").Guard("always").To("a").
		Transition().On("go").Guard("always").To("b")
	b.Atomic("a")
	b.Atomic("b")

	sc, err := b.Build()
	require.NoError(t, err)

	ev := testutil.New()
	ev.Guard("always", func(evaluator.StepContext) bool { return true })

	in := interpreter.New(sc, ev)
	_, err = in.ExecuteOnce()
	require.NoError(t, err)

	in.Queue("go")
	_, err = in.ExecuteOnce()
	require.Error(t, err)

	var nde *interpreter.NonDeterminismError
	assert.ErrorAs(t, err, &nde)
}

// S5: a precondition that fails on the transition actually selected must
// raise a PreconditionError naming the offending state, assertion, step, and
// active configuration.
func TestScenario_ContractPreconditionViolation(t *testing.T) {
	b := builder.New("s5").Root("root")
	b.Compound("root", "s", "t").Initial("s")
	b.Atomic("s").Transition().On("go").To("t").Precondition("current > destination")
	b.Atomic("t")

	sc, err := b.Build()
	require.NoError(t, err)

	ev := testutil.New()
	ev.Set("current", 0)
	ev.Set("destination", 4)
	ev.Guard("current > destination", func(evaluator.StepContext) bool {
		cur, _ := ev.Get("current").(int)
		dest, _ := ev.Get("destination").(int)
		return cur > dest
	})

	in := interpreter.New(sc, ev)
	_, err = in.ExecuteOnce()
	require.NoError(t, err)

	in.Queue("go")
	_, err = in.ExecuteOnce()
	require.Error(t, err)

	var perr *interpreter.PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "s", perr.StateID)
	assert.Equal(t, "current > destination", perr.Assertion)
	assert.Equal(t, "transition precondition", perr.Step)
	assert.Contains(t, perr.Config, "s")
}

// S6: an interpreter bound to another forwards every internal event it
// sends as an external event on the target.
func TestScenario_BoundInterpreters(t *testing.T) {
	bButtons := builder.New("buttons").Root("idle")
	bButtons.Atomic("idle").Transition().On("button_2_pushed").Action("press_2")
	scButtons, err := bButtons.Build()
	require.NoError(t, err)

	evButtons := testutil.New()
	evButtons.Action("press_2", func(sc evaluator.StepContext) {
		sc.Send("floorSelected", map[string]interface{}{"floor": 2}, 0)
	})
	buttons := interpreter.New(scButtons, evButtons)

	bElevator := builder.New("elevator").Root("root")
	bElevator.Compound("root", "doorsOpen", "movingElevator").Initial("doorsOpen")
	bElevator.Atomic("doorsOpen").Transition().On("floorSelected").To("movingElevator").Action("set_destination")
	bElevator.Atomic("movingElevator")
	scElevator, err := bElevator.Build()
	require.NoError(t, err)

	evElevator := testutil.New()
	evElevator.Action("set_destination", func(sc evaluator.StepContext) {
		if floor, ok := sc.Event.Param("floor"); ok {
			evElevator.Set("destination", floor)
		}
	})
	elevator := interpreter.New(scElevator, evElevator)

	_, err = elevator.ExecuteOnce()
	require.NoError(t, err)

	buttons.Bind(elevator)

	_, err = buttons.ExecuteOnce() // execution 1: enters "idle"
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root", "doorsOpen"}, elevator.Configuration())

	buttons.Queue("button_2_pushed")
	_, err = buttons.ExecuteOnce() // execution 2: fires the internal send, forwarded to elevator
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"root", "doorsOpen"}, elevator.Configuration(), "forwarding only enqueues; elevator has not stepped yet")

	_, err = elevator.ExecuteOnce()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root", "movingElevator"}, elevator.Configuration())
	assert.Equal(t, 2, evElevator.Get("destination"))
}
