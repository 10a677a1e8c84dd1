package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairoscore/statechart/builder"
	"github.com/kairoscore/statechart/pkg/model"
)

func TestBuilder_SimpleStatechart(t *testing.T) {
	t.Run("two atomic states with one transition", func(t *testing.T) {
		b := builder.New("turnstile").Root("root")
		b.Compound("root", "locked", "unlocked").Initial("locked")
		b.Atomic("locked").Transition().On("coin").To("unlocked")
		b.Atomic("unlocked").Transition().On("push").To("locked")

		sc, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, "turnstile", sc.Name())
		assert.Equal(t, "root", sc.Root())
		assert.Len(t, sc.TransitionsFrom("locked"), 1)
	})

	t.Run("compound state with initial child", func(t *testing.T) {
		b := builder.New("doors").Root("root")
		b.Compound("root", "open", "closed").Initial("closed")
		b.Atomic("open")
		b.Atomic("closed")

		sc, err := b.Build()
		require.NoError(t, err)
		root, ok := sc.StateFor("root")
		require.True(t, ok)
		assert.Equal(t, model.Compound, root.Kind)
		assert.Equal(t, "closed", root.Initial)
	})
}

func TestBuilder_ErrorsAggregate(t *testing.T) {
	b := builder.New("broken").Root("missing")
	b.Atomic("a")
	b.Atomic("a") // declared twice

	_, err := b.Build()
	require.Error(t, err)

	var berr *builder.Error
	require.ErrorAs(t, err, &berr)
	assert.NotEmpty(t, berr.Errors)
}

func TestBuilder_TransitionOptionsInferInternalAndEventless(t *testing.T) {
	b := builder.New("guarded").Root("root")
	b.Compound("root", "s").Initial("s")
	b.Atomic("s").
		Transition().Guard("alwaysTrue").Action("noop"). // no To/On: internal + eventless
		Transition().On("tick").To("s")                  // self-transition with target

	sc, err := b.Build()
	require.NoError(t, err)

	transitions := sc.TransitionsFrom("s")
	require.Len(t, transitions, 2)

	var sawInternal, sawExternal bool
	for _, tr := range transitions {
		if tr.Internal {
			sawInternal = true
			assert.True(t, tr.Eventless)
		} else {
			sawExternal = true
			assert.Equal(t, "tick", tr.Event)
		}
	}
	assert.True(t, sawInternal)
	assert.True(t, sawExternal)
}

func TestBuilder_Reopen(t *testing.T) {
	t.Run("reopening a declared state adds another transition", func(t *testing.T) {
		b := builder.New("reopened").Root("root")
		b.Compound("root", "a", "b").Initial("a")
		b.Atomic("a").Transition().On("go").To("b")
		b.Atomic("b")

		b.Reopen("a").Transition().On("retry").To("a")

		sc, err := b.Build()
		require.NoError(t, err)
		assert.Len(t, sc.TransitionsFrom("a"), 2)
	})

	t.Run("reopening an undeclared state is a builder error", func(t *testing.T) {
		b := builder.New("bad-reopen").Root("root")
		b.Atomic("root")
		b.Reopen("nope").Transition().On("go").To("root")

		_, err := b.Build()
		require.Error(t, err)
	})
}

func TestBuilder_HistoryAndContracts(t *testing.T) {
	b := builder.New("with-history").Root("root")
	b.Compound("root", "loop").Initial("loop")
	b.Compound("loop", "hist", "s1", "s2").Initial("hist")
	b.ShallowHistory("hist").Memory("s1")
	b.Atomic("s1").Precondition("always").Transition().On("next").To("s2")
	b.Atomic("s2").Postcondition("stayed").Invariant("neverNegative")

	sc, err := b.Build()
	require.NoError(t, err)

	hist, ok := sc.StateFor("hist")
	require.True(t, ok)
	assert.Equal(t, model.ShallowHistory, hist.Kind)
	assert.Equal(t, "s1", hist.Memory)

	s1, _ := sc.StateFor("s1")
	assert.Equal(t, []string{"always"}, s1.Contract.Preconditions)

	s2, _ := sc.StateFor("s2")
	assert.Equal(t, []string{"stayed"}, s2.Contract.Postconditions)
	assert.Equal(t, []string{"neverNegative"}, s2.Contract.Invariants)
}
