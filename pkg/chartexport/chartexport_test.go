package chartexport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairoscore/statechart/builder"
	"github.com/kairoscore/statechart/pkg/chartexport"
	"github.com/kairoscore/statechart/pkg/model"
)

func elevatorStatechart(t *testing.T) *model.Statechart {
	t.Helper()
	b := builder.New("elevator").Description("a two-floor demo").Root("root")
	b.Compound("root", "doorsOpen", "movingElevator").Initial("doorsOpen")
	b.Atomic("doorsOpen").
		Precondition("doors_clear").
		Transition().On("floorSelected").To("movingElevator").Action("set_destination")
	b.Atomic("movingElevator").
		OnEntry("announce").
		Transition().Guard("arrived").To("doorsOpen").Action("arrive").Priority(builder.PriorityHigh)

	sc, err := b.Build()
	require.NoError(t, err)
	return sc
}

func TestExportImport_RoundTripIsStructurallyEqual(t *testing.T) {
	sc := elevatorStatechart(t)

	snap, err := chartexport.Export(sc)
	require.NoError(t, err)

	sc2, err := snap.Import()
	require.NoError(t, err)

	assert.Equal(t, sc.Name(), sc2.Name())
	assert.Equal(t, sc.Root(), sc2.Root())
	for _, name := range sc.AllStates() {
		st, ok := sc.StateFor(name)
		require.True(t, ok)
		st2, ok := sc2.StateFor(name)
		require.True(t, ok, "state %q missing after round trip", name)
		assert.Equal(t, st.Kind, st2.Kind, "state %q kind", name)
		assert.Equal(t, st.Initial, st2.Initial, "state %q initial", name)
		assert.Equal(t, st.Children, st2.Children, "state %q children", name)
		assert.Equal(t, st.OnEntry, st2.OnEntry, "state %q on_entry", name)
		assert.Equal(t, st.Contract, st2.Contract, "state %q contract", name)
	}

	for _, name := range sc.AllStates() {
		want := sc.TransitionsFrom(name)
		got := sc2.TransitionsFrom(name)
		require.Len(t, got, len(want), "transitions from %q", name)
		for i := range want {
			assert.Equal(t, want[i].Target, got[i].Target)
			assert.Equal(t, want[i].Event, got[i].Event)
			assert.Equal(t, want[i].Guard, got[i].Guard)
			assert.Equal(t, want[i].Action, got[i].Action)
			assert.Equal(t, want[i].Priority, got[i].Priority)
			assert.Equal(t, want[i].Contract, got[i].Contract)
		}
	}
}

func TestExportImport_YAMLRoundTrip(t *testing.T) {
	sc := elevatorStatechart(t)

	snap, err := chartexport.Export(sc)
	require.NoError(t, err)

	data, err := snap.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "doorsOpen")

	parsed, err := chartexport.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, snap, parsed)

	sc2, err := parsed.Import()
	require.NoError(t, err)
	assert.Equal(t, sc.Root(), sc2.Root())
}

func TestExport_TwoExportsOfSameStatechartAreIdentical(t *testing.T) {
	sc := elevatorStatechart(t)

	a, err := chartexport.Export(sc)
	require.NoError(t, err)
	b, err := chartexport.Export(sc)
	require.NoError(t, err)

	da, err := a.Marshal()
	require.NoError(t, err)
	db, err := b.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(da), string(db))
}

func TestParse_UnknownTypeIsRejected(t *testing.T) {
	data := []byte("name: bad\nroot: a\nstates:\n  - name: a\n    type: hexagonal\n")
	snap, err := chartexport.Parse(data)
	require.NoError(t, err)

	_, err = snap.Import()
	assert.Error(t, err)
}
