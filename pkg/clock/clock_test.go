package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kairoscore/statechart/pkg/clock"
)

func TestSimulated_SetAndAdvance(t *testing.T) {
	c := clock.NewSimulated()
	assert.Equal(t, 0.0, c.Now())

	assert.True(t, c.Set(5))
	assert.Equal(t, 5.0, c.Now())

	assert.True(t, c.Advance(2.5))
	assert.Equal(t, 7.5, c.Now())
}

func TestSimulated_SetRejectsGoingBackwards(t *testing.T) {
	c := clock.NewSimulated()
	c.Set(10)

	assert.False(t, c.Set(5))
	assert.Equal(t, 10.0, c.Now())
}

func TestSimulated_AdvanceRejectsNegativeDelta(t *testing.T) {
	c := clock.NewSimulated()
	c.Set(10)

	assert.False(t, c.Advance(-1))
	assert.Equal(t, 10.0, c.Now())
}

func TestSimulated_StartAddsRealElapsedTime(t *testing.T) {
	c := clock.NewSimulated()
	c.Set(1)
	c.Start()
	time.Sleep(20 * time.Millisecond)
	got := c.Now()
	assert.Greater(t, got, 1.0)
	c.Stop()
	frozen := c.Now()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, frozen, c.Now())
}

func TestSimulated_SpeedScalesElapsedTime(t *testing.T) {
	c := clock.NewSimulated()
	c.Speed(100)
	c.Start()
	time.Sleep(10 * time.Millisecond)
	c.Stop()
	// 10ms real time at 100x should read as roughly 1s simulated, well above a
	// tight lower bound that would catch a forgotten speed multiplier.
	assert.Greater(t, c.Now(), 0.5)
}

func TestWall_ReportsUnixSeconds(t *testing.T) {
	w := clock.NewWall()
	nowUnix := float64(time.Now().Unix())
	assert.InDelta(t, nowUnix, w.Now(), 2)
}

type fakeSource struct{ t float64 }

func (f fakeSource) Time() float64 { return f.t }

func TestSynchronized_MirrorsSource(t *testing.T) {
	src := fakeSource{t: 42}
	sync := clock.NewSynchronized(src)
	assert.Equal(t, 42.0, sync.Now())
}
