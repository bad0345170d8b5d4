package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var order []string

	m.ScheduleOnce(3*time.Second, func() { order = append(order, "c") })
	m.ScheduleOnce(time.Second, func() { order = append(order, "a") })
	m.ScheduleOnce(2*time.Second, func() { order = append(order, "b") })

	m.Advance(time.Second)
	require.Equal(t, []string{"a"}, order)

	m.Advance(5 * time.Second)
	require.Equal(t, []string{"a", "b", "c"}, order)
	require.Empty(t, m.Armed())
}

func TestManual_StopPreventsFire(t *testing.T) {
	m := NewManual()
	fired := false
	h := m.ScheduleOnce(time.Second, func() { fired = true })

	require.True(t, h.Stop())
	require.False(t, h.Stop())
	m.Advance(time.Minute)
	require.False(t, fired)
}

func TestManual_CallbackCanSchedule(t *testing.T) {
	m := NewManual()
	fired := 0
	m.ScheduleOnce(time.Second, func() {
		fired++
		m.ScheduleOnce(time.Second, func() { fired++ })
	})

	m.Advance(2 * time.Second)
	require.Equal(t, 2, fired)
}

func TestWall_ScheduleAndStop(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	Wall{}.ScheduleOnce(10*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})
	stopped := Wall{}.ScheduleOnce(10*time.Millisecond, func() { fired.Add(10) })
	require.True(t, stopped.Stop())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), fired.Load())
}
