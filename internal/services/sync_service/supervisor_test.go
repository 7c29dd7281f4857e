package sync_service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 100, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateBackoff(tt.failures, baseInterval))
		})
	}
}

func TestCalculateBackoff_BaseAboveCap(t *testing.T) {
	assert.Equal(t, time.Minute, calculateBackoff(3, time.Minute))
}

type scriptedLoop struct {
	name     string
	interval time.Duration
	calls    atomic.Int32
	tick     func(n int32) error
}

func (l *scriptedLoop) Name() string            { return l.name }
func (l *scriptedLoop) Interval() time.Duration { return l.interval }
func (l *scriptedLoop) Tick(context.Context) error {
	return l.tick(l.calls.Add(1))
}

func TestSupervisor_CountsFailuresAndRecovers(t *testing.T) {
	loop := &scriptedLoop{name: "flaky", interval: 2 * time.Millisecond, tick: func(n int32) error {
		if n <= 2 {
			return errors.New("upload failed")
		}
		return nil
	}}
	s := NewSupervisor(logging.Nop(), loop)
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.Stats()[0].Ticks >= 4
	}, 2*time.Second, 5*time.Millisecond)

	st := s.Stats()[0]
	assert.Equal(t, "flaky", st.Name)
	assert.Equal(t, uint64(2), st.Failures)
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 2*time.Millisecond, st.Backoff)
}

func TestSupervisor_BackoffGrowsWhileFailing(t *testing.T) {
	loop := &scriptedLoop{name: "down", interval: time.Millisecond, tick: func(int32) error {
		return errors.New("broker unreachable")
	}}
	s := NewSupervisor(logging.Nop(), loop)
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.Stats()[0].ConsecutiveFailures >= 3
	}, 2*time.Second, 2*time.Millisecond)

	st := s.Stats()[0]
	assert.Equal(t, "broker unreachable", st.LastError)
	assert.GreaterOrEqual(t, st.Backoff, 8*time.Millisecond)
}

func TestSupervisor_RecoversPanic(t *testing.T) {
	loop := &scriptedLoop{name: "panicky", interval: time.Millisecond, tick: func(n int32) error {
		if n == 1 {
			panic("nil map")
		}
		return nil
	}}
	s := NewSupervisor(logging.Nop(), loop)
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.Stats()[0].Ticks >= 2
	}, 2*time.Second, 2*time.Millisecond)
	assert.Equal(t, uint64(1), s.Stats()[0].Failures)
}

func TestSupervisor_StopsOnCancel(t *testing.T) {
	loop := &scriptedLoop{name: "steady", interval: time.Millisecond, tick: func(int32) error { return nil }}
	s := NewSupervisor(logging.Nop(), loop)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}

	calls := loop.calls.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, loop.calls.Load())
}
