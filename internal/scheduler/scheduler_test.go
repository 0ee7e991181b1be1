package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextWakeMidInterval(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 7, 23, 0, time.UTC)
	next := NextWake(now, 15*time.Minute)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC), next)
}

func TestNextWakeOnBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)
	next := NextWake(now, 15*time.Minute)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), next)
}

func TestWaitDurationFloor(t *testing.T) {
	// 距边界仅 1 秒时，休眠时长被抬到下限。
	now := time.Date(2025, 3, 1, 10, 14, 59, 0, time.UTC)
	wait := WaitDuration(now, 15*time.Minute, 0, 10*time.Second)
	assert.Equal(t, 10*time.Second, wait)
}

func TestWaitDurationNormal(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 10, 0, 0, time.UTC)
	wait := WaitDuration(now, 15*time.Minute, 0, 10*time.Second)
	assert.Equal(t, 5*time.Minute, wait)
}

func TestWaitDurationWithOffset(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 10, 0, 0, time.UTC)
	wait := WaitDuration(now, 15*time.Minute, 5*time.Second, 10*time.Second)
	assert.Equal(t, 5*time.Minute+5*time.Second, wait)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, time.Hour, 0)
	s.Floor = 50 * time.Millisecond

	ran := 0
	done := make(chan struct{})
	go func() {
		s.Run(func() {
			ran++
			if ran == 1 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.Equal(t, 1, ran)
}

func TestParseInterval(t *testing.T) {
	d, err := ParseInterval("15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	d, err = ParseInterval("1h")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	_, err = ParseInterval("7m")
	assert.Error(t, err)
}
