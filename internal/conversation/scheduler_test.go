package conversation

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsDueTasks(t *testing.T) {
	clock := &manualClock{}
	s := NewScheduler(clock.AfterFunc)

	var ran atomic.Int32
	s.After(time.Second, func() { ran.Add(1) })
	s.After(2*time.Second, func() { ran.Add(1) })
	assert.Equal(t, 2, s.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, 1, s.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, int32(2), ran.Load())
	assert.Zero(t, s.Pending())
}

func TestSchedulerTeardown(t *testing.T) {
	clock := &manualClock{}
	s := NewScheduler(clock.AfterFunc)

	var ran atomic.Int32
	s.After(time.Second, func() { ran.Add(1) })
	s.Teardown()
	s.After(time.Second, func() { ran.Add(1) })

	clock.Advance(time.Minute)
	assert.Zero(t, ran.Load())
	assert.Zero(t, s.Pending())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after teardown")
	}
}

func TestSchedulerRealTimer(t *testing.T) {
	s := NewScheduler(nil)
	done := make(chan struct{})
	s.After(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	s.Teardown()
}
