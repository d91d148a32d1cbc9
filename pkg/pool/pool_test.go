package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAllSubmittedTasks(t *testing.T) {
	p := New(4)
	defer p.Stop()

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		p.Submit(func() {
			count.Add(1)
			wg.Done()
		})
	}

	waitOrTimeout(t, &wg, time.Second)
	assert.EqualValues(t, 100, count.Load())
}

func TestPoolStopDrainsInFlightTasks(t *testing.T) {
	p := New(2)

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		p.Submit(func() {
			count.Add(1)
			wg.Done()
		})
	}

	p.Stop()
	assert.EqualValues(t, 20, count.Load())
}

func TestPoolRejectsSubmissionsAfterStop(t *testing.T) {
	p := New(2)
	p.Stop()

	var ran atomic.Bool
	p.Submit(func() { ran.Store(true) })

	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestPoolStopIsIdempotent(t *testing.T) {
	p := New(1)
	p.Stop()
	assert.NotPanics(t, func() {
		p.Stop()
		p.Stop()
	})
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for tasks to complete")
	}
}
