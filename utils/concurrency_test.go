package utils

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	var ran int64

	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&ran, 1)
		})
	}
	pool.Wait()

	if ran != 50 {
		t.Errorf("ran: got %d, want 50", ran)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	var active, peak int64

	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&active, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&active, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak)
	}
}

func TestErrorCollectorIgnoresNil(t *testing.T) {
	var c ErrorCollector
	pool := NewWorkerPool(3)
	for i := 0; i < 6; i++ {
		i := i
		pool.Submit(func() {
			if i%2 == 0 {
				c.Add(errors.New("boom"))
				return
			}
			c.Add(nil)
		})
	}
	pool.Wait()

	if got := len(c.Errors()); got != 3 {
		t.Errorf("errors: got %d, want 3", got)
	}
}
