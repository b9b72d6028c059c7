package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	q := New[int]()
	if q == nil {
		t.Fatal("New() returned nil")
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.Busy() {
		t.Error("new queue should not be busy")
	}
}

func TestEnqueueSingle(t *testing.T) {
	q := New[string]()

	val, err := q.Enqueue(func() (string, error) {
		return "hello", nil
	}).Wait(context.Background())

	if err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
	if val != "hello" {
		t.Errorf("Wait() returned %v, want hello", val)
	}
}

func TestEnqueuePreservesOrder(t *testing.T) {
	q := New[int]()

	const n = 20
	var (
		mu       sync.Mutex
		order    []int
		inFlight int32
		maxSeen  int32
	)

	// Hold the first unit so every other submission lands behind it.
	gate := make(chan struct{})
	started := make(chan struct{})
	first := q.Enqueue(func() (int, error) {
		close(started)
		<-gate
		return -1, nil
	})
	<-started

	pendings := make([]*Pending[int], n)
	for i := 0; i < n; i++ {
		i := i
		pendings[i] = q.Enqueue(func() (int, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if cur <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, cur) {
					break
				}
			}
			// Later submissions finish faster; ordering must still hold.
			time.Sleep(time.Duration(n-i) * 100 * time.Microsecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			atomic.AddInt32(&inFlight, -1)
			return i, nil
		})
	}

	if q.Len() != n {
		t.Errorf("Len() = %d while head is blocked, want %d", q.Len(), n)
	}
	close(gate)

	if _, err := first.Wait(context.Background()); err != nil {
		t.Fatalf("first unit failed: %v", err)
	}
	for i, p := range pendings {
		val, err := p.Wait(context.Background())
		if err != nil {
			t.Errorf("unit %d returned error: %v", i, err)
		}
		if val != i {
			t.Errorf("unit %d returned %d", i, val)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("execution order = %v, want ascending", order)
		}
	}
	if maxSeen != 1 {
		t.Errorf("max concurrent units = %d, want 1", maxSeen)
	}
}

func TestEnqueueFailureDoesNotStopDraining(t *testing.T) {
	q := New[int]()
	boom := errors.New("boom")

	failed := q.Enqueue(func() (int, error) {
		return 0, boom
	})
	next := q.Enqueue(func() (int, error) {
		return 7, nil
	})

	if _, err := failed.Wait(context.Background()); !errors.Is(err, boom) {
		t.Errorf("failed unit error = %v, want %v", err, boom)
	}
	val, err := next.Wait(context.Background())
	if err != nil {
		t.Errorf("next unit returned error: %v", err)
	}
	if val != 7 {
		t.Errorf("next unit returned %d, want 7", val)
	}
}

func TestEnqueuePanicIsRecovered(t *testing.T) {
	q := New[int]()

	panicked := q.Enqueue(func() (int, error) {
		panic("unit exploded")
	})
	after := q.Enqueue(func() (int, error) {
		return 1, nil
	})

	if _, err := panicked.Wait(context.Background()); err == nil {
		t.Error("expected error from panicking unit")
	}
	if val, err := after.Wait(context.Background()); err != nil || val != 1 {
		t.Errorf("unit after panic = (%d, %v), want (1, nil)", val, err)
	}
}

func TestConcurrentEnqueueRunsEachOnce(t *testing.T) {
	q := New[int]()

	const n = 100
	var runs int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Enqueue(func() (int, error) {
				atomic.AddInt32(&runs, 1)
				return 0, nil
			}).Wait(context.Background())
		}()
	}
	wg.Wait()

	if runs != n {
		t.Errorf("units ran %d times, want %d", runs, n)
	}
}

func TestWaitContextCancelled(t *testing.T) {
	q := New[int]()
	gate := make(chan struct{})
	defer close(gate)

	q.Enqueue(func() (int, error) {
		<-gate
		return 0, nil
	})
	p := q.Enqueue(func() (int, error) {
		return 1, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestOnStartReportsRemaining(t *testing.T) {
	q := New[int]()
	var mu sync.Mutex
	var seen []int
	q.OnStart(func(remaining int) {
		mu.Lock()
		seen = append(seen, remaining)
		mu.Unlock()
	})

	gate := make(chan struct{})
	a := q.Enqueue(func() (int, error) { <-gate; return 0, nil })
	b := q.Enqueue(func() (int, error) { return 0, nil })
	close(gate)
	_, _ = a.Wait(context.Background())
	_, _ = b.Wait(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("OnStart called %d times, want 2", len(seen))
	}
	if seen[1] != 0 {
		t.Errorf("last OnStart remaining = %d, want 0", seen[1])
	}
}

func BenchmarkEnqueue(b *testing.B) {
	q := New[int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = q.Enqueue(func() (int, error) {
			return 0, nil
		}).Wait(context.Background())
	}
}
