package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	executed  *atomic.Int32
	current   *atomic.Int32
	peak      *atomic.Int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		j.executed.Add(1)
	}
	if j.current != nil {
		n := j.current.Add(1)
		defer j.current.Add(-1)
		for {
			p := j.peak.Load()
			if n <= p || j.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

func TestNewPool(t *testing.T) {
	for _, tt := range []struct {
		in, want int
	}{{5, 5}, {0, 1}, {-1, 1}} {
		p := NewPool(context.Background(), tt.in)
		if p.workers != tt.want {
			t.Errorf("NewPool(%d) workers = %d, want %d", tt.in, p.workers, tt.want)
		}
		p.Shutdown()
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	var executed atomic.Int32
	count := 50
	for i := 0; i < count; i++ {
		// Earlier jobs run longer so they finish last.
		d := time.Duration(count-i) * 100 * time.Microsecond
		if !pool.Submit(&mockJob{id: i, duration: d, executed: &executed}) {
			t.Fatalf("submit %d rejected", i)
		}
	}

	results := pool.Wait()
	if len(results) != count {
		t.Fatalf("expected %d results, got %d", count, len(results))
	}
	if executed.Load() != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed.Load())
	}
	for i, r := range results {
		if got := r.(*mockResult).id; got != i {
			t.Fatalf("result %d has id %d", i, got)
		}
	}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 5
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var current, peak atomic.Int32
	for i := 0; i < 30; i++ {
		pool.Submit(&mockJob{id: i, duration: 5 * time.Millisecond, current: &current, peak: &peak})
	}
	pool.Wait()

	if peak.Load() > int32(workers) {
		t.Errorf("peak concurrency %d exceeded workers %d", peak.Load(), workers)
	}
	if peak.Load() <= 1 {
		t.Logf("peak concurrency was %d, expected > 1", peak.Load())
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&mockJob{id: 0, shouldErr: true})
	pool.Submit(&mockJob{id: 1})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].GetError() == nil || results[1].GetError() != nil {
		t.Errorf("unexpected errors: %v, %v", results[0].GetError(), results[1].GetError())
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(&mockJob{})
	}()

	select {
	case ok := <-done:
		if ok {
			t.Error("submit after shutdown should be rejected")
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownCancelsRunningJobs(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	var executed atomic.Int32
	pool.Submit(&mockJob{duration: 10 * time.Second, executed: &executed})

	deadline := time.Now().Add(time.Second)
	for executed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown timed out")
	}
}

func TestPool_ParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()
	cancel()

	if pool.Submit(&mockJob{}) {
		t.Error("submit under a cancelled context should be rejected")
	}
	if results := pool.Wait(); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
