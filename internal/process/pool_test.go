// internal/process/pool_test.go
// TEST TYPE: Unit Test
// PURPOSE: Verify the worker pool dispatches tasks and returns results
// through their own completion channel (spec.md §5).
package process_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qwer-cli/qwer/internal/process"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := process.NewPool(2)
	defer pool.Close()

	var n int32
	futures := make([]process.Future, 0, 5)
	for i := 0; i < 5; i++ {
		futures = append(futures, pool.Submit(context.Background(), func(ctx context.Context) (*process.Result, error) {
			atomic.AddInt32(&n, 1)
			return &process.Result{Stdout: "ok"}, nil
		}))
	}

	for _, f := range futures {
		select {
		case res := <-f:
			if res.Err != nil {
				t.Errorf("task error: %v", res.Err)
			}
			if res.Result.Stdout != "ok" {
				t.Errorf("Stdout = %q", res.Result.Stdout)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for task result")
		}
	}

	if atomic.LoadInt32(&n) != 5 {
		t.Errorf("n = %d, want 5", n)
	}
}

func TestPoolPropagatesTaskError(t *testing.T) {
	pool := process.NewPool(1)
	defer pool.Close()

	boom := context.DeadlineExceeded
	future := pool.Submit(context.Background(), func(ctx context.Context) (*process.Result, error) {
		return nil, boom
	})

	res := <-future
	if res.Err != boom {
		t.Errorf("Err = %v, want %v", res.Err, boom)
	}
}
