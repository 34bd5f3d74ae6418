package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSubmitDeliversResult(t *testing.T) {
	runner := NewRunner(2)

	err := <-runner.Submit(context.Background(), "ok", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = <-runner.Submit(context.Background(), "fails", func(ctx context.Context) error {
		return boom
	})
	require.Equal(t, boom, err)
}

func TestSubmitCanceledContextSkipsTask(t *testing.T) {
	runner := NewRunner(1)

	// Hold the only slot so the next task has to wait on the semaphore
	release := make(chan struct{})
	blocked := runner.Submit(context.Background(), "holder", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := <-runner.Submit(ctx, "skipped", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.Error(t, err)
	require.False(t, ran.Load())

	close(release)
	require.NoError(t, <-blocked)
}

func TestConcurrencyIsBounded(t *testing.T) {
	runner := NewRunner(2)

	var running, peak atomic.Int64
	done := make([]<-chan error, 0, 8)
	for i := 0; i < 8; i++ {
		done = append(done, runner.Submit(context.Background(), "bounded", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		}))
	}

	for _, ch := range done {
		require.NoError(t, <-ch)
	}
	require.LessOrEqual(t, peak.Load(), int64(2))
}

func TestWaitBlocksUntilTasksFinish(t *testing.T) {
	runner := NewRunner(4)

	var finished atomic.Int64
	for i := 0; i < 4; i++ {
		runner.Submit(context.Background(), "wait", func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			finished.Add(1)
			return nil
		})
	}

	runner.Wait()
	require.Equal(t, int64(4), finished.Load())
}
