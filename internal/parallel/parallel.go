// Package parallel provides the goroutine fan-out helpers used by the
// convolution loops and the parallel trainer.
package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch optimized for batch*channels iteration pattern.
// Common in CNN operations like Conv2D.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	n := batch * channels
	For(n, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}

// PanicError is returned by Run when a task panics.
type PanicError struct {
	Task  int    // Index of the panicking task
	Value any    // Value passed to panic
	Stack []byte // Stack trace of the panicking goroutine
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Task, e.Value)
}

// Run executes task(i) for i in [0, n), one goroutine per task, and waits for
// all of them. Panics are recovered into *PanicError values.
//
// The returned error joins every task error in index order; nil means all
// tasks succeeded.
func Run(n int, task func(i int) error) error {
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = &PanicError{Task: i, Value: r, Stack: debug.Stack()}
				}
			}()
			errs[i] = task(i)
		}(i)
	}
	wg.Wait()

	return errors.Join(errs...)
}
