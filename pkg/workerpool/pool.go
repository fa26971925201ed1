// Package workerpool runs independent jobs with bounded parallelism.
package workerpool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxConcurrent is used when Config.MaxConcurrent is not positive.
const DefaultMaxConcurrent = 4

// Config configures a Pool.
type Config struct {
	MaxConcurrent int
}

// Pool bounds how many jobs run at once. A Pool is safe for concurrent use;
// the limit applies per Run call.
type Pool struct {
	maxConcurrent int
	logger        *zap.Logger
}

// New creates a Pool.
func New(cfg Config, logger *zap.Logger) *Pool {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Pool{
		maxConcurrent: cfg.MaxConcurrent,
		logger:        logger.Named("worker-pool"),
	}
}

// MaxConcurrent returns the concurrency limit.
func (p *Pool) MaxConcurrent() int {
	return p.maxConcurrent
}

// Job is one unit of work. Key identifies it in logs and results.
type Job[T any] struct {
	Key string
	Run func(ctx context.Context) (T, error)
}

// Result is the outcome of one Job.
type Result[T any] struct {
	Key   string
	Value T
	Err   error
}

// Run executes every job and returns results in submission order.
// A failing job does not stop the others. Jobs that have not started when
// ctx is cancelled report ctx.Err(). onDone, if set, is called after each
// job finishes with the number of finished jobs so far.
func Run[T any](ctx context.Context, p *Pool, jobs []Job[T], onDone func(done, total int)) []Result[T] {
	if len(jobs) == 0 {
		return nil
	}

	results := make([]Result[T], len(jobs))
	sem := make(chan struct{}, p.maxConcurrent)
	start := time.Now()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job[T]) {
			defer wg.Done()

			var res Result[T]
			select {
			case sem <- struct{}{}:
				value, err := job.Run(ctx)
				<-sem
				res = Result[T]{Key: job.Key, Value: value, Err: err}
			case <-ctx.Done():
				res = Result[T]{Key: job.Key, Err: ctx.Err()}
			}
			results[i] = res

			if res.Err != nil {
				p.logger.Debug("Job failed", zap.String("key", job.Key), zap.Error(res.Err))
			}

			mu.Lock()
			done++
			n := done
			if onDone != nil {
				onDone(n, len(jobs))
			}
			mu.Unlock()
		}(i, job)
	}

	wg.Wait()

	p.logger.Debug("Jobs finished",
		zap.Int("total", len(jobs)),
		zap.Int("max_concurrent", p.maxConcurrent),
		zap.Duration("elapsed", time.Since(start)))

	return results
}
