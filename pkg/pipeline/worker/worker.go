// Package worker runs independent units of work on a bounded pool and retries
// transient failures with backoff and optional rate limiting.
package worker

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
)

type Options struct {
	// Workers bounds parallelism in Map. <=0 means 1.
	Workers    int
	MaxRetries int
	// Timeout bounds each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration

	// RateLimitRPS paces attempts across all workers. Set to <=0 to disable.
	RateLimitRPS float64
	// Limiter, when set, is used instead of building one from RateLimitRPS, so
	// several calls can share one pacing budget.
	Limiter *rate.Limiter

	Backoff Backoff
}

// Backoff is an exponential delay between attempts.
type Backoff struct {
	// Initial is the sleep before the first retry.
	Initial time.Duration
	// Max caps the exponential growth.
	Max time.Duration
	// Jitter applies +/- this fraction to every sleep (0.2 = +/-20%).
	Jitter float64
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Backoff.Initial <= 0 {
		o.Backoff.Initial = 200 * time.Millisecond
	}
	if o.Backoff.Max <= 0 {
		o.Backoff.Max = 2 * time.Second
	}
	if o.Backoff.Jitter < 0 {
		o.Backoff.Jitter = 0
	}
	return o
}

func (o Options) limiter() *rate.Limiter {
	if o.Limiter != nil {
		return o.Limiter
	}
	if o.RateLimitRPS > 0 {
		return rate.NewLimiter(rate.Limit(o.RateLimitRPS), 1)
	}
	return nil
}

// Delay returns the sleep before retry number attempt+1.
func (b Backoff) Delay(attempt int) time.Duration {
	sleep := b.Initial
	for i := 0; i < attempt && sleep < b.Max; i++ {
		sleep *= 2
		if sleep > b.Max {
			sleep = b.Max
			break
		}
	}
	if b.Jitter <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*b.Jitter
	return time.Duration(float64(sleep) * j)
}

// Do runs fn, retrying transient failures according to opts.
func Do[Out any](ctx context.Context, fn func(context.Context) (Out, error), opts Options) (Out, error) {
	opts = opts.withDefaults()
	return retry(ctx, fn, opts.limiter(), opts)
}

// Map applies fn to every item on up to opts.Workers goroutines and returns the
// outputs in input order. On failure it returns the error of the lowest failing
// index; items after it are not started.
func Map[In any, Out any](
	ctx context.Context,
	items []In,
	fn func(context.Context, In) (Out, error),
	opts Options,
) ([]Out, error) {
	opts = opts.withDefaults()
	limiter := opts.limiter()

	out := make([]Out, len(items))
	errs := make([]error, len(items))

	var (
		mu        sync.Mutex
		minFailed = len(items)
	)
	skip := func(idx int) bool {
		mu.Lock()
		defer mu.Unlock()
		return idx > minFailed
	}
	failed := func(idx int) {
		mu.Lock()
		if idx < minFailed {
			minFailed = idx
		}
		mu.Unlock()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < min(opts.Workers, max(len(items), 1)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if skip(idx) {
					continue
				}
				res, err := retry(ctx, func(ctx context.Context) (Out, error) {
					return fn(ctx, items[idx])
				}, limiter, opts)
				out[idx], errs[idx] = res, err
				if err != nil {
					failed(idx)
				}
			}
		}()
	}

feed:
	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func retry[Out any](ctx context.Context, fn func(context.Context) (Out, error), limiter *rate.Limiter, opts Options) (Out, error) {
	var lastOut Out
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return lastOut, err
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return lastOut, err
			}
		}

		reqCtx := ctx
		var cancel context.CancelFunc
		if opts.Timeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}
		result, err := fn(reqCtx)
		lastOut = result
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return lastOut, ctx.Err()
		}
		if !IsTransient(err) || attempt >= opts.MaxRetries {
			return lastOut, err
		}

		sleep := max(opts.Backoff.Delay(attempt), RetryAfter(err))
		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return lastOut, ctx.Err()
		}
	}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *core.TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// RetryAfter returns the wait the upstream asked for, or zero.
func RetryAfter(err error) time.Duration {
	var te *core.TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter
	}
	return 0
}
