package resilient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// maxBackoff caps the delay between attempts.
const maxBackoff = 5 * time.Second

// Policy bounds calls to one dependency.
type Policy struct {
	// Timeout bounds each attempt. Zero disables the per-attempt deadline.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
}

// PolicyFrom builds a policy from resilience settings.
func PolicyFrom(s domain.ResilienceSettings) Policy {
	return Policy{
		Timeout:        s.Timeout,
		MaxRetries:     s.MaxRetries,
		InitialBackoff: s.InitialBackoff,
	}
}

// once runs fn a single time under the per-attempt timeout.
func (p Policy) once(ctx context.Context, fn func(ctx context.Context) error) error {
	attemptCtx, cancel := p.attemptContext(ctx)
	defer cancel()
	return fn(attemptCtx)
}

// retry runs fn until it succeeds, fails permanently, exhausts its retries
// or ctx is done.
func (p Policy) retry(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := p.once(ctx, fn)
		if err == nil {
			return nil
		}
		if domain.IsPermanent(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		logger.Debug("%s attempt %d failed, retrying in %s: %v", name, attempt, next, err)
	}

	return backoff.RetryNotify(op, p.backoff(ctx), notify)
}

func (p Policy) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		exp.InitialInterval = p.InitialBackoff
	}
	exp.MaxInterval = maxBackoff
	exp.MaxElapsedTime = 0

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func (p Policy) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}
