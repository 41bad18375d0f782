package query

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/internal/config"
)

// RetryPolicy decides whether a failed read is attempted again and how long
// to wait first. Mutations are never retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy allows a single retry after one second.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 1,
	BaseDelay:  time.Second,
	MaxDelay:   30 * time.Second,
}

func RetryPolicyFromConfig(cfg config.CacheConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries: cfg.GetMaxRetries(),
		BaseDelay:  cfg.GetRetryBaseDelay(),
		MaxDelay:   cfg.GetMaxRetryDelay(),
	}
}

// ShouldRetry reports whether a read that has already been retried `retried`
// times and just failed with err gets another attempt. An Unauthorized failure
// is final because the session has already been torn down. A request timeout
// is a NetworkUnreachable failure like any other and gets its retry.
func (p RetryPolicy) ShouldRetry(retried int, err error) bool {
	if err == nil || errors.Is(err, gateway.ErrUnauthorized) {
		return false
	}
	return retried < p.MaxRetries
}

// Delay is the wait before retry number retried+1: BaseDelay doubled per
// previous retry, capped at MaxDelay.
func (p RetryPolicy) Delay(retried int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < retried && d < p.MaxDelay; i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// ShouldRetry applies DefaultRetryPolicy.
func ShouldRetry(retried int, err error) bool {
	return DefaultRetryPolicy.ShouldRetry(retried, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
