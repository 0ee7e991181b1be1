// Package retry wraps fallible calls in a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy 显式重试策略：固定次数 + 固定间隔，由调用方在调用点包裹。
// 所有错误都视为可重试；预算耗尽后把最后一次错误原样抛给调用方。
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Default matches the exchange/model transport contract: 3 attempts, 2s apart.
func Default() Policy {
	return Policy{Attempts: 3, Delay: 2 * time.Second}
}

func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.Delay
	if delay <= 0 {
		delay = time.Millisecond // NewConstant rejects non-positive intervals
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	var rerr interface{ Unwrap() error }
	if errors.As(err, &rerr) {
		if inner := rerr.Unwrap(); inner != nil {
			return inner
		}
	}
	return err
}
