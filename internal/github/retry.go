package github

import (
	"context"
	"errors"
	"time"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

// withRetry runs op until it succeeds, fails with a non-transient error or
// runs out of attempts. Delays grow exponentially up to Retry.MaxDelay; a
// rate limit reset further away than MaxDelay is not waited for.
func (c *Client) withRetry(ctx context.Context, resource string, op func() error) error {
	attempts := max(c.config.Retry.Attempts, 1)
	delay := c.config.Retry.InitialDelay

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, ErrTransient) || attempt >= attempts {
			return err
		}

		wait := delay
		if reset, ok := retryAfter(err); ok {
			if reset > c.config.Retry.MaxDelay {
				return err
			}
			wait = max(wait, reset)
		}

		c.logger.Warn("transient API error, backing off",
			zap.String("resource", resource),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}

		delay = min(delay*2, c.config.Retry.MaxDelay)
	}
}

func retryAfter(err error) (time.Duration, bool) {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return time.Until(rateErr.Rate.Reset.Time), true
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return *abuseErr.RetryAfter, true
	}

	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
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
