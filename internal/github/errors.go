package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v66/github"
)

var (
	// ErrAuthentication means the token is missing, invalid, expired or lacks
	// access. No useful work is possible until it is replaced.
	ErrAuthentication = errors.New("authentication failed")
	// ErrTransient covers rate limits, 5xx responses and network failures.
	ErrTransient = errors.New("transient API error")
	// ErrListing is any other, non-retryable API failure.
	ErrListing = errors.New("failed to list repositories")
)

// classify maps a go-github error onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
	)

	switch {
	case errors.As(err, &rateErr):
		return fmt.Errorf("%w: rate limit exceeded: %w", ErrTransient, err)
	case errors.As(err, &abuseErr):
		return fmt.Errorf("%w: secondary rate limit exceeded: %w", ErrTransient, err)
	case errors.As(err, &respErr):
		return classifyStatus(statusCode(respErr), err)
	default:
		// transport level: DNS, TLS, connection resets, client timeouts
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
}

func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ErrTransient, err)
	default:
		return fmt.Errorf("%w: %w", ErrListing, err)
	}
}

func statusCode(err *gh.ErrorResponse) int {
	if err.Response == nil {
		return 0
	}

	return err.Response.StatusCode
}
