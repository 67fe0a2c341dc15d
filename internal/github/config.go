package github

import "time"

type RetryConfig struct {
	// Attempts is the total number of tries for one request, including the first.
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

type Config struct {
	Token   string
	BaseURL string // empty means api.github.com

	PerPage     int
	Affiliation string
	PageDelay   time.Duration
	Timeout     time.Duration

	Retry RetryConfig
}
