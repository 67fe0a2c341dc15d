package reconciler

import "time"

type Config struct {
	Interval time.Duration
	// Once runs a single pass and stops the application.
	Once bool
}
