package git

import "time"

type HTTPSAuthConfig struct {
	Username string
	Token    string
}

type Config struct {
	// Timeout bounds a single clone or pull.
	Timeout time.Duration
	Auth    HTTPSAuthConfig
}
