package badgerfx

import (
	"time"

	"github.com/dgraph-io/badger/v4"
)

type Config struct {
	// Path to the BadgerDB data directory
	Dir string
	// InMemory keeps the whole database in memory; Dir is ignored.
	InMemory bool
	// GCInterval is how often value log garbage collection runs. Zero disables it.
	GCInterval time.Duration
}

func (c Config) Build() badger.Options {
	if c.InMemory {
		return badger.DefaultOptions("").WithInMemory(true)
	}

	return badger.DefaultOptions(c.Dir)
}
