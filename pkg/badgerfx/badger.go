package badgerfx

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

const gcDiscardRatio = 0.5

func New(config Config, logger *zapLogger) (*badger.DB, error) {
	if !config.InMemory {
		if err := os.MkdirAll(config.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create BadgerDB directory: %w", err)
		}
	}

	opts := config.Build().
		WithLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return db, nil
}

// collectGarbage rewrites value log files until there is nothing left to reclaim.
func collectGarbage(db *badger.DB) (int, error) {
	for rewritten := 0; ; rewritten++ {
		err := db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, fmt.Errorf("value log GC failed: %w", err)
		}
	}
}
