package mirrors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backgitup/backgitup/pkg/badgerfx"
	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// Repository persists MirrorRecords in BadgerDB.
type Repository struct {
	db *badger.DB

	entities *badgerfx.Repository[*mirrorModel]
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db:       db,
		entities: badgerfx.NewRepository(func() *mirrorModel { return new(mirrorModel) }),
	}
}

// Upsert applies updater to the stored record for owner/name, or to a fresh
// record if there is none, and writes the result back.
func (r *Repository) Upsert(
	_ context.Context,
	owner, name string,
	updater func(*MirrorRecord),
) (*MirrorRecord, error) {
	var updated *MirrorRecord

	err := r.db.Update(func(txn *badger.Txn) error {
		now := time.Now()

		old, err := r.entities.Read(txn, mirrorKey(owner, name))
		switch {
		case errors.Is(err, badgerfx.ErrNotFound):
			old = nil
		case err != nil:
			return fmt.Errorf("failed to get mirror before update: %w", err)
		default:
			if rmErr := r.entities.DeleteIndexes(txn, old); rmErr != nil {
				return fmt.Errorf("failed to remove mirror indexes: %w", rmErr)
			}
		}

		record := newMirrorRecord(old)
		if record == nil {
			record = &MirrorRecord{Owner: owner, Name: name, CreatedAt: now}
		}

		updater(record)

		model := newMirrorModel(record)
		model.Owner = owner
		model.Name = name
		model.UpdatedAt = now

		if wrErr := r.entities.Write(txn, model); wrErr != nil {
			return fmt.Errorf("failed to store mirror: %w", wrErr)
		}

		updated = newMirrorRecord(model)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mirror: %w", err)
	}

	return updated, nil
}

// Delete removes the record for owner/name.
func (r *Repository) Delete(_ context.Context, owner, name string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		err := r.entities.Delete(txn, mirrorKey(owner, name))
		if errors.Is(err, badgerfx.ErrNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, owner, name)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete mirror: %w", err)
	}

	return nil
}

// Get retrieves the record for owner/name.
func (r *Repository) Get(_ context.Context, owner, name string) (*MirrorRecord, error) {
	var model *mirrorModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.entities.Read(txn, mirrorKey(owner, name))
		if errors.Is(err, badgerfx.ErrNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, owner, name)
		}

		model = found
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get mirror: %w", err)
	}

	return newMirrorRecord(model), nil
}

// List retrieves all records ordered by owner/name.
func (r *Repository) List(_ context.Context) ([]MirrorRecord, error) {
	var models []*mirrorModel

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		models, err = r.entities.List(txn, prefixByID, badger.DefaultIteratorOptions)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mirrors: %w", err)
	}

	return toRecords(models), nil
}

// ListByOutcome retrieves the records whose last outcome matches.
func (r *Repository) ListByOutcome(_ context.Context, outcome Outcome) ([]MirrorRecord, error) {
	var models []*mirrorModel

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		models, err = r.entities.ListByIndex(txn, outcomePrefix(outcome))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mirrors by outcome: %w", err)
	}

	return toRecords(models), nil
}

func toRecords(models []*mirrorModel) []MirrorRecord {
	return lo.Map(models, func(m *mirrorModel, _ int) MirrorRecord {
		return *newMirrorRecord(m)
	})
}
