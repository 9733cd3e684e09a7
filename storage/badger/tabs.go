package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tabstash/core"
	"github.com/poiesic/tabstash/storage"
)

// TabRepository implements storage.TabRepository for BadgerDB.
type TabRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TabRepository = (*TabRepository)(nil)

// NewTabRepository creates a new TabRepository.
func NewTabRepository(backend *Backend) (*TabRepository, error) {
	idSeq, err := backend.GetSequence(tabRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &TabRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *TabRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *TabRepository) FindSimilar(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
	return r.backend.FindSimilar(ctx, userID, vector, maxDistance, limit)
}

// WithTransaction delegates to the backend.
func (r *TabRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddTabRecords adds one or more tab records to storage.
func (r *TabRepository) AddTabRecords(ctx context.Context, records ...*core.TabRecord) ([]*core.TabRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Generate IDs and set timestamps
		for _, record := range records {
			if err := core.ValidateTabRecord(record); err != nil {
				return err
			}

			if record.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				record.Id = core.ID(nextID)
			}

			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}
			record.UpdatedAt = record.InsertedAt

			// Store primary record
			key := makeTabRecordKey(record.Id)
			value := storage.MarshalTabRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update date index
			dateKey := makeTabDateKey(record.InsertedAt, record.Id)
			if err := tx.Set(dateKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}

			// Update user index
			userKey := makeTabUserKey(record.UserID, record.Id)
			if err := tx.Set(userKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdateTabRecords updates existing tab records.
func (r *TabRepository) UpdateTabRecords(ctx context.Context, records ...*core.TabRecord) ([]*core.TabRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeTabRecordKey(record.Id)

			// Read old record to detect changes
			old, err := r.readTabRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			// Update timestamp
			record.InsertedAt = old.InsertedAt
			record.UpdatedAt = time.Now().UTC()

			// Store updated record
			value := storage.MarshalTabRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update user index if ownership changed
			if old.UserID != record.UserID {
				if err := tx.Delete(makeTabUserKey(old.UserID, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeTabUserKey(record.UserID, record.Id), storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeleteTabRecords removes tab records by their IDs.
func (r *TabRepository) DeleteTabRecords(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeTabRecordKey(id)

			// Read record to get metadata for index cleanup
			record, err := r.readTabRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			// Delete from date index
			dateKey := makeTabDateKey(record.InsertedAt, record.Id)
			if err := tx.Delete(dateKey); err != nil {
				return err
			}

			// Delete from user index
			userKey := makeTabUserKey(record.UserID, record.Id)
			if err := tx.Delete(userKey); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetTabRecord retrieves a single tab record by ID.
func (r *TabRepository) GetTabRecord(ctx context.Context, id core.ID) (*core.TabRecord, error) {
	var result *core.TabRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTabRecordKey(id)
		var err error
		result, err = r.readTabRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetTabRecords retrieves multiple tab records by their IDs.
func (r *TabRepository) GetTabRecords(ctx context.Context, ids ...core.ID) ([]*core.TabRecord, error) {
	var result []*core.TabRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeTabRecordKey(id)
			record, err := r.readTabRecord(tx, key)
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetTabRecordsByUser retrieves all tab records owned by a user.
func (r *TabRepository) GetTabRecordsByUser(ctx context.Context, userID string) ([]*core.TabRecord, error) {
	var results []*core.TabRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialTabUserKey(userID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			// Check if key still has our user prefix
			if len(key) < len(startKey) {
				break
			}
			if slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			// Read the ID from the index
			var recordID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				recordID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full record
			recordKey := makeTabRecordKey(recordID)
			record, err := r.readTabRecord(tx, recordKey)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// User index is ID-ordered; sort by insertion time for the contract
	slices.SortFunc(results, func(a, b *core.TabRecord) int {
		return a.InsertedAt.Compare(b.InsertedAt)
	})

	return results, nil
}

// GetTabRecordsByDateRange retrieves tab records within a time range.
func (r *TabRepository) GetTabRecordsByDateRange(ctx context.Context, start, end time.Time) ([]*core.TabRecord, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.TabRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialTabDateKey(start)
		endKey := makePartialTabDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			// Read the ID from the index
			var recordID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				recordID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full record
			recordKey := makeTabRecordKey(recordID)
			record, err := r.readTabRecord(tx, recordKey)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// Helper methods

// readTabRecord reads a tab record from the transaction.
func (r *TabRepository) readTabRecord(tx *badger.Txn, key []byte) (*core.TabRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.TabRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalTabRecord(val)
		return unmarshalErr
	})
	return record, err
}
