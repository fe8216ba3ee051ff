package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/coverscope/docintel/core"
	"github.com/coverscope/docintel/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
type RecordRepository struct {
	backend *Backend
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(backend *Backend) *RecordRepository {
	return &RecordRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *RecordRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *RecordRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveCoreRecord stores a document's core record, replacing any prior
// one. One core record per document.
func (r *RecordRepository) SaveCoreRecord(ctx context.Context, record *core.CoreRecord) (*core.CoreRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if record.Id == 0 {
			record.Id = core.IDFromContent(fmt.Sprintf("corerec:%d", record.DocumentId))
		}
		if record.InsertedAt.IsZero() {
			record.InsertedAt = time.Now().UTC()
		}

		key := makeCoreRecordKey(record.DocumentId)
		if err := tx.Set(key, storage.MarshalCoreRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return record, err
}

// GetCoreRecord retrieves a document's core record.
func (r *RecordRepository) GetCoreRecord(ctx context.Context, documentID core.ID) (*core.CoreRecord, error) {
	var result *core.CoreRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCoreRecordKey(documentID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalCoreRecord(val)
			return err
		})
	}, false)
	return result, err
}

// DeleteCoreRecord removes a document's core record if present.
func (r *RecordRepository) DeleteCoreRecord(ctx context.Context, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCoreRecordKey(documentID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AddCategoryRecords stores category sub-records. Keys are composite on
// (document, category), so re-adding the same category overwrites rather
// than duplicates.
func (r *RecordRepository) AddCategoryRecords(ctx context.Context, records ...*core.CategoryRecord) ([]*core.CategoryRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Id == 0 {
				record.Id = core.IDFromContent(fmt.Sprintf("catrec:%d:%s", record.DocumentId, record.CategoryId))
			}
			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}

			key := makeCategoryRecordKey(record.DocumentId, record.CategoryId)
			if err := tx.Set(key, storage.MarshalCategoryRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// GetCategoryRecords retrieves all category sub-records for a document.
// The composite key keeps iteration ordered by category ID.
func (r *RecordRepository) GetCategoryRecords(ctx context.Context, documentID core.ID) ([]*core.CategoryRecord, error) {
	var records []*core.CategoryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCategoryRecordPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.CategoryRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalCategoryRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil {
				records = append(records, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteCategoryRecords removes every category sub-record for a document.
func (r *RecordRepository) DeleteCategoryRecords(ctx context.Context, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCategoryRecordPrefix(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}
