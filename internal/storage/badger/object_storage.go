// -----------------------------------------------------------------------
// ObjectStorage - Blob documents stored under bucket-scoped keys on the
// raw badger handle. Keys take the form obj:{bucket}:{path}.
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/interfaces"
)

// ObjectStorage persists opaque payload documents in badger
type ObjectStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.ObjectStorage = (*ObjectStorage)(nil)

// NewObjectStorage creates a badger-backed object store
func NewObjectStorage(db *BadgerDB, logger arbor.ILogger) *ObjectStorage {
	return &ObjectStorage{db: db, logger: logger}
}

func objectKey(bucket, path string) []byte {
	return []byte(fmt.Sprintf("obj:%s:%s", bucket, path))
}

// Upload stores data at bucket/path, replacing any existing object.
// The delete-then-set runs in one transaction so readers never observe
// a missing object mid-replace.
func (s *ObjectStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := objectKey(bucket, path)
	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		if err := txn.Delete(key); err != nil && !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s/%s: %w", bucket, path, err)
	}

	s.logger.Debug().
		Str("bucket", bucket).
		Str("path", path).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("Object uploaded")
	return nil
}

// Download retrieves the object at bucket/path
func (s *ObjectStorage) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.Store().Badger().View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(objectKey(bucket, path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, interfaces.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s/%s: %w", bucket, path, err)
	}
	return data, nil
}

// Delete removes the object at bucket/path; missing objects are a no-op
func (s *ObjectStorage) Delete(ctx context.Context, bucket, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(objectKey(bucket, path))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, path, err)
	}
	return nil
}
