package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

func init() {
	if err := RegisterStorage(new(BoltDB)); err != nil {
		panic(err)
	}
}

const (
	// DBFilePathOption is the path of the bolt database file
	DBFilePathOption OptionKey = "bolt-db-file-path-option"

	DefaultDBFile = "wallet-core.db"
)

// BoltDB is a file-based storage implementation backed by bbolt
type BoltDB struct {
	db       *bbolt.DB
	filePath string
}

func (b *BoltDB) Init(opts ...Option) error {
	filePath := DefaultDBFile
	if path, ok := stringOption(DBFilePathOption, opts...); ok && path != "" {
		filePath = path
	}

	db, err := bbolt.Open(filePath, 0600, &bbolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return errors.Wrapf(err, "opening bolt file<%s>", filePath)
	}
	b.db = db
	b.filePath = filePath
	return nil
}

func (b *BoltDB) Type() Type {
	return Bolt
}

func (b *BoltDB) URI() string {
	return b.filePath
}

func (b *BoltDB) IsOpen() bool {
	if b.db == nil {
		return false
	}
	return b.db.Path() != ""
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}

func (b *BoltDB) Write(_ context.Context, namespace, key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

func (b *BoltDB) Read(_ context.Context, namespace, key string) ([]byte, error) {
	var result []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			logrus.Debugf("namespace<%s> does not exist", namespace)
			return nil
		}
		result = bucket.Get([]byte(key))
		return nil
	})
	return result, err
}

func (b *BoltDB) Exists(ctx context.Context, namespace, key string) (bool, error) {
	value, err := b.Read(ctx, namespace, key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

func (b *BoltDB) ReadAll(_ context.Context, namespace string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			logrus.Debugf("namespace<%s> does not exist", namespace)
			return nil
		}
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			result[string(k)] = v
		}
		return nil
	})
	return result, err
}

func (b *BoltDB) ReadAllKeys(_ context.Context, namespace string) ([]string, error) {
	var result []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			result = append(result, string(k))
			return nil
		})
	})
	return result, err
}

func (b *BoltDB) Delete(_ context.Context, namespace, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return errors.Errorf("namespace<%s> does not exist", namespace)
		}
		return bucket.Delete([]byte(key))
	})
}

func (b *BoltDB) DeleteNamespace(_ context.Context, namespace string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(namespace)); err != nil {
			return errors.Wrapf(err, "could not delete namespace<%s>", namespace)
		}
		return nil
	})
}

var _ ServiceStorage = (*BoltDB)(nil)
