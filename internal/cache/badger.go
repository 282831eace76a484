package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend persists entries on disk with native TTL expiry, so a warm
// cache survives restarts.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens a store in dir. An empty dir keeps everything in memory.
func OpenBadger(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, unavailable("open", err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, unavailable("get", err)
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return value, true, nil
}

func (b *BadgerBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set", err)
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
