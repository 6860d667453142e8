package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	appcfg "github.com/tartampluch/go-birthday-sync/internal/config"
)

// Config holds configuration for the Badger-backed store.
type Config struct {
	// Path is the directory for the database files. Ignored when
	// InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful for
	// testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives Badger's internal log output. If nil, that output
	// is discarded.
	Logger *slog.Logger
}

// Badger implements StateStore on an embedded BadgerDB. Paths map to keys
// verbatim.
type Badger struct {
	db *badger.DB
}

// Open creates and opens the store. The directory is created with
// owner-only permissions when it does not exist.
func Open(cfg Config) (*Badger, error) {
	if !cfg.InMemory {
		if cfg.Path == "" {
			return nil, errors.New(appcfg.ErrStorePathEmpty)
		}
		if err := os.MkdirAll(cfg.Path, appcfg.DirPermUserRWX); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// Close releases the database. Must be called once per Open.
func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) EnsureNode(path string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(path))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(path), nil)
	})
}

func (b *Badger) WriteValue(path string, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	changed := false
	err = b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == nil {
			current, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if bytes.Equal(current, data) {
				return nil
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		changed = true
		return txn.Set([]byte(path), data)
	})
	return changed, err
}

func (b *Badger) List(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (b *Badger) DeleteTree(path string) (int, error) {
	// The node key itself plus everything under "<path>/". A plain
	// prefix scan on path alone would also catch sibling keys sharing
	// the path as a string prefix.
	children, err := b.List(path + appcfg.PathSeparator)
	if err != nil {
		return 0, err
	}
	targets := append(children, path)

	deleted := 0
	err = b.db.Update(func(txn *badger.Txn) error {
		for _, key := range targets {
			if _, err := txn.Get([]byte(key)); errors.Is(err, badger.ErrKeyNotFound) {
				continue
			} else if err != nil {
				return err
			}
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete tree %q: %w", path, err)
	}
	return deleted, nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), appcfg.LogKeyComponent, appcfg.CompStore)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), appcfg.LogKeyComponent, appcfg.CompStore)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), appcfg.LogKeyComponent, appcfg.CompStore)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), appcfg.LogKeyComponent, appcfg.CompStore)
}
