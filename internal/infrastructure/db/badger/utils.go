package badgerdb

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

const (
	ledgerStoreDir = "ledger"
	maxRetries     = 5
)

// NewLedgerStore opens the store shared by all badger repositories. An empty baseDir
// gives an in-memory store.
func NewLedgerStore(baseDir string, logger badger.Logger) (*badgerhold.Store, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, ledgerStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %s", err)
	}
	return store, nil
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for range ticker.C {
				if db.Badger().IsClosed() {
					ticker.Stop()
					return
				}
				if err := db.Badger().RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
					if logger != nil {
						logger.Errorf("%s", err)
					}
				}
			}
		}()
	}

	return db, nil
}

func storeFromConfig(config []interface{}) (*badgerhold.Store, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	store, ok := config[0].(*badgerhold.Store)
	if !ok || store == nil {
		return nil, fmt.Errorf("invalid config, expected ledger store at 0")
	}
	return store, nil
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func update(store *badgerhold.Store, fn func(tx *badger.Txn) error) error {
	var err error
	for range maxRetries {
		err = func() error {
			tx := store.Badger().NewTransaction(true)
			defer tx.Discard()

			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		}()
		if err == nil {
			return nil
		}
		if errors.Is(err, badger.ErrConflict) {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		return err
	}
	return err
}

func closeStore(store *badgerhold.Store) {
	if !store.Badger().IsClosed() {
		_ = store.Close()
	}
}
