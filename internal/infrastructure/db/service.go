package db

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	badgerdb "github.com/ark-network/ark-dice/internal/infrastructure/db/badger"
	sqlitedb "github.com/ark-network/ark-dice/internal/infrastructure/db/sqlite"
	"github.com/dgraph-io/badger/v4"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var (
	nonceStoreTypes = map[string]func(...interface{}) (domain.NonceRepository, error){
		"badger": badgerdb.NewNonceRepository,
		"sqlite": sqlitedb.NewNonceRepository,
	}
	gameResultStoreTypes = map[string]func(...interface{}) (domain.GameResultRepository, error){
		"badger": badgerdb.NewGameResultRepository,
		"sqlite": sqlitedb.NewGameResultRepository,
	}
	ownTxStoreTypes = map[string]func(...interface{}) (domain.OwnTransactionRepository, error){
		"badger": badgerdb.NewOwnTransactionRepository,
		"sqlite": sqlitedb.NewOwnTransactionRepository,
	}
	donationStoreTypes = map[string]func(...interface{}) (domain.DonationRepository, error){
		"badger": badgerdb.NewDonationRepository,
		"sqlite": sqlitedb.NewDonationRepository,
	}
	unresolvedStoreTypes = map[string]func(...interface{}) (domain.UnresolvedPaymentRepository, error){
		"badger": badgerdb.NewUnresolvedPaymentRepository,
		"sqlite": sqlitedb.NewUnresolvedPaymentRepository,
	}
)

const (
	sqliteDbFile = "sqlite.db"
)

type ServiceConfig struct {
	DataStoreType string

	// sqlite: {datadir}, badger: {datadir, badger.Logger}. An empty badger datadir gives an
	// in-memory store.
	DataStoreConfig []interface{}
}

type service struct {
	nonceStore      domain.NonceRepository
	gameResultStore domain.GameResultRepository
	ownTxStore      domain.OwnTransactionRepository
	donationStore   domain.DonationRepository
	unresolvedStore domain.UnresolvedPaymentRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	nonceStoreFactory, ok := nonceStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	gameResultStoreFactory := gameResultStoreTypes[config.DataStoreType]
	ownTxStoreFactory := ownTxStoreTypes[config.DataStoreType]
	donationStoreFactory := donationStoreTypes[config.DataStoreType]
	unresolvedStoreFactory := unresolvedStoreTypes[config.DataStoreType]

	storeConfig, err := openDataStore(config)
	if err != nil {
		return nil, err
	}

	nonceStore, err := nonceStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create nonce store: %w", err)
	}

	gameResultStore, err := gameResultStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create game result store: %w", err)
	}

	ownTxStore, err := ownTxStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create own tx store: %w", err)
	}

	donationStore, err := donationStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create donation store: %w", err)
	}

	unresolvedStore, err := unresolvedStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create unresolved payment store: %w", err)
	}

	return &service{
		nonceStore:      nonceStore,
		gameResultStore: gameResultStore,
		ownTxStore:      ownTxStore,
		donationStore:   donationStore,
		unresolvedStore: unresolvedStore,
	}, nil
}

func (s *service) Nonces() domain.NonceRepository {
	return s.nonceStore
}

func (s *service) GameResults() domain.GameResultRepository {
	return s.gameResultStore
}

func (s *service) OwnTxs() domain.OwnTransactionRepository {
	return s.ownTxStore
}

func (s *service) Donations() domain.DonationRepository {
	return s.donationStore
}

func (s *service) UnresolvedPayments() domain.UnresolvedPaymentRepository {
	return s.unresolvedStore
}

func (s *service) Close() {
	s.nonceStore.Close()
	s.gameResultStore.Close()
	s.ownTxStore.Close()
	s.donationStore.Close()
	s.unresolvedStore.Close()
}

// openDataStore opens the handle shared by all repositories of the given type and returns
// it as their config.
func openDataStore(config ServiceConfig) ([]interface{}, error) {
	switch config.DataStoreType {
	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			return nil, errors.New("invalid config")
		}
		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, errors.New("invalid config")
		}
		db, err := sqlitedb.OpenDb(filepath.Join(baseDir, sqliteDbFile))
		if err != nil {
			return nil, err
		}
		if err := migrateSqlite(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}
		return []interface{}{db}, nil
	case "badger":
		if len(config.DataStoreConfig) != 2 {
			return nil, errors.New("invalid config")
		}
		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, errors.New("invalid base directory")
		}
		var logger badger.Logger
		if config.DataStoreConfig[1] != nil {
			logger, ok = config.DataStoreConfig[1].(badger.Logger)
			if !ok {
				return nil, errors.New("invalid logger")
			}
		}
		store, err := badgerdb.NewLedgerStore(baseDir, logger)
		if err != nil {
			return nil, err
		}
		return []interface{}{store}, nil
	default:
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
}

func migrateSqlite(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(sqlitedb.Migrations, "migration")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate up: %w", err)
	}

	return nil
}
