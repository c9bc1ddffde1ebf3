package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ark-network/ark-dice/internal/core/application"
	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/ark-network/ark-dice/internal/infrastructure/db"
	watermillbus "github.com/ark-network/ark-dice/internal/infrastructure/event-bus/watermill"
	inmemorylivestore "github.com/ark-network/ark-dice/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/ark-network/ark-dice/internal/infrastructure/live-store/redis"
	lognotifier "github.com/ark-network/ark-dice/internal/infrastructure/notifier/log"
	nostr_notifier "github.com/ark-network/ark-dice/internal/infrastructure/notifier/nostr"
	timescheduler "github.com/ark-network/ark-dice/internal/infrastructure/scheduler/gocron"
	walletclient "github.com/ark-network/ark-dice/internal/infrastructure/wallet"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const redisPingTimeout = 5 * time.Second

var (
	supportedDbs = supportedType{
		"badger": {},
		"sqlite": {},
	}
	supportedLiveStores = supportedType{
		"inmemory": {},
		"redis":    {},
	}
	supportedEventBuses = supportedType{
		"gochannel": {},
	}
	supportedNotifiers = supportedType{
		"log":   {},
		"nostr": {},
	}
)

type Config struct {
	Datadir  string
	Port     uint32
	LogLevel int

	DbType        string
	DbDir         string
	WalletURL     string
	LiveStoreType string
	RedisURL      string
	EventBusType  string
	NotifierType  string

	OperatorProfile       string
	MaxPayout             uint64
	NonceValidity         time.Duration
	NonceCheckInterval    time.Duration
	PayoutInterval        time.Duration
	PayoutMaxAttempts     int
	PayoutBackoffBase     time.Duration
	PayoutBackoffMax      time.Duration
	PayoutClaimTTL        time.Duration
	ConsolidationInterval time.Duration
	PaymentQueueSize      int
	Workers               int
	EventBufferSize       int
	MinConfirmation       string
	RecoverOnStart        bool

	AdminUser string
	AdminPass string

	repo      ports.RepoManager
	svc       application.Service
	wallet    ports.WalletService
	scheduler ports.SchedulerService
	liveStore ports.LiveStore
	eventBus  ports.EventBus
	notifier  ports.Notifier
}

func (c *Config) String() string {
	clone := *c
	if len(clone.AdminPass) > 0 {
		clone.AdminPass = "********"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir               = "DATADIR"
	Port                  = "PORT"
	LogLevel              = "LOG_LEVEL"
	DbType                = "DB_TYPE"
	WalletURL             = "WALLET_URL"
	LiveStoreType         = "LIVE_STORE_TYPE"
	RedisURL              = "REDIS_URL"
	EventBusType          = "EVENT_BUS_TYPE"
	NotifierType          = "NOTIFIER_TYPE"
	OperatorProfile       = "NOSTR_OPERATOR_PROFILE"
	MaxPayout             = "MAX_PAYOUT_SATS"
	NonceValidity         = "NONCE_VALIDITY"
	NonceCheckInterval    = "NONCE_CHECK_INTERVAL"
	PayoutInterval        = "PAYOUT_INTERVAL"
	PayoutMaxAttempts     = "PAYOUT_MAX_ATTEMPTS"
	PayoutBackoffBase     = "PAYOUT_BACKOFF_BASE"
	PayoutBackoffMax      = "PAYOUT_BACKOFF_MAX"
	PayoutClaimTTL        = "PAYOUT_CLAIM_TTL"
	ConsolidationInterval = "CONSOLIDATION_INTERVAL"
	PaymentQueueSize      = "PAYMENT_QUEUE_SIZE"
	Workers               = "WORKERS"
	EventBufferSize       = "EVENT_BUFFER_SIZE"
	MinConfirmation       = "MIN_CONFIRMATION"
	RecoverOnStart        = "RECOVER_ON_START"
	AdminUser             = "ADMIN_USER"
	AdminPass             = "ADMIN_PASS"

	defaultDatadir               = btcutil.AppDataDir("arkdice", false)
	DefaultPort                  = 7080
	defaultLogLevel              = 4
	defaultDbType                = "sqlite"
	defaultLiveStoreType         = "inmemory"
	defaultEventBusType          = "gochannel"
	defaultNotifierType          = "log"
	defaultMaxPayout             = 100000
	defaultNonceValidity         = time.Hour
	defaultNonceCheckInterval    = 10 * time.Second
	defaultPayoutInterval        = 10 * time.Second
	defaultPayoutMaxAttempts     = 3
	defaultPayoutBackoffBase     = 5 * time.Second
	defaultPayoutBackoffMax      = 10 * time.Minute
	defaultPayoutClaimTTL        = 10 * time.Minute
	defaultConsolidationInterval = time.Duration(0) // disabled
	defaultPaymentQueueSize      = 100
	defaultWorkers               = 4
	defaultEventBufferSize       = 100
	defaultMinConfirmation       = "finalized"
	defaultRecoverOnStart        = true
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("ARK_DICE")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(Port, DefaultPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(LiveStoreType, defaultLiveStoreType)
	viper.SetDefault(EventBusType, defaultEventBusType)
	viper.SetDefault(NotifierType, defaultNotifierType)
	viper.SetDefault(MaxPayout, defaultMaxPayout)
	viper.SetDefault(NonceValidity, defaultNonceValidity)
	viper.SetDefault(NonceCheckInterval, defaultNonceCheckInterval)
	viper.SetDefault(PayoutInterval, defaultPayoutInterval)
	viper.SetDefault(PayoutMaxAttempts, defaultPayoutMaxAttempts)
	viper.SetDefault(PayoutBackoffBase, defaultPayoutBackoffBase)
	viper.SetDefault(PayoutBackoffMax, defaultPayoutBackoffMax)
	viper.SetDefault(PayoutClaimTTL, defaultPayoutClaimTTL)
	viper.SetDefault(ConsolidationInterval, defaultConsolidationInterval)
	viper.SetDefault(PaymentQueueSize, defaultPaymentQueueSize)
	viper.SetDefault(Workers, defaultWorkers)
	viper.SetDefault(EventBufferSize, defaultEventBufferSize)
	viper.SetDefault(MinConfirmation, defaultMinConfirmation)
	viper.SetDefault(RecoverOnStart, defaultRecoverOnStart)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	return &Config{
		Datadir:               viper.GetString(Datadir),
		Port:                  viper.GetUint32(Port),
		LogLevel:              viper.GetInt(LogLevel),
		DbType:                viper.GetString(DbType),
		DbDir:                 filepath.Join(viper.GetString(Datadir), "db"),
		WalletURL:             viper.GetString(WalletURL),
		LiveStoreType:         viper.GetString(LiveStoreType),
		RedisURL:              viper.GetString(RedisURL),
		EventBusType:          viper.GetString(EventBusType),
		NotifierType:          viper.GetString(NotifierType),
		OperatorProfile:       viper.GetString(OperatorProfile),
		MaxPayout:             viper.GetUint64(MaxPayout),
		NonceValidity:         viper.GetDuration(NonceValidity),
		NonceCheckInterval:    viper.GetDuration(NonceCheckInterval),
		PayoutInterval:        viper.GetDuration(PayoutInterval),
		PayoutMaxAttempts:     viper.GetInt(PayoutMaxAttempts),
		PayoutBackoffBase:     viper.GetDuration(PayoutBackoffBase),
		PayoutBackoffMax:      viper.GetDuration(PayoutBackoffMax),
		PayoutClaimTTL:        viper.GetDuration(PayoutClaimTTL),
		ConsolidationInterval: viper.GetDuration(ConsolidationInterval),
		PaymentQueueSize:      viper.GetInt(PaymentQueueSize),
		Workers:               viper.GetInt(Workers),
		EventBufferSize:       viper.GetInt(EventBufferSize),
		MinConfirmation:       viper.GetString(MinConfirmation),
		RecoverOnStart:        viper.GetBool(RecoverOnStart),
		AdminUser:             viper.GetString(AdminUser),
		AdminPass:             viper.GetString(AdminPass),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedLiveStores.supports(c.LiveStoreType) {
		return fmt.Errorf("live store type not supported, please select one of: %s", supportedLiveStores)
	}
	if !supportedEventBuses.supports(c.EventBusType) {
		return fmt.Errorf("event bus type not supported, please select one of: %s", supportedEventBuses)
	}
	if !supportedNotifiers.supports(c.NotifierType) {
		return fmt.Errorf("notifier type not supported, please select one of: %s", supportedNotifiers)
	}
	if len(c.WalletURL) <= 0 {
		return fmt.Errorf("wallet url not set")
	}
	if c.MaxPayout <= 0 {
		return fmt.Errorf("max payout must be greater than 0")
	}
	if c.NonceValidity < time.Minute {
		return fmt.Errorf("invalid nonce validity, must be at least 1 minute")
	}
	if c.NonceCheckInterval <= 0 || c.NonceCheckInterval > c.NonceValidity {
		return fmt.Errorf("invalid nonce check interval, must be positive and at most the nonce validity")
	}
	if c.PayoutInterval <= 0 {
		return fmt.Errorf("invalid payout interval, must be positive")
	}
	if c.PayoutMaxAttempts <= 0 {
		return fmt.Errorf("payout max attempts must be greater than 0")
	}
	if c.PayoutBackoffBase < 0 || c.PayoutBackoffMax < c.PayoutBackoffBase {
		return fmt.Errorf("invalid payout backoff, base must not be negative nor exceed max")
	}
	if c.PayoutClaimTTL <= 0 {
		return fmt.Errorf("invalid payout claim ttl, must be positive")
	}
	if c.ConsolidationInterval < 0 {
		return fmt.Errorf("invalid consolidation interval, must not be negative")
	}
	if c.PaymentQueueSize <= 0 || c.Workers <= 0 || c.EventBufferSize <= 0 {
		return fmt.Errorf("payment queue size, workers and event buffer size must be greater than 0")
	}
	if _, err := domain.ParsePaymentStatus(c.MinConfirmation); err != nil {
		return fmt.Errorf("invalid min confirmation: %s", err)
	}
	if (len(c.AdminUser) > 0) != (len(c.AdminPass) > 0) {
		return fmt.Errorf("admin user and password must be set together")
	}

	if err := c.notifierService(); err != nil {
		return err
	}
	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.walletService(); err != nil {
		return err
	}
	if err := c.liveStoreService(); err != nil {
		return err
	}
	if err := c.eventBusService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, log.New()}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	default:
		return fmt.Errorf("unknown db type")
	}

	if err := makeDirectoryIfNotExists(c.DbDir); err != nil {
		return fmt.Errorf("failed to create db dir: %s", err)
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) walletService() error {
	walletSvc, err := walletclient.NewService(c.WalletURL)
	if err != nil {
		return err
	}

	c.wallet = walletSvc
	return nil
}

func (c *Config) liveStoreService() error {
	var liveStoreSvc ports.LiveStore
	switch c.LiveStoreType {
	case "inmemory":
		liveStoreSvc = inmemorylivestore.NewLiveStore()
	case "redis":
		if len(c.RedisURL) <= 0 {
			return fmt.Errorf("redis url not set")
		}
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %s", err)
		}
		rdb := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("failed to connect to redis: %s", err)
		}
		liveStoreSvc = redislivestore.NewLiveStore(rdb)
	default:
		return fmt.Errorf("unknown live store type")
	}

	c.liveStore = liveStoreSvc
	return nil
}

func (c *Config) eventBusService() error {
	switch c.EventBusType {
	case "gochannel":
		c.eventBus = watermillbus.NewGoChannelEventBus()
	default:
		return fmt.Errorf("unknown event bus type")
	}
	return nil
}

func (c *Config) notifierService() error {
	switch c.NotifierType {
	case "log":
		c.notifier = lognotifier.New()
	case "nostr":
		if _, err := nostr_notifier.ParseProfile(c.OperatorProfile); err != nil {
			return fmt.Errorf("invalid operator nostr profile: %s", err)
		}
		c.notifier = nostr_notifier.New()
	default:
		return fmt.Errorf("unknown notifier type")
	}
	return nil
}

func (c *Config) schedulerService() error {
	c.scheduler = timescheduler.NewScheduler()
	return nil
}

func (c *Config) appService() error {
	minConfirmation, err := domain.ParsePaymentStatus(c.MinConfirmation)
	if err != nil {
		return err
	}

	svc, err := application.NewService(
		application.Config{
			MaxPayout:             c.MaxPayout,
			NonceValidity:         c.NonceValidity,
			NonceCheckInterval:    c.NonceCheckInterval,
			PayoutInterval:        c.PayoutInterval,
			PayoutMaxAttempts:     c.PayoutMaxAttempts,
			PayoutBackoffBase:     c.PayoutBackoffBase,
			PayoutBackoffMax:      c.PayoutBackoffMax,
			PayoutClaimTTL:        c.PayoutClaimTTL,
			ConsolidationInterval: c.ConsolidationInterval,
			PaymentQueueSize:      c.PaymentQueueSize,
			Workers:               c.Workers,
			EventBufferSize:       c.EventBufferSize,
			MinConfirmation:       minConfirmation,
			OperatorProfile:       c.OperatorProfile,
			RecoverOnStart:        c.RecoverOnStart,
		},
		c.wallet, c.repo, c.scheduler, c.liveStore, c.eventBus, c.notifier,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
