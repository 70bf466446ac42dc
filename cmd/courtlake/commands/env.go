package commands

import (
	"context"
	"fmt"

	"github.com/fortuna/courtlake/internal/bronze"
	"github.com/fortuna/courtlake/internal/client"
	"github.com/fortuna/courtlake/internal/config"
	"github.com/fortuna/courtlake/internal/gold"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/pipeline"
	"github.com/fortuna/courtlake/internal/provider"
	"github.com/fortuna/courtlake/internal/silver"
	"github.com/fortuna/courtlake/internal/store"
)

// env holds the components a command runs against.
type env struct {
	cfg    *config.Config
	log    *logger.Logger
	report *silver.Report
	bronze *bronze.Store
	silver *silver.Transformer

	// Set only when the command needs the warehouse.
	db   *store.Database
	gold *gold.Loader
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logMode != "" {
		cfg.LogMode = logMode
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newEnv(ctx context.Context, withWarehouse bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	upstream := client.New(
		provider.NewHTTPTransport(cfg.Provider.BaseURL, cfg.Provider.Timeout),
		client.Config{
			MaxConcurrent:   cfg.Client.MaxConcurrent,
			MaxAttempts:     cfg.Client.MaxAttempts,
			BaseBackoff:     cfg.Client.BaseBackoff,
			BackoffJitter:   cfg.Client.BackoffJitter,
			ThrottleFloor:   cfg.Client.ThrottleFloor,
			InterCallDelay:  cfg.Client.InterCallDelay,
			InterCallJitter: cfg.Client.InterCallJitter,
			MaxRPS:          cfg.Client.MaxRPS,
		},
		log,
	)

	e := &env{
		cfg:    cfg,
		log:    log,
		report: silver.NewReport(),
	}
	e.bronze = bronze.NewStore(cfg.BronzePath, upstream, cfg.Bronze.Workers, log)
	e.silver = silver.NewTransformer(e.bronze, cfg.SilverPath, e.report, log)

	if withWarehouse {
		if err := cfg.ValidateDatabase(); err != nil {
			return nil, err
		}
		log.Info("connecting to warehouse", "database_url", cfg.MaskedDatabaseURL())
		db, err := store.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect warehouse: %w", err)
		}
		e.db = db
		e.gold = gold.NewLoader(db, e.silver, log)
	}
	return e, nil
}

func (e *env) pipeline() *pipeline.Pipeline {
	// A nil *gold.Loader must not reach the interface.
	if e.gold == nil {
		return pipeline.New(e.bronze, e.silver, nil, e.log)
	}
	return pipeline.New(e.bronze, e.silver, e.gold, e.log)
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
	e.log.Sync()
}
