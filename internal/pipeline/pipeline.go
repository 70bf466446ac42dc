// Package pipeline chains the bronze, silver and gold layers for a single date.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortuna/courtlake/internal/bronze"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/gold"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/provider"
	"github.com/fortuna/courtlake/internal/silver"
)

// Bronze is the part of the bronze store the pipeline drives.
type Bronze interface {
	FetchAndPersist(ctx context.Context, date gameday.Date) (*bronze.Manifest, error)
	PersistDimension(ctx context.Context, kind provider.Kind) error
	Manifest(date gameday.Date) (*bronze.Manifest, bool, error)
}

// Silver is the part of the transformer the pipeline drives.
type Silver interface {
	ProcessDate(ctx context.Context, date gameday.Date) (*silver.DateResult, error)
	ProcessPlayers(ctx context.Context) (int, error)
	ProcessTeams(ctx context.Context) (int, error)
	PartitionExists(dataset string, date gameday.Date) bool
}

// Gold is the part of the loader the pipeline drives.
type Gold interface {
	InitSchema(ctx context.Context) error
	LoadDate(ctx context.Context, date gameday.Date) (*gold.Load, error)
	LoadDimensions(ctx context.Context) (*gold.Load, error)
}

// Pipeline runs bronze, silver and gold in order. Gold may be nil for commands that stop at silver.
type Pipeline struct {
	bronze Bronze
	silver Silver
	gold   Gold
	log    *logger.Logger
}

func New(b Bronze, s Silver, g Gold, log *logger.Logger) *Pipeline {
	return &Pipeline{
		bronze: b,
		silver: s,
		gold:   g,
		log:    logger.OrNop(log).Component("pipeline"),
	}
}

var errNoWarehouse = errors.New("pipeline has no gold loader")

// IngestDate fetches every missing bronze artifact for date.
func (p *Pipeline) IngestDate(ctx context.Context, date gameday.Date) (*bronze.Manifest, error) {
	m, err := p.bronze.FetchAndPersist(ctx, date)
	if err != nil {
		return m, fmt.Errorf("ingest %s: %w", date, err)
	}
	return m, nil
}

// TransformDate rewrites the silver partitions for date.
func (p *Pipeline) TransformDate(ctx context.Context, date gameday.Date) (*silver.DateResult, error) {
	res, err := p.silver.ProcessDate(ctx, date)
	if err != nil {
		return res, fmt.Errorf("transform %s: %w", date, err)
	}
	if len(res.Skipped) > 0 {
		p.log.Warn("artifacts skipped during transform", "date", date.String(), "skipped", res.Skipped)
	}
	return res, nil
}

// LoadDate merges date's silver partitions into the warehouse.
func (p *Pipeline) LoadDate(ctx context.Context, date gameday.Date) (*gold.Load, error) {
	if p.gold == nil {
		return nil, errNoWarehouse
	}
	load, err := p.gold.LoadDate(ctx, date)
	if err != nil {
		return load, fmt.Errorf("load %s: %w", date, err)
	}
	return load, nil
}

// RunDate ingests, transforms and loads one date. Any failure fails the whole date; bronze
// existence checks make the retry cheap.
func (p *Pipeline) RunDate(ctx context.Context, date gameday.Date) error {
	m, err := p.IngestDate(ctx, date)
	if err != nil {
		return err
	}
	if len(m.GameIDs) == 0 {
		return nil
	}
	if _, err := p.TransformDate(ctx, date); err != nil {
		return err
	}
	if p.gold == nil {
		return nil
	}
	_, err = p.LoadDate(ctx, date)
	return err
}

// RefreshDimensions re-downloads the league-wide data, rebuilds the silver dimensions and
// reloads the warehouse dimensions together with team stats.
func (p *Pipeline) RefreshDimensions(ctx context.Context) error {
	p.log.Info("refreshing dimensions")

	for _, kind := range []provider.Kind{provider.KindTeamHistory, provider.KindPlayerList} {
		if err := p.bronze.PersistDimension(ctx, kind); err != nil {
			return fmt.Errorf("persist %s: %w", kind, err)
		}
	}
	if _, err := p.silver.ProcessPlayers(ctx); err != nil {
		return fmt.Errorf("transform players: %w", err)
	}
	if _, err := p.silver.ProcessTeams(ctx); err != nil {
		return fmt.Errorf("transform teams: %w", err)
	}
	if p.gold == nil {
		return nil
	}
	if _, err := p.gold.LoadDimensions(ctx); err != nil {
		return fmt.Errorf("load dimensions: %w", err)
	}
	return nil
}

// InitSchema prepares the warehouse. Without a gold loader it does nothing.
func (p *Pipeline) InitSchema(ctx context.Context) error {
	if p.gold == nil {
		return nil
	}
	return p.gold.InitSchema(ctx)
}

// IsDone reports whether date was already processed: the manifest exists and either it
// lists no games or the boxscore partition was written.
func (p *Pipeline) IsDone(date gameday.Date) (bool, error) {
	m, found, err := p.bronze.Manifest(date)
	if err != nil || !found {
		return false, err
	}
	if len(m.GameIDs) == 0 {
		return true, nil
	}
	return p.silver.PartitionExists(silver.DatasetBoxscores, date), nil
}
