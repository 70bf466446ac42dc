// Package silver converts bronze payloads into validated, date-partitioned Parquet tables.
package silver

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fortuna/courtlake/internal/bronze"
	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/provider"
)

var (
	// ErrNoManifest means the date was never ingested.
	ErrNoManifest = errors.New("no bronze manifest for date")
	// ErrNoUsableData means games were listed but none of their artifacts converted.
	ErrNoUsableData = errors.New("no artifact for the date could be converted")
)

// Bronze is the read side of the bronze store.
type Bronze interface {
	Manifest(date gameday.Date) (*bronze.Manifest, bool, error)
	ReadArtifact(kind provider.Kind, id string) ([]byte, error)
	TeamHistoryIDs() ([]string, error)
}

// Transformer writes silver tables from bronze artifacts.
type Transformer struct {
	bronze Bronze
	root   string
	report *Report
	log    *logger.Logger
}

// NewTransformer builds a transformer writing under root. Validation results go to report.
func NewTransformer(b Bronze, root string, report *Report, log *logger.Logger) *Transformer {
	return &Transformer{
		bronze: b,
		root:   root,
		report: report,
		log:    logger.OrNop(log).Component("silver"),
	}
}

func (t *Transformer) Root() string { return t.root }

// DateResult summarises one date's transformation.
type DateResult struct {
	Date  gameday.Date
	Games int
	// Rows holds the rows written per dataset; absent datasets wrote nothing.
	Rows map[string]int
	// Skipped lists "<kind>/<game>" artifacts that were missing or malformed.
	Skipped []string
}

type datasetTally struct {
	attempted int
	converted int
}

// ProcessDate converts every game in the date's manifest and writes one partition per dataset.
func (t *Transformer) ProcessDate(ctx context.Context, date gameday.Date) (*DateResult, error) {
	manifest, found, err := t.bronze.Manifest(date)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoManifest, date)
	}

	result := &DateResult{Date: date, Games: len(manifest.GameIDs), Rows: map[string]int{}}
	if len(manifest.GameIDs) == 0 {
		t.log.Info("no games to transform", "date", date.String())
		return result, nil
	}

	t.log.Info("transforming date", "date", date.String(), "season", date.Season(), "games", len(manifest.GameIDs))

	var total datasetTally
	steps := []func() (datasetTally, error){
		func() (datasetTally, error) {
			return processDataset(ctx, t, result, manifest.GameIDs, provider.KindBoxscore, DatasetBoxscores, ConvertBoxscore)
		},
		func() (datasetTally, error) {
			return processDataset(ctx, t, result, manifest.GameIDs, provider.KindPlayByPlay, DatasetPlayByPlay, ConvertPlayByPlay)
		},
		func() (datasetTally, error) {
			return processDataset(ctx, t, result, manifest.GameIDs, provider.KindShotChart, DatasetShotChart, ConvertShotChart)
		},
	}
	for _, step := range steps {
		tally, err := step()
		if err != nil {
			return result, err
		}
		total.attempted += tally.attempted
		total.converted += tally.converted
	}

	if total.converted == 0 {
		return result, fmt.Errorf("%w: %s (%d attempted)", ErrNoUsableData, date, total.attempted)
	}
	return result, nil
}

func processDataset[T any](
	ctx context.Context,
	t *Transformer,
	result *DateResult,
	gameIDs []string,
	kind provider.Kind,
	dataset string,
	convert func(string, []byte) ([]T, *Result, error),
) (datasetTally, error) {
	var (
		tally datasetTally
		all   []T
	)

	for _, gameID := range gameIDs {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		data, err := t.bronze.ReadArtifact(kind, gameID)
		if errors.Is(err, os.ErrNotExist) {
			t.log.Warn("artifact missing, skipping", "kind", string(kind), "game_id", gameID)
			result.Skipped = append(result.Skipped, string(kind)+"/"+gameID)
			continue
		}
		if err != nil {
			return tally, fmt.Errorf("read %s %s: %w", kind, gameID, err)
		}

		tally.attempted++
		rows, res, err := convert(gameID, data)
		if err != nil {
			t.log.Warn("artifact could not be converted, skipping",
				"kind", string(kind),
				"game_id", gameID,
				"class", etlerr.Classify(err).String(),
				"error", err,
			)
			result.Skipped = append(result.Skipped, string(kind)+"/"+gameID)
			continue
		}
		tally.converted++
		t.report.Add(res)
		if !res.Passed() {
			t.log.Warn("validation issues", "source", res.Source, "issues", len(res.Issues))
		}
		all = append(all, rows...)
	}

	path := PartitionPath(t.root, dataset, result.Date)
	if len(all) == 0 {
		t.log.Warn("no rows for dataset", "dataset", dataset, "date", result.Date.String())
		// a partition left by an earlier run no longer reflects bronze
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return tally, fmt.Errorf("remove stale partition %s: %w", path, err)
		}
		return tally, nil
	}

	if err := writeParquet(path, all); err != nil {
		return tally, err
	}
	result.Rows[dataset] = len(all)
	t.log.Info("partition written", "dataset", dataset, "date", result.Date.String(), "rows", len(all), "path", path)
	return tally, nil
}

// ProcessPlayers rewrites the player dimension from the stored player list.
func (t *Transformer) ProcessPlayers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := t.bronze.ReadArtifact(provider.KindPlayerList, "")
	if err != nil {
		return 0, fmt.Errorf("read player list: %w", err)
	}

	rows, res, err := ConvertPlayers(data)
	if err != nil {
		return 0, err
	}
	t.report.Add(res)

	if err := writeParquet(DimensionPath(t.root, DatasetPlayers), rows); err != nil {
		return 0, err
	}
	t.log.Info("players written", "rows", len(rows), "validation_passed", res.Passed())
	return len(rows), nil
}

// ProcessTeams rewrites the team-game dimension from every stored franchise history.
func (t *Transformer) ProcessTeams(ctx context.Context) (int, error) {
	ids, err := t.bronze.TeamHistoryIDs()
	if err != nil {
		return 0, err
	}

	var all []TeamGameRow
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		data, err := t.bronze.ReadArtifact(provider.KindTeamHistory, id)
		if err != nil {
			t.log.Error("team history unreadable", "team_id", id, "error", err)
			continue
		}
		rows, err := ConvertTeamHistory(id, data)
		if err != nil {
			t.log.Error("team history could not be converted", "team_id", id, "error", err)
			continue
		}
		all = append(all, rows...)
	}
	if len(all) == 0 {
		return 0, fmt.Errorf("%w: no team history converted (%d files)", ErrNoUsableData, len(ids))
	}

	all = dedupe(all, TeamGameContract.Key)
	res := TeamGameContract.Validate("teams", all)
	t.report.Add(res)

	if err := writeParquet(DimensionPath(t.root, DatasetTeams), all); err != nil {
		return 0, err
	}
	t.log.Info("teams written", "rows", len(all), "franchises", len(ids), "validation_passed", res.Passed())
	return len(all), nil
}

// PartitionExists reports whether a dataset partition was written for date.
func (t *Transformer) PartitionExists(dataset string, date gameday.Date) bool {
	_, err := os.Stat(PartitionPath(t.root, dataset, date))
	return err == nil
}

func (t *Transformer) ReadBoxscores(date gameday.Date) ([]BoxscoreRow, error) {
	return readParquet[BoxscoreRow](PartitionPath(t.root, DatasetBoxscores, date))
}

func (t *Transformer) ReadPlayByPlay(date gameday.Date) ([]PlayByPlayRow, error) {
	return readParquet[PlayByPlayRow](PartitionPath(t.root, DatasetPlayByPlay, date))
}

func (t *Transformer) ReadShots(date gameday.Date) ([]ShotRow, error) {
	return readParquet[ShotRow](PartitionPath(t.root, DatasetShotChart, date))
}

func (t *Transformer) ReadPlayers() ([]PlayerRow, error) {
	return readParquet[PlayerRow](DimensionPath(t.root, DatasetPlayers))
}

func (t *Transformer) ReadTeams() ([]TeamGameRow, error) {
	return readParquet[TeamGameRow](DimensionPath(t.root, DatasetTeams))
}
