// Package gold merges silver partitions into the PostgreSQL warehouse.
package gold

import (
	"context"

	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/silver"
	"github.com/fortuna/courtlake/internal/store"
)

// Warehouse tables.
const (
	TableTeams           = "teams"
	TablePlayers         = "players"
	TableGames           = "games"
	TableFactPlayerStats = "fact_player_stats"
	TableFactTeamStats   = "fact_team_stats"
	TableFactPlayByPlay  = "fact_play_by_play"
	TableFactShots       = "fact_shots"
)

// Silver is the read side of the silver layer.
type Silver interface {
	ReadBoxscores(date gameday.Date) ([]silver.BoxscoreRow, error)
	ReadPlayByPlay(date gameday.Date) ([]silver.PlayByPlayRow, error)
	ReadShots(date gameday.Date) ([]silver.ShotRow, error)
	ReadPlayers() ([]silver.PlayerRow, error)
	ReadTeams() ([]silver.TeamGameRow, error)
}

// Loader writes silver rows into the warehouse. Loads of the same table must not run concurrently.
type Loader struct {
	db     *store.Database
	silver Silver
	log    *logger.Logger
}

func NewLoader(db *store.Database, s Silver, log *logger.Logger) *Loader {
	return &Loader{
		db:     db,
		silver: s,
		log:    logger.OrNop(log).Component("gold"),
	}
}

// InitSchema brings the warehouse schema up to date.
func (l *Loader) InitSchema(ctx context.Context) error {
	return InitSchema(ctx, l.db.DSN(), l.log)
}

// Load is the outcome of a multi-table load.
type Load struct {
	Results []LoadResult `json:"results"`
}

// Loaded sums loaded rows across tables.
func (d *Load) Loaded() int {
	n := 0
	for _, r := range d.Results {
		n += r.Loaded
	}
	return n
}

// Skipped sums FK-skipped rows across tables.
func (d *Load) Skipped() int {
	n := 0
	for _, r := range d.Results {
		n += r.Skipped
	}
	return n
}

// Result returns the counts for table, if it was loaded.
func (d *Load) Result(table string) (LoadResult, bool) {
	for _, r := range d.Results {
		if r.Table == table {
			return r, true
		}
	}
	return LoadResult{}, false
}

type step struct {
	target Target
	rows   func() ([][]any, error)
}

func (l *Loader) run(ctx context.Context, steps []step) (*Load, error) {
	out := &Load{}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rows, err := s.rows()
		if err != nil {
			return out, err
		}
		res, err := l.Upsert(ctx, s.target, rows)
		if err != nil {
			return out, err
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

// LoadDate loads one date's player stats, then play-by-play, then shots.
// A missing partition loads nothing.
func (l *Loader) LoadDate(ctx context.Context, date gameday.Date) (*Load, error) {
	l.log.Info("loading date", "date", date.String())

	load, err := l.run(ctx, []step{
		{target: playerStatsTarget, rows: func() ([][]any, error) {
			rows, err := l.silver.ReadBoxscores(date)
			return playerStatsRows(rows), err
		}},
		{target: playByPlayTarget, rows: func() ([][]any, error) {
			rows, err := l.silver.ReadPlayByPlay(date)
			return playByPlayRows(rows), err
		}},
		{target: shotsTarget, rows: func() ([][]any, error) {
			rows, err := l.silver.ReadShots(date)
			return shotRows(rows), err
		}},
	})
	if err != nil {
		return load, err
	}
	l.log.Info("date loaded", "date", date.String(), "loaded", load.Loaded(), "skipped", load.Skipped())
	return load, nil
}

// LoadDimensions refreshes teams, players and games, then the league-wide team stats.
func (l *Loader) LoadDimensions(ctx context.Context) (*Load, error) {
	l.log.Info("loading dimensions")

	var history []silver.TeamGameRow
	readHistory := func() ([]silver.TeamGameRow, error) {
		if history != nil {
			return history, nil
		}
		rows, err := l.silver.ReadTeams()
		history = rows
		return rows, err
	}

	load, err := l.run(ctx, []step{
		{target: teamsTarget, rows: func() ([][]any, error) {
			rows, err := readHistory()
			return teamRows(rows), err
		}},
		{target: playersTarget, rows: func() ([][]any, error) {
			rows, err := l.silver.ReadPlayers()
			return playerRows(rows), err
		}},
		{target: gamesTarget, rows: func() ([][]any, error) {
			rows, err := readHistory()
			return gameRows(rows), err
		}},
		{target: teamStatsTarget, rows: func() ([][]any, error) {
			rows, err := readHistory()
			return teamStatsRows(rows), err
		}},
	})
	if err != nil {
		return load, err
	}
	l.log.Info("dimensions loaded", "loaded", load.Loaded(), "skipped", load.Skipped())
	return load, nil
}
