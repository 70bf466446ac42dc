package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/courtlake/internal/store"
)

// SummaryRepository reads the warehouse summary views
type SummaryRepository struct {
	db *store.Database
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *store.Database) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// TeamSeason returns every team's record for a season, best record first
func (r *SummaryRepository) TeamSeason(ctx context.Context, seasonID int) ([]*store.TeamSeasonSummary, error) {
	query := `
		SELECT season_id, team_id, COALESCE(abbreviation, ''), COALESCE(team_name, ''),
			games_played, wins, losses, avg_pts, avg_plus_minus
		FROM v_team_season_summary
		WHERE season_id = $1
		ORDER BY wins DESC, abbreviation
	`

	rows, err := r.db.DB().QueryContext(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("querying team season summary: %w", err)
	}
	defer rows.Close()

	summaries := []*store.TeamSeasonSummary{}
	for rows.Next() {
		s := &store.TeamSeasonSummary{}
		err := rows.Scan(
			&s.SeasonID, &s.TeamID, &s.Abbreviation, &s.TeamName,
			&s.GamesPlayed, &s.Wins, &s.Losses, &s.AvgPts, &s.AvgPlusMinus,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning team season summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// PlayerGame returns the player lines for one game, most minutes first
func (r *SummaryRepository) PlayerGame(ctx context.Context, gameID string) ([]*store.PlayerGameSummary, error) {
	query := `
		SELECT game_id, game_date, COALESCE(season_id, 0), player_id, COALESCE(full_name, ''), team,
			minutes, off_rating, def_rating, net_rating, usg_pct, ts_pct, pie,
			shot_attempts, shots_made
		FROM v_player_game_summary
		WHERE game_id = $1
		ORDER BY minutes DESC NULLS LAST, player_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying player game summary: %w", err)
	}
	defer rows.Close()

	lines := []*store.PlayerGameSummary{}
	for rows.Next() {
		s := &store.PlayerGameSummary{}
		err := rows.Scan(
			&s.GameID, &s.GameDate, &s.SeasonID, &s.PlayerID, &s.FullName, &s.Team,
			&s.Minutes, &s.OffRating, &s.DefRating, &s.NetRating, &s.UsgPct, &s.TsPct, &s.Pie,
			&s.ShotAttempts, &s.ShotsMade,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player game summary: %w", err)
		}
		lines = append(lines, s)
	}

	return lines, rows.Err()
}
