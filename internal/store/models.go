package store

import "time"

// TeamSeasonSummary is one row of v_team_season_summary.
type TeamSeasonSummary struct {
	SeasonID     int      `json:"season_id" db:"season_id"`
	TeamID       int64    `json:"team_id" db:"team_id"`
	Abbreviation string   `json:"abbreviation" db:"abbreviation"`
	TeamName     string   `json:"team_name" db:"team_name"`
	GamesPlayed  int      `json:"games_played" db:"games_played"`
	Wins         int      `json:"wins" db:"wins"`
	Losses       int      `json:"losses" db:"losses"`
	AvgPts       *float64 `json:"avg_pts,omitempty" db:"avg_pts"`
	AvgPlusMinus *float64 `json:"avg_plus_minus,omitempty" db:"avg_plus_minus"`
}

// PlayerGameSummary is one row of v_player_game_summary.
type PlayerGameSummary struct {
	GameID       string     `json:"game_id" db:"game_id"`
	GameDate     *time.Time `json:"game_date,omitempty" db:"game_date"`
	SeasonID     int        `json:"season_id" db:"season_id"`
	PlayerID     int64      `json:"player_id" db:"player_id"`
	FullName     string     `json:"full_name" db:"full_name"`
	Team         *string    `json:"team,omitempty" db:"team"`
	Minutes      *float64   `json:"minutes,omitempty" db:"minutes"`
	OffRating    *float64   `json:"off_rating,omitempty" db:"off_rating"`
	DefRating    *float64   `json:"def_rating,omitempty" db:"def_rating"`
	NetRating    *float64   `json:"net_rating,omitempty" db:"net_rating"`
	UsgPct       *float64   `json:"usg_pct,omitempty" db:"usg_pct"`
	TsPct        *float64   `json:"ts_pct,omitempty" db:"ts_pct"`
	Pie          *float64   `json:"pie,omitempty" db:"pie"`
	ShotAttempts int        `json:"shot_attempts" db:"shot_attempts"`
	ShotsMade    int        `json:"shots_made" db:"shots_made"`
}
