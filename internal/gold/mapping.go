package gold

import (
	"github.com/fortuna/courtlake/internal/silver"
)

var (
	teamsTarget = Target{
		Table:      TableTeams,
		Columns:    []string{"id", "abbreviation", "team_name"},
		PrimaryKey: []string{"id"},
	}
	playersTarget = Target{
		Table:      TablePlayers,
		Columns:    []string{"player_id", "full_name", "first_name", "last_name", "is_active"},
		PrimaryKey: []string{"player_id"},
	}
	gamesTarget = Target{
		Table:      TableGames,
		Columns:    []string{"game_id", "season_id", "game_date"},
		PrimaryKey: []string{"game_id"},
	}
	playerStatsTarget = Target{
		Table: TableFactPlayerStats,
		Columns: []string{"game_id", "player_id", "team_id", "start_position", "comment", "minutes",
			"off_rating", "def_rating", "net_rating", "usg_pct", "ts_pct", "efg_pct", "pace", "pie"},
		PrimaryKey: []string{"game_id", "player_id"},
	}
	teamStatsTarget = Target{
		Table: TableFactTeamStats,
		Columns: []string{"game_id", "team_id", "matchup", "wl", "minutes", "pts",
			"fgm", "fga", "fg_pct", "fg3m", "fg3a", "fg3_pct", "ftm", "fta", "ft_pct",
			"reb", "ast", "stl", "blk", "tov", "plus_minus"},
		PrimaryKey: []string{"game_id", "team_id"},
	}
	playByPlayTarget = Target{
		Table: TableFactPlayByPlay,
		Columns: []string{"game_id", "action_number", "period", "clock_seconds", "team_id", "player_id",
			"action_type", "sub_type", "description", "shot_distance", "score_home", "score_away", "is_field_goal"},
		PrimaryKey: []string{"game_id", "action_number"},
	}
	shotsTarget = Target{
		Table: TableFactShots,
		Columns: []string{"game_id", "game_event_id", "player_id", "team_id", "period", "loc_x", "loc_y",
			"shot_distance", "shot_attempted_flag", "shot_made_flag",
			"shot_zone_basic", "shot_zone_area", "shot_zone_range"},
		PrimaryKey: []string{"game_id", "game_event_id"},
	}
)

// val turns a nullable silver field into a COPY value.
func val[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// text maps "" to NULL.
func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func playerStatsRows(rows []silver.BoxscoreRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			text(r.GameID), val(r.PersonID), val(r.TeamID), text(r.Position), text(r.Comment), val(r.MinutesPlayed),
			val(r.OffensiveRating), val(r.DefensiveRating), val(r.NetRating), val(r.UsagePercentage),
			val(r.TrueShootingPercentage), val(r.EffectiveFieldGoalPercentage), val(r.Pace), val(r.PIE),
		})
	}
	return out
}

func playByPlayRows(rows []silver.PlayByPlayRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			text(r.GameID), val(r.ActionNumber), val(r.Period), val(r.ClockSeconds), val(r.TeamID), val(r.PersonID),
			val(r.ActionType), text(r.SubType), text(r.Description), val(r.ShotDistance),
			val(r.ScoreHome), val(r.ScoreAway), val(r.IsFieldGoal),
		})
	}
	return out
}

func shotRows(rows []silver.ShotRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			text(r.GameID), val(r.GameEventID), val(r.PlayerID), val(r.TeamID), val(r.Period), val(r.LocX), val(r.LocY),
			val(r.ShotDistance), val(r.ShotAttemptedFlag), val(r.ShotMadeFlag),
			text(r.ShotZoneBasic), text(r.ShotZoneArea), text(r.ShotZoneRange),
		})
	}
	return out
}

func playerRows(rows []silver.PlayerRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{val(r.ID), val(r.FullName), val(r.FirstName), val(r.LastName), val(r.IsActive)})
	}
	return out
}

// teamRows keeps the first name seen per franchise id.
func teamRows(rows []silver.TeamGameRow) [][]any {
	seen := make(map[int64]struct{})
	var out [][]any
	for _, r := range rows {
		if r.TeamID == nil {
			continue
		}
		if _, ok := seen[*r.TeamID]; ok {
			continue
		}
		seen[*r.TeamID] = struct{}{}
		out = append(out, []any{*r.TeamID, text(r.TeamAbbreviation), text(r.TeamName)})
	}
	return out
}

func gameRows(rows []silver.TeamGameRow) [][]any {
	seen := make(map[string]struct{})
	var out [][]any
	for _, r := range rows {
		if r.GameID == nil {
			continue
		}
		if _, ok := seen[*r.GameID]; ok {
			continue
		}
		seen[*r.GameID] = struct{}{}
		out = append(out, []any{*r.GameID, val(r.SeasonYear), val(r.GameDate)})
	}
	return out
}

func teamStatsRows(rows []silver.TeamGameRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			val(r.GameID), val(r.TeamID), text(r.Matchup), text(r.WL), val(r.Min), val(r.Pts),
			val(r.FGM), val(r.FGA), val(r.FGPct), val(r.FG3M), val(r.FG3A), val(r.FG3Pct), val(r.FTM), val(r.FTA), val(r.FTPct),
			val(r.Reb), val(r.Ast), val(r.Stl), val(r.Blk), val(r.Tov), val(r.PlusMinus),
		})
	}
	return out
}
