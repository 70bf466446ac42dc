package silver

import (
	"strconv"
)

// Dataset names double as silver directory names.
const (
	DatasetBoxscores  = "boxscores"
	DatasetPlayByPlay = "pbp"
	DatasetShotChart  = "shot_chart"
	DatasetPlayers    = "players"
	DatasetTeams      = "teams"
)

var BoxscoreContract = Contract[BoxscoreRow]{
	Dataset:    DatasetBoxscores,
	PrimaryKey: []string{"game_id", "person_id"},
	Key:        boxscoreKey,
	Required: []Field[BoxscoreRow]{
		{Name: "game_id", IsNull: func(r BoxscoreRow) bool { return r.GameID == "" }},
		{Name: "person_id", IsNull: func(r BoxscoreRow) bool { return r.PersonID == nil }},
		{Name: "team_id", IsNull: func(r BoxscoreRow) bool { return r.TeamID == nil }},
	},
	Ranges: []Range[BoxscoreRow]{
		Between("offensive_rating", func(r BoxscoreRow) *float64 { return r.OffensiveRating }, 0, 300),
		Between("defensive_rating", func(r BoxscoreRow) *float64 { return r.DefensiveRating }, 0, 300),
		Between("usage_percentage", func(r BoxscoreRow) *float64 { return r.UsagePercentage }, 0, 1),
		Between("true_shooting_percentage", func(r BoxscoreRow) *float64 { return r.TrueShootingPercentage }, 0, 2),
		Between("pie", func(r BoxscoreRow) *float64 { return r.PIE }, -1, 1),
	},
	MinRows: 10,
}

var PlayByPlayContract = Contract[PlayByPlayRow]{
	Dataset:    DatasetPlayByPlay,
	PrimaryKey: []string{"game_id", "action_number"},
	Key:        playByPlayKey,
	Required: []Field[PlayByPlayRow]{
		{Name: "game_id", IsNull: func(r PlayByPlayRow) bool { return r.GameID == "" }},
		{Name: "action_number", IsNull: func(r PlayByPlayRow) bool { return r.ActionNumber == nil }},
		{Name: "period", IsNull: func(r PlayByPlayRow) bool { return r.Period == nil }},
		{Name: "action_type", IsNull: func(r PlayByPlayRow) bool { return r.ActionType == nil }},
	},
	Ranges: []Range[PlayByPlayRow]{
		Between("period", func(r PlayByPlayRow) *float64 { return asFloat(r.Period) }, 1, 10),
		Between("clock_seconds", func(r PlayByPlayRow) *float64 { return r.ClockSeconds }, 0, 720),
		Between("shot_distance", func(r PlayByPlayRow) *float64 { return r.ShotDistance }, 0, 94),
		AtLeast("score_home", func(r PlayByPlayRow) *float64 { return asFloat(r.ScoreHome) }, 0),
		AtLeast("score_away", func(r PlayByPlayRow) *float64 { return asFloat(r.ScoreAway) }, 0),
	},
	MinRows: 100,
}

var ShotContract = Contract[ShotRow]{
	Dataset:    DatasetShotChart,
	PrimaryKey: []string{"game_id", "game_event_id"},
	Key:        shotKey,
	Required: []Field[ShotRow]{
		{Name: "game_id", IsNull: func(r ShotRow) bool { return r.GameID == "" }},
		{Name: "game_event_id", IsNull: func(r ShotRow) bool { return r.GameEventID == nil }},
		{Name: "player_id", IsNull: func(r ShotRow) bool { return r.PlayerID == nil }},
		{Name: "team_id", IsNull: func(r ShotRow) bool { return r.TeamID == nil }},
		{Name: "period", IsNull: func(r ShotRow) bool { return r.Period == nil }},
	},
	Ranges: []Range[ShotRow]{
		Between("period", func(r ShotRow) *float64 { return asFloat(r.Period) }, 1, 10),
		Between("loc_x", func(r ShotRow) *float64 { return r.LocX }, -250, 250),
		Between("loc_y", func(r ShotRow) *float64 { return r.LocY }, -50, 900),
		Between("shot_distance", func(r ShotRow) *float64 { return r.ShotDistance }, 0, 94),
	},
}

var PlayerContract = Contract[PlayerRow]{
	Dataset:    DatasetPlayers,
	PrimaryKey: []string{"id"},
	Key:        playerKey,
	Required: []Field[PlayerRow]{
		{Name: "id", IsNull: func(r PlayerRow) bool { return r.ID == nil }},
		{Name: "full_name", IsNull: func(r PlayerRow) bool { return r.FullName == nil }},
		{Name: "first_name", IsNull: func(r PlayerRow) bool { return r.FirstName == nil }},
		{Name: "last_name", IsNull: func(r PlayerRow) bool { return r.LastName == nil }},
	},
	MinRows: 4000,
}

var TeamGameContract = Contract[TeamGameRow]{
	Dataset:    DatasetTeams,
	PrimaryKey: []string{"game_id", "team_id"},
	Key:        teamGameKey,
	Required: []Field[TeamGameRow]{
		{Name: "game_id", IsNull: func(r TeamGameRow) bool { return r.GameID == nil }},
		{Name: "team_id", IsNull: func(r TeamGameRow) bool { return r.TeamID == nil }},
		{Name: "game_date", IsNull: func(r TeamGameRow) bool { return r.GameDate == nil }},
		{Name: "pts", IsNull: func(r TeamGameRow) bool { return r.Pts == nil }},
	},
	Ranges: []Range[TeamGameRow]{
		Between("pts", func(r TeamGameRow) *float64 { return asFloat(r.Pts) }, 0, 200),
		Between("fg_pct", func(r TeamGameRow) *float64 { return r.FGPct }, 0, 1),
		Between("fg3_pct", func(r TeamGameRow) *float64 { return r.FG3Pct }, 0, 1),
		Between("ft_pct", func(r TeamGameRow) *float64 { return r.FTPct }, 0, 1),
	},
	MinRows: 50000,
}

// dedupe keeps the first row for every key.
func dedupe[T any](rows []T, key func(T) string) []T {
	if len(rows) < 2 {
		return rows
	}
	seen := make(map[string]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}

func asFloat(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func fmtInt(v *int64) string {
	if v == nil {
		return "<nil>"
	}
	return strconv.FormatInt(*v, 10)
}

func fmtStr(v *string) string {
	if v == nil {
		return "<nil>"
	}
	return *v
}
