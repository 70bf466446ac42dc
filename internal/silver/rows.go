package silver

// BoxscoreRow is one player's advanced box score line for a game.
type BoxscoreRow struct {
	GameID      string  `parquet:"game_id"`
	PersonID    *int64  `parquet:"person_id"`
	TeamID      *int64  `parquet:"team_id"`
	TeamTricode string  `parquet:"team_tricode"`
	TeamType    string  `parquet:"team_type"`
	FirstName   string  `parquet:"first_name"`
	FamilyName  string  `parquet:"family_name"`
	NameI       string  `parquet:"name_i"`
	Position    string  `parquet:"position"`
	Comment     string  `parquet:"comment"`
	JerseyNum   string  `parquet:"jersey_num"`
	Minutes     *string `parquet:"minutes"`

	MinutesPlayed                *float64 `parquet:"minutes_played"`
	OffensiveRating              *float64 `parquet:"offensive_rating"`
	DefensiveRating              *float64 `parquet:"defensive_rating"`
	NetRating                    *float64 `parquet:"net_rating"`
	AssistPercentage             *float64 `parquet:"assist_percentage"`
	AssistToTurnover             *float64 `parquet:"assist_to_turnover"`
	ReboundPercentage            *float64 `parquet:"rebound_percentage"`
	OffensiveReboundPercentage   *float64 `parquet:"offensive_rebound_percentage"`
	DefensiveReboundPercentage   *float64 `parquet:"defensive_rebound_percentage"`
	TurnoverRatio                *float64 `parquet:"turnover_ratio"`
	EffectiveFieldGoalPercentage *float64 `parquet:"effective_field_goal_percentage"`
	TrueShootingPercentage       *float64 `parquet:"true_shooting_percentage"`
	UsagePercentage              *float64 `parquet:"usage_percentage"`
	Pace                         *float64 `parquet:"pace"`
	Possessions                  *float64 `parquet:"possessions"`
	PIE                          *float64 `parquet:"pie"`
}

// PlayByPlayRow is one logged game action.
type PlayByPlayRow struct {
	GameID       string   `parquet:"game_id"`
	ActionNumber *int64   `parquet:"action_number"`
	Period       *int64   `parquet:"period"`
	Clock        string   `parquet:"clock"`
	ClockSeconds *float64 `parquet:"clock_seconds"`
	TeamID       *int64   `parquet:"team_id"`
	TeamTricode  string   `parquet:"team_tricode"`
	PersonID     *int64   `parquet:"person_id"`
	PlayerName   string   `parquet:"player_name"`
	ActionType   *string  `parquet:"action_type"`
	SubType      string   `parquet:"sub_type"`
	Description  string   `parquet:"description"`
	ShotDistance *float64 `parquet:"shot_distance"`
	ShotResult   string   `parquet:"shot_result"`
	IsFieldGoal  *bool    `parquet:"is_field_goal"`
	ScoreHome    *int64   `parquet:"score_home"`
	ScoreAway    *int64   `parquet:"score_away"`
	PointsTotal  *int64   `parquet:"points_total"`
	Location     string   `parquet:"location"`
	XLegacy      *float64 `parquet:"x_legacy"`
	YLegacy      *float64 `parquet:"y_legacy"`
}

// ShotRow is one field goal attempt from the shot chart.
type ShotRow struct {
	GameID            string   `parquet:"game_id"`
	GameEventID       *int64   `parquet:"game_event_id"`
	PlayerID          *int64   `parquet:"player_id"`
	PlayerName        string   `parquet:"player_name"`
	TeamID            *int64   `parquet:"team_id"`
	TeamName          string   `parquet:"team_name"`
	Period            *int64   `parquet:"period"`
	MinutesRemaining  *int64   `parquet:"minutes_remaining"`
	SecondsRemaining  *int64   `parquet:"seconds_remaining"`
	EventType         string   `parquet:"event_type"`
	ActionType        string   `parquet:"action_type"`
	ShotType          string   `parquet:"shot_type"`
	ShotZoneBasic     string   `parquet:"shot_zone_basic"`
	ShotZoneArea      string   `parquet:"shot_zone_area"`
	ShotZoneRange     string   `parquet:"shot_zone_range"`
	ShotDistance      *float64 `parquet:"shot_distance"`
	LocX              *float64 `parquet:"loc_x"`
	LocY              *float64 `parquet:"loc_y"`
	ShotAttemptedFlag *bool    `parquet:"shot_attempted_flag"`
	ShotMadeFlag      *bool    `parquet:"shot_made_flag"`
	GameDate          *string  `parquet:"game_date"`
	HomeTeam          string   `parquet:"home_team"`
	AwayTeam          string   `parquet:"away_team"`
}

// PlayerRow is one entry of the league-wide player catalog.
type PlayerRow struct {
	ID        *int64  `parquet:"id"`
	FullName  *string `parquet:"full_name"`
	FirstName *string `parquet:"first_name"`
	LastName  *string `parquet:"last_name"`
	IsActive  *bool   `parquet:"is_active"`
}

// TeamGameRow is one team's line for one game in its franchise history.
type TeamGameRow struct {
	SeasonID         string   `parquet:"season_id"`
	SeasonYear       *int64   `parquet:"season_year"`
	TeamID           *int64   `parquet:"team_id"`
	TeamAbbreviation string   `parquet:"team_abbreviation"`
	TeamName         string   `parquet:"team_name"`
	GameID           *string  `parquet:"game_id"`
	GameDate         *string  `parquet:"game_date"`
	Matchup          string   `parquet:"matchup"`
	WL               string   `parquet:"wl"`
	Min              *float64 `parquet:"min"`
	Pts              *int64   `parquet:"pts"`
	FGM              *int64   `parquet:"fgm"`
	FGA              *int64   `parquet:"fga"`
	FGPct            *float64 `parquet:"fg_pct"`
	FG3M             *int64   `parquet:"fg3m"`
	FG3A             *int64   `parquet:"fg3a"`
	FG3Pct           *float64 `parquet:"fg3_pct"`
	FTM              *int64   `parquet:"ftm"`
	FTA              *int64   `parquet:"fta"`
	FTPct            *float64 `parquet:"ft_pct"`
	OReb             *int64   `parquet:"oreb"`
	DReb             *int64   `parquet:"dreb"`
	Reb              *int64   `parquet:"reb"`
	Ast              *int64   `parquet:"ast"`
	Stl              *int64   `parquet:"stl"`
	Blk              *int64   `parquet:"blk"`
	Tov              *int64   `parquet:"tov"`
	PF               *int64   `parquet:"pf"`
	PlusMinus        *float64 `parquet:"plus_minus"`
}
