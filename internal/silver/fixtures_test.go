package silver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// boxscoreJSON builds an advanced box score with perTeam players on each side.
func boxscoreJSON(gameID string, perTeam int) []byte {
	team := func(teamID int, tricode string, base int) map[string]interface{} {
		players := make([]map[string]interface{}, 0, perTeam)
		for i := 0; i < perTeam; i++ {
			players = append(players, map[string]interface{}{
				"personId":   base + i,
				"firstName":  fmt.Sprintf("First%d", i),
				"familyName": fmt.Sprintf("Family%d", i),
				"nameI":      fmt.Sprintf("F. Family%d", i),
				"position":   "G",
				"comment":    "",
				"jerseyNum":  fmt.Sprint(i),
				"statistics": map[string]interface{}{
					"minutes":                      "34:12",
					"offensiveRating":              112.5,
					"defensiveRating":              "108.1",
					"netRating":                    4.4,
					"usagePercentage":              0.21,
					"trueShootingPercentage":       0.58,
					"effectiveFieldGoalPercentage": 0.55,
					"PIE":                          0.12,
				},
			})
		}
		return map[string]interface{}{"teamId": teamID, "teamTricode": tricode, "players": players}
	}
	payload := map[string]interface{}{
		"meta": map[string]interface{}{"version": 1},
		"boxScoreAdvanced": map[string]interface{}{
			"gameId":   gameID,
			"homeTeam": team(1610612737, "ATL", 1000),
			"awayTeam": team(1610612738, "BOS", 2000),
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

// playByPlayJSON builds n sequential actions.
func playByPlayJSON(n int) []byte {
	actions := make([]map[string]interface{}, 0, n)
	for i := 1; i <= n; i++ {
		actions = append(actions, map[string]interface{}{
			"actionNumber": i,
			"clock":        fmt.Sprintf("PT%02dM%02d.00S", 11-(i%12), i%60),
			"period":       1 + (i % 4),
			"teamId":       1610612737,
			"personId":     1000 + (i % 5),
			"actionType":   "Made Shot",
			"subType":      "Jump Shot",
			"description":  "jumper",
			"shotDistance": 15,
			"isFieldGoal":  1,
			"scoreHome":    fmt.Sprint(i),
			"scoreAway":    "0",
		})
	}
	raw, _ := json.Marshal(map[string]interface{}{"game": map[string]interface{}{"actions": actions}})
	return raw
}

func shotChartJSON(gameID string, n int) []byte {
	headers := []string{"GRID_TYPE", "GAME_ID", "GAME_EVENT_ID", "PLAYER_ID", "PLAYER_NAME", "TEAM_ID", "TEAM_NAME",
		"PERIOD", "MINUTES_REMAINING", "SECONDS_REMAINING", "EVENT_TYPE", "ACTION_TYPE", "SHOT_TYPE",
		"SHOT_ZONE_BASIC", "SHOT_ZONE_AREA", "SHOT_ZONE_RANGE", "SHOT_DISTANCE", "LOC_X", "LOC_Y",
		"SHOT_ATTEMPTED_FLAG", "SHOT_MADE_FLAG", "GAME_DATE", "HTM", "VTM"}
	rows := make([][]interface{}, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []interface{}{"Shot Chart Detail", gameID, 10 + i, 1000 + i%3, "P", 1610612737, "Hawks",
			1, 10, 30, "Made Shot", "Jump Shot", "2PT Field Goal",
			"Mid-Range", "Center(C)", "8-16 ft.", 12, -40, 110,
			1, i % 2, "20240115", "ATL", "BOS"})
	}
	raw, _ := json.Marshal(map[string]interface{}{
		"resultSets": []interface{}{
			map[string]interface{}{"name": "Shot_Chart_Detail", "headers": headers, "rowSet": rows},
			map[string]interface{}{"name": "LeagueAverages", "headers": []string{}, "rowSet": []interface{}{}},
		},
	})
	return raw
}

func teamHistoryJSON(teamID int, abbr string, gameIDs ...string) []byte {
	headers := []string{"SEASON_ID", "TEAM_ID", "TEAM_ABBREVIATION", "TEAM_NAME", "GAME_ID", "GAME_DATE", "MATCHUP",
		"WL", "MIN", "PTS", "FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FG3_PCT", "FTM", "FTA", "FT_PCT",
		"OREB", "DREB", "REB", "AST", "STL", "BLK", "TOV", "PF", "PLUS_MINUS"}
	rows := make([][]interface{}, 0, len(gameIDs))
	for _, gid := range gameIDs {
		rows = append(rows, []interface{}{"22023", teamID, abbr, abbr + " Team", gid, "2024-01-15", abbr + " vs. OPP",
			"W", 240, 112, 40, 85, 0.471, 12, 33, 0.364, 20, 24, 0.833,
			10, 34, 44, 25, 8, 5, 12, 18, 7.0})
	}
	raw, _ := json.Marshal(map[string]interface{}{
		"resultSets": []interface{}{map[string]interface{}{"name": "LeagueGameFinderResults", "headers": headers, "rowSet": rows}},
	})
	return raw
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
