package silver

import (
	"encoding/json"
	"fmt"

	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/provider"
)

var shotRequiredHeaders = []string{"GAME_EVENT_ID", "PLAYER_ID", "TEAM_ID", "PERIOD"}

// ConvertShotChart reads the first result set of a shot chart payload.
func ConvertShotChart(gameID string, data []byte) ([]ShotRow, *Result, error) {
	sets, err := provider.DecodeResultSets(data)
	if err != nil {
		return nil, nil, fmt.Errorf("convert shot chart %s: %w", gameID, err)
	}
	if len(sets) == 0 {
		return nil, nil, etlerr.Errorf(etlerr.DataShape, "convert shot chart "+gameID, "payload has no result sets")
	}
	rs := sets[0]

	get := func(row []json.RawMessage, header string) flex {
		return flex(rs.Cell(row, rs.Column(header)))
	}

	rows := make([]ShotRow, 0, len(rs.RowSet))
	for _, r := range rs.RowSet {
		rows = append(rows, ShotRow{
			GameID:            gameID,
			GameEventID:       get(r, "GAME_EVENT_ID").Int(),
			PlayerID:          get(r, "PLAYER_ID").Int(),
			PlayerName:        get(r, "PLAYER_NAME").Str(),
			TeamID:            get(r, "TEAM_ID").Int(),
			TeamName:          get(r, "TEAM_NAME").Str(),
			Period:            get(r, "PERIOD").Int(),
			MinutesRemaining:  get(r, "MINUTES_REMAINING").Int(),
			SecondsRemaining:  get(r, "SECONDS_REMAINING").Int(),
			EventType:         get(r, "EVENT_TYPE").Str(),
			ActionType:        get(r, "ACTION_TYPE").Str(),
			ShotType:          get(r, "SHOT_TYPE").Str(),
			ShotZoneBasic:     get(r, "SHOT_ZONE_BASIC").Str(),
			ShotZoneArea:      get(r, "SHOT_ZONE_AREA").Str(),
			ShotZoneRange:     get(r, "SHOT_ZONE_RANGE").Str(),
			ShotDistance:      get(r, "SHOT_DISTANCE").Float(),
			LocX:              get(r, "LOC_X").Float(),
			LocY:              get(r, "LOC_Y").Float(),
			ShotAttemptedFlag: get(r, "SHOT_ATTEMPTED_FLAG").Bool(),
			ShotMadeFlag:      get(r, "SHOT_MADE_FLAG").Bool(),
			GameDate:          parseGameDate(get(r, "GAME_DATE").Str()),
			HomeTeam:          get(r, "HTM").Str(),
			AwayTeam:          get(r, "VTM").Str(),
		})
	}

	rows = dedupe(rows, ShotContract.Key)
	res := ShotContract.Validate("shots/"+gameID, rows)
	if len(rs.RowSet) > 0 {
		for _, h := range shotRequiredHeaders {
			if rs.Column(h) < 0 {
				res.MissingColumn(h)
			}
		}
	}
	return rows, res, nil
}

func shotKey(r ShotRow) string {
	return fmt.Sprintf("%s|%s", r.GameID, fmtInt(r.GameEventID))
}
