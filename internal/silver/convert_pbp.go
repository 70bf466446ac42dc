package silver

import (
	"encoding/json"
	"fmt"

	"github.com/fortuna/courtlake/internal/etlerr"
)

type playByPlayPayload struct {
	Game *struct {
		Actions []struct {
			ActionNumber flex `json:"actionNumber"`
			Clock        flex `json:"clock"`
			Period       flex `json:"period"`
			TeamID       flex `json:"teamId"`
			TeamTricode  flex `json:"teamTricode"`
			PersonID     flex `json:"personId"`
			PlayerName   flex `json:"playerName"`
			XLegacy      flex `json:"xLegacy"`
			YLegacy      flex `json:"yLegacy"`
			ShotDistance flex `json:"shotDistance"`
			ShotResult   flex `json:"shotResult"`
			IsFieldGoal  flex `json:"isFieldGoal"`
			ScoreHome    flex `json:"scoreHome"`
			ScoreAway    flex `json:"scoreAway"`
			PointsTotal  flex `json:"pointsTotal"`
			Location     flex `json:"location"`
			Description  flex `json:"description"`
			ActionType   flex `json:"actionType"`
			SubType      flex `json:"subType"`
		} `json:"actions"`
	} `json:"game"`
}

// ConvertPlayByPlay flattens the action log into one row per action.
func ConvertPlayByPlay(gameID string, data []byte) ([]PlayByPlayRow, *Result, error) {
	var payload playByPlayPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, etlerr.New(etlerr.DataShape, "convert play-by-play "+gameID, err)
	}
	if payload.Game == nil || payload.Game.Actions == nil {
		return nil, nil, etlerr.Errorf(etlerr.DataShape, "convert play-by-play "+gameID, "payload has no game.actions")
	}

	rows := make([]PlayByPlayRow, 0, len(payload.Game.Actions))
	for _, a := range payload.Game.Actions {
		clock := a.Clock.Str()
		rows = append(rows, PlayByPlayRow{
			GameID:       gameID,
			ActionNumber: a.ActionNumber.Int(),
			Period:       a.Period.Int(),
			Clock:        clock,
			ClockSeconds: ParseClock(clock),
			TeamID:       nonZero(a.TeamID.Int()),
			TeamTricode:  a.TeamTricode.Str(),
			PersonID:     nonZero(a.PersonID.Int()),
			PlayerName:   a.PlayerName.Str(),
			ActionType:   a.ActionType.StrPtr(),
			SubType:      a.SubType.Str(),
			Description:  a.Description.Str(),
			ShotDistance: a.ShotDistance.Float(),
			ShotResult:   a.ShotResult.Str(),
			IsFieldGoal:  a.IsFieldGoal.Bool(),
			ScoreHome:    a.ScoreHome.Int(),
			ScoreAway:    a.ScoreAway.Int(),
			PointsTotal:  a.PointsTotal.Int(),
			Location:     a.Location.Str(),
			XLegacy:      a.XLegacy.Float(),
			YLegacy:      a.YLegacy.Float(),
		})
	}

	rows = dedupe(rows, PlayByPlayContract.Key)
	return rows, PlayByPlayContract.Validate("pbp/"+gameID, rows), nil
}

func playByPlayKey(r PlayByPlayRow) string {
	return fmt.Sprintf("%s|%s", r.GameID, fmtInt(r.ActionNumber))
}

// nonZero maps the upstream "no entity" id 0 to null.
func nonZero(v *int64) *int64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
