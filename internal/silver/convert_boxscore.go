package silver

import (
	"encoding/json"
	"fmt"

	"github.com/fortuna/courtlake/internal/etlerr"
)

type boxscorePayload struct {
	BoxScoreAdvanced *struct {
		HomeTeam boxscoreTeam `json:"homeTeam"`
		AwayTeam boxscoreTeam `json:"awayTeam"`
	} `json:"boxScoreAdvanced"`
}

type boxscoreTeam struct {
	TeamID      flex `json:"teamId"`
	TeamTricode flex `json:"teamTricode"`
	Players     []struct {
		PersonID   flex            `json:"personId"`
		FirstName  flex            `json:"firstName"`
		FamilyName flex            `json:"familyName"`
		NameI      flex            `json:"nameI"`
		Position   flex            `json:"position"`
		Comment    flex            `json:"comment"`
		JerseyNum  flex            `json:"jerseyNum"`
		Statistics map[string]flex `json:"statistics"`
	} `json:"players"`
}

// ConvertBoxscore flattens an advanced box score into one row per player.
func ConvertBoxscore(gameID string, data []byte) ([]BoxscoreRow, *Result, error) {
	var payload boxscorePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, etlerr.New(etlerr.DataShape, "convert boxscore "+gameID, err)
	}
	if payload.BoxScoreAdvanced == nil {
		return nil, nil, etlerr.Errorf(etlerr.DataShape, "convert boxscore "+gameID, "payload has no boxScoreAdvanced")
	}

	var rows []BoxscoreRow
	for _, side := range []struct {
		team     boxscoreTeam
		teamType string
	}{
		{payload.BoxScoreAdvanced.HomeTeam, "HOME"},
		{payload.BoxScoreAdvanced.AwayTeam, "AWAY"},
	} {
		teamID := side.team.TeamID.Int()
		tricode := side.team.TeamTricode.Str()
		for _, p := range side.team.Players {
			stat := func(key string) *float64 { return p.Statistics[key].Float() }
			minutes := p.Statistics["minutes"].StrPtr()

			row := BoxscoreRow{
				GameID:      gameID,
				PersonID:    p.PersonID.Int(),
				TeamID:      teamID,
				TeamTricode: tricode,
				TeamType:    side.teamType,
				FirstName:   p.FirstName.Str(),
				FamilyName:  p.FamilyName.Str(),
				NameI:       p.NameI.Str(),
				Position:    p.Position.Str(),
				Comment:     p.Comment.Str(),
				JerseyNum:   p.JerseyNum.Str(),
				Minutes:     minutes,

				OffensiveRating:              stat("offensiveRating"),
				DefensiveRating:              stat("defensiveRating"),
				NetRating:                    stat("netRating"),
				AssistPercentage:             stat("assistPercentage"),
				AssistToTurnover:             stat("assistToTurnover"),
				ReboundPercentage:            stat("reboundPercentage"),
				OffensiveReboundPercentage:   stat("offensiveReboundPercentage"),
				DefensiveReboundPercentage:   stat("defensiveReboundPercentage"),
				TurnoverRatio:                stat("turnoverRatio"),
				EffectiveFieldGoalPercentage: stat("effectiveFieldGoalPercentage"),
				TrueShootingPercentage:       stat("trueShootingPercentage"),
				UsagePercentage:              stat("usagePercentage"),
				Pace:                         stat("pace"),
				Possessions:                  stat("possessions"),
				PIE:                          stat("PIE"),
			}
			if minutes != nil {
				row.MinutesPlayed = ParseMinutes(*minutes)
			}
			rows = append(rows, row)
		}
	}

	rows = dedupe(rows, BoxscoreContract.Key)
	return rows, BoxscoreContract.Validate("boxscore/"+gameID, rows), nil
}

func boxscoreKey(r BoxscoreRow) string {
	return fmt.Sprintf("%s|%s", r.GameID, fmtInt(r.PersonID))
}
