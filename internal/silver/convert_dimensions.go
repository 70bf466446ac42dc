package silver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/provider"
)

type playerListEntry struct {
	ID        flex `json:"id"`
	FullName  flex `json:"full_name"`
	FirstName flex `json:"first_name"`
	LastName  flex `json:"last_name"`
	IsActive  flex `json:"is_active"`
}

// ConvertPlayers accepts either a plain list of player objects or the all-players result set.
func ConvertPlayers(data []byte) ([]PlayerRow, *Result, error) {
	var rows []PlayerRow

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []playerListEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, nil, etlerr.New(etlerr.DataShape, "convert players", err)
		}
		for _, e := range entries {
			rows = append(rows, PlayerRow{
				ID:        e.ID.Int(),
				FullName:  e.FullName.StrPtr(),
				FirstName: e.FirstName.StrPtr(),
				LastName:  e.LastName.StrPtr(),
				IsActive:  e.IsActive.Bool(),
			})
		}
	} else {
		sets, err := provider.DecodeResultSets(data)
		if err != nil {
			return nil, nil, fmt.Errorf("convert players: %w", err)
		}
		rs, err := provider.FindResultSet(sets, "CommonAllPlayers")
		if err != nil {
			return nil, nil, fmt.Errorf("convert players: %w", err)
		}
		for _, r := range rs.RowSet {
			get := func(h string) flex { return flex(rs.Cell(r, rs.Column(h))) }
			first, last := splitLastCommaFirst(get("DISPLAY_LAST_COMMA_FIRST").Str())
			rows = append(rows, PlayerRow{
				ID:        get("PERSON_ID").Int(),
				FullName:  get("DISPLAY_FIRST_LAST").StrPtr(),
				FirstName: first,
				LastName:  last,
				IsActive:  get("ROSTERSTATUS").Bool(),
			})
		}
	}

	rows = dedupe(rows, PlayerContract.Key)
	return rows, PlayerContract.Validate("players", rows), nil
}

// splitLastCommaFirst turns "James, LeBron" into ("LeBron", "James"). Single names are last names.
func splitLastCommaFirst(s string) (*string, *string) {
	if s == "" {
		return nil, nil
	}
	last, first, ok := strings.Cut(s, ",")
	last = strings.TrimSpace(last)
	first = strings.TrimSpace(first)
	if !ok || first == "" {
		empty := ""
		return &empty, &last
	}
	return &first, &last
}

func playerKey(r PlayerRow) string { return fmtInt(r.ID) }

// ConvertTeamHistory reads one franchise's game log. The union of every franchise is
// validated as a whole by ProcessTeams.
func ConvertTeamHistory(teamID string, data []byte) ([]TeamGameRow, error) {
	sets, err := provider.DecodeResultSets(data)
	if err != nil {
		return nil, fmt.Errorf("convert team history %s: %w", teamID, err)
	}
	if len(sets) == 0 {
		return nil, etlerr.Errorf(etlerr.DataShape, "convert team history "+teamID, "payload has no result sets")
	}
	rs := sets[0]

	rows := make([]TeamGameRow, 0, len(rs.RowSet))
	for _, r := range rs.RowSet {
		get := func(h string) flex { return flex(rs.Cell(r, rs.Column(h))) }
		seasonID := get("SEASON_ID").Str()
		rows = append(rows, TeamGameRow{
			SeasonID:         seasonID,
			SeasonYear:       seasonYear(seasonID),
			TeamID:           get("TEAM_ID").Int(),
			TeamAbbreviation: get("TEAM_ABBREVIATION").Str(),
			TeamName:         get("TEAM_NAME").Str(),
			GameID:           get("GAME_ID").StrPtr(),
			GameDate:         parseGameDate(get("GAME_DATE").Str()),
			Matchup:          get("MATCHUP").Str(),
			WL:               get("WL").Str(),
			Min:              get("MIN").Float(),
			Pts:              get("PTS").Int(),
			FGM:              get("FGM").Int(),
			FGA:              get("FGA").Int(),
			FGPct:            get("FG_PCT").Float(),
			FG3M:             get("FG3M").Int(),
			FG3A:             get("FG3A").Int(),
			FG3Pct:           get("FG3_PCT").Float(),
			FTM:              get("FTM").Int(),
			FTA:              get("FTA").Int(),
			FTPct:            get("FT_PCT").Float(),
			OReb:             get("OREB").Int(),
			DReb:             get("DREB").Int(),
			Reb:              get("REB").Int(),
			Ast:              get("AST").Int(),
			Stl:              get("STL").Int(),
			Blk:              get("BLK").Int(),
			Tov:              get("TOV").Int(),
			PF:               get("PF").Int(),
			PlusMinus:        get("PLUS_MINUS").Float(),
		})
	}

	return dedupe(rows, TeamGameContract.Key), nil
}

// seasonYear reads the start year from a season id such as "22023".
func seasonYear(seasonID string) *int64 {
	if len(seasonID) < 4 {
		return nil
	}
	y, err := strconv.ParseInt(seasonID[len(seasonID)-4:], 10, 64)
	if err != nil {
		return nil
	}
	return &y
}

func teamGameKey(r TeamGameRow) string {
	return fmt.Sprintf("%s|%s", fmtStr(r.GameID), fmtInt(r.TeamID))
}
