package provider

import (
	"encoding/json"
	"fmt"

	"github.com/fortuna/courtlake/internal/etlerr"
)

// ResultSet is the tabular envelope most stats endpoints use.
type ResultSet struct {
	Name    string              `json:"name"`
	Headers []string            `json:"headers"`
	RowSet  [][]json.RawMessage `json:"rowSet"`
}

// Column returns the index of header, or -1.
func (rs ResultSet) Column(header string) int {
	for i, h := range rs.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// Cell returns the raw value at row/col, or nil when out of range.
func (rs ResultSet) Cell(row []json.RawMessage, col int) json.RawMessage {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

type resultSetEnvelope struct {
	ResultSets []ResultSet `json:"resultSets"`
	ResultSet  *ResultSet  `json:"resultSet"`
}

// DecodeResultSets reads either the "resultSets" array or the singular "resultSet" object.
func DecodeResultSets(data []byte) ([]ResultSet, error) {
	var env resultSetEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, etlerr.New(etlerr.DataShape, "decode result sets", err)
	}
	if env.ResultSets != nil {
		return env.ResultSets, nil
	}
	if env.ResultSet != nil {
		return []ResultSet{*env.ResultSet}, nil
	}
	return nil, etlerr.Errorf(etlerr.DataShape, "decode result sets", "payload has no resultSets")
}

// FindResultSet returns the named set, or the first set when name is empty.
func FindResultSet(sets []ResultSet, name string) (ResultSet, error) {
	for _, rs := range sets {
		if name == "" || rs.Name == name {
			return rs, nil
		}
	}
	return ResultSet{}, etlerr.Errorf(etlerr.DataShape, "find result set", "result set %q not found", name)
}

// ParseGameIDs extracts the distinct game ids from a scoreboard payload, in upstream order.
func ParseGameIDs(scoreboard []byte) ([]string, error) {
	sets, err := DecodeResultSets(scoreboard)
	if err != nil {
		return nil, err
	}
	header, err := FindResultSet(sets, "GameHeader")
	if err != nil {
		return nil, err
	}
	col := header.Column("GAME_ID")
	if col < 0 {
		return nil, etlerr.Errorf(etlerr.DataShape, "parse game ids", "GameHeader has no GAME_ID column")
	}

	seen := make(map[string]struct{}, len(header.RowSet))
	ids := make([]string, 0, len(header.RowSet))
	for _, row := range header.RowSet {
		var id string
		if err := json.Unmarshal(header.Cell(row, col), &id); err != nil || id == "" {
			return nil, etlerr.New(etlerr.DataShape, "parse game ids", fmt.Errorf("bad GAME_ID cell: %s", header.Cell(row, col)))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
