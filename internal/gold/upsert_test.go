package gold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtlake/internal/silver"
)

func TestBuildStagingSQL(t *testing.T) {
	got := buildStagingSQL(gamesTarget)
	assert.Equal(t,
		`CREATE TEMP TABLE "_staging_games" ON COMMIT DROP AS SELECT game_id, season_id, game_date FROM "games" WITH NO DATA`,
		got)
}

func TestBuildUpsertSQL(t *testing.T) {
	t.Run("fact with joins", func(t *testing.T) {
		target := Target{
			Table:      TableFactShots,
			Columns:    []string{"game_id", "game_event_id", "player_id", "loc_x"},
			PrimaryKey: []string{"game_id", "game_event_id"},
		}
		assert.Equal(t,
			`INSERT INTO "fact_shots" (game_id, game_event_id, player_id, loc_x) `+
				`SELECT s.game_id, s.game_event_id, s.player_id, s.loc_x FROM "_staging_fact_shots" s`+
				` JOIN "games" g ON s.game_id = g.game_id`+
				` JOIN "players" p ON s.player_id = p.player_id`+
				` ON CONFLICT (game_id, game_event_id) DO UPDATE SET player_id = EXCLUDED.player_id, loc_x = EXCLUDED.loc_x`,
			buildUpsertSQL(target))
	})

	t.Run("dimension without joins", func(t *testing.T) {
		sql := buildUpsertSQL(teamsTarget)
		assert.NotContains(t, sql, "JOIN")
		assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE SET abbreviation = EXCLUDED.abbreviation, team_name = EXCLUDED.team_name")
	})

	t.Run("key-only table does nothing on conflict", func(t *testing.T) {
		sql := buildUpsertSQL(Target{Table: "links", Columns: []string{"a", "b"}, PrimaryKey: []string{"a", "b"}})
		assert.Contains(t, sql, "ON CONFLICT (a, b) DO NOTHING")
	})
}

func TestFKJoinsCoverEveryFact(t *testing.T) {
	assert.Len(t, fkJoins[TableFactPlayerStats], 3)
	assert.Len(t, fkJoins[TableFactTeamStats], 2)
	assert.Len(t, fkJoins[TableFactPlayByPlay], 1)
	assert.Len(t, fkJoins[TableFactShots], 2)
	assert.Empty(t, fkJoins[TableGames])
}

func TestPrepareRowsKeepsLastAndDropsNullKeys(t *testing.T) {
	target := Target{Table: "x", Columns: []string{"name", "id"}, PrimaryKey: []string{"id"}}
	rows := [][]any{
		{"first", int64(1)},
		{"other", int64(2)},
		{"nokey", nil},
		{"second", int64(1)},
	}
	kept, nullKeys := prepareRows(target, rows)
	assert.Equal(t, 1, nullKeys)
	require.Len(t, kept, 2)
	assert.Equal(t, []any{"second", int64(1)}, kept[0], "last row wins, in first-seen position")
	assert.Equal(t, []any{"other", int64(2)}, kept[1])
}

func TestPrepareRowsCompositeKey(t *testing.T) {
	target := Target{Table: "x", Columns: []string{"game_id", "n", "v"}, PrimaryKey: []string{"game_id", "n"}}
	kept, _ := prepareRows(target, [][]any{
		{"g1", int64(1), "a"},
		{"g1", int64(2), "b"},
		{"g2", int64(1), "c"},
		{"g1", int64(1), "d"},
	})
	require.Len(t, kept, 3)
	assert.Equal(t, "d", kept[0][2])
}

func TestMappingsMatchTargets(t *testing.T) {
	assert.Len(t, playerStatsRows([]silver.BoxscoreRow{{}})[0], len(playerStatsTarget.Columns))
	assert.Len(t, playByPlayRows([]silver.PlayByPlayRow{{}})[0], len(playByPlayTarget.Columns))
	assert.Len(t, shotRows([]silver.ShotRow{{}})[0], len(shotsTarget.Columns))
	assert.Len(t, playerRows([]silver.PlayerRow{{}})[0], len(playersTarget.Columns))
	assert.Len(t, teamStatsRows([]silver.TeamGameRow{{}})[0], len(teamStatsTarget.Columns))
}

func TestMappingNullsAreUntyped(t *testing.T) {
	row := playByPlayRows([]silver.PlayByPlayRow{{GameID: "g1"}})[0]
	assert.Equal(t, "g1", row[0])
	for i := 1; i < len(row); i++ {
		assert.Nil(t, row[i], playByPlayTarget.Columns[i])
	}
}

func TestDimensionRowsDeduplicate(t *testing.T) {
	id := func(v int64) *int64 { return &v }
	s := func(v string) *string { return &v }
	history := []silver.TeamGameRow{
		{TeamID: id(1), TeamAbbreviation: "ATL", TeamName: "Atlanta Hawks", GameID: s("g1"), SeasonYear: id(2023), GameDate: s("2024-01-15")},
		{TeamID: id(2), TeamAbbreviation: "BOS", TeamName: "Boston Celtics", GameID: s("g1"), SeasonYear: id(2023), GameDate: s("2024-01-15")},
		{TeamID: id(1), TeamAbbreviation: "ATL", TeamName: "Atlanta Hawks", GameID: s("g2")},
		{GameID: s("g3")},
	}

	teams := teamRows(history)
	require.Len(t, teams, 2)
	assert.Equal(t, []any{int64(1), "ATL", "Atlanta Hawks"}, teams[0])

	games := gameRows(history)
	require.Len(t, games, 3)
	assert.Equal(t, []any{"g1", int64(2023), "2024-01-15"}, games[0])
	assert.Equal(t, []any{"g2", nil, nil}, games[1])
}

func TestLoadTotals(t *testing.T) {
	l := &Load{Results: []LoadResult{
		{Table: TableFactPlayerStats, Loaded: 80, Skipped: 2},
		{Table: TableFactShots, Loaded: 10},
	}}
	assert.Equal(t, 90, l.Loaded())
	assert.Equal(t, 2, l.Skipped())
	r, ok := l.Result(TableFactShots)
	assert.True(t, ok)
	assert.Equal(t, 10, r.Loaded)
	_, ok = l.Result(TableGames)
	assert.False(t, ok)
}
