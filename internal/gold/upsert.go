package gold

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fortuna/courtlake/internal/etlerr"
)

// Target describes a table write: column order of every row and the conflict key.
type Target struct {
	Table      string
	Columns    []string
	PrimaryKey []string
}

// LoadResult counts one upsert.
type LoadResult struct {
	Table string `json:"table"`
	// Input is the number of rows handed to Upsert.
	Input int `json:"input"`
	// NullKeys is the number of rows dropped before staging for a null primary key column.
	NullKeys int `json:"null_keys"`
	// Staged is the number of distinct-key rows copied into staging.
	Staged int `json:"staged"`
	// Loaded is the number of rows inserted or updated.
	Loaded int `json:"loaded"`
	// Skipped is Staged minus Loaded: rows whose foreign keys did not resolve.
	Skipped int `json:"skipped"`
}

type fkJoin struct {
	table string
	alias string
	on    string
}

// fkJoins lists, per fact table, the dimensions a staged row must resolve against.
var fkJoins = map[string][]fkJoin{
	TableFactPlayerStats: {
		{table: TableGames, alias: "g", on: "s.game_id = g.game_id"},
		{table: TablePlayers, alias: "p", on: "s.player_id = p.player_id"},
		{table: TableTeams, alias: "t", on: "s.team_id = t.id"},
	},
	TableFactTeamStats: {
		{table: TableGames, alias: "g", on: "s.game_id = g.game_id"},
		{table: TableTeams, alias: "t", on: "s.team_id = t.id"},
	},
	TableFactPlayByPlay: {
		{table: TableGames, alias: "g", on: "s.game_id = g.game_id"},
	},
	TableFactShots: {
		{table: TableGames, alias: "g", on: "s.game_id = g.game_id"},
		{table: TablePlayers, alias: "p", on: "s.player_id = p.player_id"},
	},
}

func stagingName(table string) string { return "_staging_" + table }

func buildStagingSQL(t Target) string {
	return fmt.Sprintf("CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s FROM %s WITH NO DATA",
		pq.QuoteIdentifier(stagingName(t.Table)),
		strings.Join(t.Columns, ", "),
		pq.QuoteIdentifier(t.Table))
}

// buildUpsertSQL renders the filtered insert-or-update from staging into the target.
func buildUpsertSQL(t Target) string {
	isKey := make(map[string]bool, len(t.PrimaryKey))
	for _, k := range t.PrimaryKey {
		isKey[k] = true
	}

	selectCols := make([]string, len(t.Columns))
	var updates []string
	for i, c := range t.Columns {
		selectCols[i] = "s." + c
		if !isKey[c] {
			updates = append(updates, c+" = EXCLUDED."+c)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) SELECT %s FROM %s s",
		pq.QuoteIdentifier(t.Table),
		strings.Join(t.Columns, ", "),
		strings.Join(selectCols, ", "),
		pq.QuoteIdentifier(stagingName(t.Table)))
	for _, j := range fkJoins[t.Table] {
		fmt.Fprintf(&b, " JOIN %s %s ON %s", pq.QuoteIdentifier(j.table), j.alias, j.on)
	}
	fmt.Fprintf(&b, " ON CONFLICT (%s)", strings.Join(t.PrimaryKey, ", "))
	if len(updates) == 0 {
		b.WriteString(" DO NOTHING")
	} else {
		b.WriteString(" DO UPDATE SET " + strings.Join(updates, ", "))
	}
	return b.String()
}

// prepareRows drops rows with a null key and de-duplicates on the key, the last row winning.
func prepareRows(t Target, rows [][]any) (kept [][]any, nullKeys int) {
	keyIdx := make([]int, 0, len(t.PrimaryKey))
	for _, k := range t.PrimaryKey {
		for i, c := range t.Columns {
			if c == k {
				keyIdx = append(keyIdx, i)
				break
			}
		}
	}

	pos := make(map[string]int, len(rows))
	kept = make([][]any, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, len(keyIdx))
		null := false
		for i, idx := range keyIdx {
			if row[idx] == nil {
				null = true
				break
			}
			parts[i] = fmt.Sprint(row[idx])
		}
		if null {
			nullKeys++
			continue
		}
		key := strings.Join(parts, "\x00")
		if at, ok := pos[key]; ok {
			kept[at] = row
			continue
		}
		pos[key] = len(kept)
		kept = append(kept, row)
	}
	return kept, nullKeys
}

// Upsert stages rows through COPY and merges them into t.Table in one transaction,
// dropping rows whose foreign keys do not resolve. Rows follow t.Columns order.
func (l *Loader) Upsert(ctx context.Context, t Target, rows [][]any) (LoadResult, error) {
	res := LoadResult{Table: t.Table, Input: len(rows)}
	if len(rows) == 0 {
		l.log.Warn("nothing to load", "table", t.Table)
		return res, nil
	}

	kept, nullKeys := prepareRows(t, rows)
	res.NullKeys = nullKeys
	res.Staged = len(kept)
	if nullKeys > 0 {
		l.log.Warn("rows dropped for null primary key", "table", t.Table, "rows", nullKeys)
	}
	if len(kept) == 0 {
		return res, nil
	}

	op := "upsert " + t.Table
	err := l.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, buildStagingSQL(t)); err != nil {
			return fmt.Errorf("create staging: %w", err)
		}
		if err := copyRows(ctx, tx, stagingName(t.Table), t.Columns, kept); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, buildUpsertSQL(t))
		if err != nil {
			return fmt.Errorf("merge staging: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		res.Loaded = int(affected)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return LoadResult{Table: t.Table, Input: len(rows)}, ctx.Err()
		}
		return LoadResult{Table: t.Table, Input: len(rows)}, etlerr.New(etlerr.Integrity, op, err)
	}

	res.Skipped = res.Staged - res.Loaded
	if res.Skipped > 0 {
		l.log.Warn("rows skipped, missing FK",
			"table", t.Table,
			"staged", res.Staged,
			"loaded", res.Loaded,
			"skipped", res.Skipped,
		)
	} else {
		l.log.Info("table loaded", "table", t.Table, "staged", res.Staged, "loaded", res.Loaded)
	}
	return res, nil
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("copy row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy: %w", err)
	}
	return nil
}
