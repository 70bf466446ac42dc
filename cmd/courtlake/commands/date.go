package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/gold"
	"github.com/fortuna/courtlake/internal/provider"
	"github.com/fortuna/courtlake/internal/silver"
)

var (
	ingestDims    bool
	transformDims bool
	loadDims      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <date>",
	Short: "Download one date's raw payloads into bronze",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := gameday.Parse(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		e, err := newEnv(ctx, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if ingestDims {
			for _, kind := range []provider.Kind{provider.KindTeamHistory, provider.KindPlayerList} {
				if err := e.bronze.PersistDimension(ctx, kind); err != nil {
					return fmt.Errorf("persist %s: %w", kind, err)
				}
			}
		}

		m, err := e.pipeline().IngestDate(ctx, date)
		if m != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d games in manifest\n", date, len(m.GameIDs))
		}
		return err
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform <date>",
	Short: "Convert one date's bronze payloads into silver partitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := gameday.Parse(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		e, err := newEnv(ctx, false)
		if err != nil {
			return err
		}
		defer e.Close()
		defer e.report.Log(e.log)

		if transformDims {
			if _, err := e.silver.ProcessPlayers(ctx); err != nil {
				return fmt.Errorf("transform players: %w", err)
			}
			if _, err := e.silver.ProcessTeams(ctx); err != nil {
				return fmt.Errorf("transform teams: %w", err)
			}
		}

		res, err := e.pipeline().TransformDate(ctx, date)
		if res != nil {
			printTransform(cmd.OutOrStdout(), res, e.report.Summary())
		}
		return err
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <date>",
	Short: "Upsert one date's silver partitions into the warehouse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := gameday.Parse(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		e, err := newEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.gold.InitSchema(ctx); err != nil {
			return err
		}
		if loadDims {
			dims, err := e.gold.LoadDimensions(ctx)
			if dims != nil {
				printLoad(cmd.OutOrStdout(), "dimensions", dims)
			}
			if err != nil {
				return err
			}
		}

		load, err := e.pipeline().LoadDate(ctx, date)
		if load != nil {
			printLoad(cmd.OutOrStdout(), date.String(), load)
		}
		return err
	},
}

func printTransform(w io.Writer, res *silver.DateResult, v silver.Summary) {
	fmt.Fprintf(w, "%s: %d games\n", res.Date, res.Games)
	datasets := make([]string, 0, len(res.Rows))
	for name := range res.Rows {
		datasets = append(datasets, name)
	}
	sort.Strings(datasets)
	for _, name := range datasets {
		fmt.Fprintf(w, "  %-12s %6d rows\n", name, res.Rows[name])
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skipped %s\n", s)
	}
	fmt.Fprintf(w, "validation: %d checked, %d passed, %d failed\n", v.Checked, v.Passed, v.Failed)
}

func printLoad(w io.Writer, label string, load *gold.Load) {
	fmt.Fprintf(w, "%s:\n", label)
	for _, r := range load.Results {
		fmt.Fprintf(w, "  %-18s staged=%d loaded=%d skipped(missing FK)=%d\n", r.Table, r.Staged, r.Loaded, r.Skipped)
	}
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDims, "dims", false, "also download team histories and the player list")
	transformCmd.Flags().BoolVar(&transformDims, "dims", false, "also rebuild the player and team dimensions")
	loadCmd.Flags().BoolVar(&loadDims, "dims", false, "also reload dimensions and team stats")
}
