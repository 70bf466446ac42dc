package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logMode    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "courtlake",
	Short: "courtlake - NBA statistics ingestion engine",
	Long: `courtlake pulls NBA statistics from the upstream provider into a layered store:
raw JSON in bronze, validated Parquet partitions in silver, and a PostgreSQL star
schema in gold. The backfill command walks long date ranges resumably.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "dev or prod (default from config)")

	rootCmd.AddCommand(ingestCmd, transformCmd, loadCmd, backfillCmd)
}
