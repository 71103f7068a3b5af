package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/voyager/internal/store"
)

func exportCmd() *cobra.Command {
	var pf pipelineFlags
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export <package>",
		Short: "Export the aggregate of a Discord data package to SQLite",
		Long: `Writes the final aggregate to a SQLite file (tables meta, totals, channels,
channel_names, years, hours, weekdays, words). An existing snapshot in the
file is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, opts, err := pf.setup(cmd)
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.DBPath
			}

			res, err := runPipeline(cmd.Context(), cmd, path, opts)
			if err != nil {
				return err
			}
			reportWarnings(cmd.ErrOrStderr(), res)

			meta := store.Meta{Source: path, Kind: res.Kind.String(), GeneratedAt: time.Now()}
			if err := store.Save(cmd.Context(), dbPath, res.Stats, meta); err != nil {
				return fmt.Errorf("export: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written to %s\n", dbPath)
			fmt.Fprintf(cmd.ErrOrStderr(), "Done. %s\n", res)
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file (default from config db_path)")

	return cmd
}
