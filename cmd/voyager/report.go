package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/voyager/internal/open"
	"github.com/Zuo-Peng/voyager/internal/report"
	"github.com/Zuo-Peng/voyager/internal/stats"
	"github.com/Zuo-Peng/voyager/internal/store"
)

func reportCmd() *cobra.Command {
	var pf pipelineFlags
	var out, title, fromDB string
	var openAfter bool

	cmd := &cobra.Command{
		Use:   "report [package]",
		Short: "Write an HTML dashboard for a Discord data package",
		Long:  `Analyzes the package and writes the dashboard. With --from-db the dashboard is drawn from a snapshot written by 'voyager export' and no package is read.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromDB != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, err := pf.setup(cmd)
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.ReportPath
			}

			var s *stats.Stats
			var source string
			if fromDB != "" {
				var meta store.Meta
				s, meta, err = store.Load(cmd.Context(), fromDB)
				if err != nil {
					return fmt.Errorf("read snapshot: %w", err)
				}
				source = meta.Source
			} else {
				source = args[0]
				res, err := runPipeline(cmd.Context(), cmd, source, opts)
				if err != nil {
					return err
				}
				reportWarnings(cmd.ErrOrStderr(), res)
				s = res.Stats
			}

			if title == "" {
				title = "Discord Data Package: " + filepath.Base(source)
			}
			if err := report.WriteFile(out, s, report.Options{Title: title}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", out)

			if openAfter {
				return open.Report(out)
			}
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output HTML file (default from config report_path)")
	cmd.Flags().StringVar(&title, "title", "", "Dashboard title")
	cmd.Flags().BoolVar(&openAfter, "open", false, "Open the report in the browser")
	cmd.Flags().StringVar(&fromDB, "from-db", "", "Draw the report from a SQLite snapshot instead of a package")

	return cmd
}
