package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/voyager/internal/analyze"
	"github.com/Zuo-Peng/voyager/internal/render"
	"github.com/Zuo-Peng/voyager/internal/report"
	"github.com/Zuo-Peng/voyager/internal/stats"
	"github.com/Zuo-Peng/voyager/internal/store"
	"github.com/Zuo-Peng/voyager/internal/tui"
)

// jsonResult is the --json document.
type jsonResult struct {
	Source        string            `json:"source"`
	Kind          string            `json:"kind"`
	Sources       int               `json:"sources"`
	SkippedRows   int               `json:"skippedRows"`
	FailedSources []jsonFailure     `json:"failedSources"`
	IndexError    string            `json:"indexError,omitempty"`
	DurationMS    int64             `json:"durationMs"`
	Stats         *stats.Stats      `json:"stats"`
	TopWords      []stats.WordCount `json:"topWords"`
}

type jsonFailure struct {
	Channel string `json:"channel"`
	Path    string `json:"path"`
	Error   string `json:"error"`
}

func newJSONResult(path string, res *analyze.Result) jsonResult {
	out := jsonResult{
		Source:        path,
		Kind:          res.Kind.String(),
		Sources:       res.Sources,
		SkippedRows:   res.SkippedRows,
		FailedSources: []jsonFailure{},
		DurationMS:    res.Duration.Milliseconds(),
		Stats:         res.Stats,
		TopWords:      stats.TopWords(res.Stats.Words, 0),
	}
	if res.IndexErr != nil {
		out.IndexError = res.IndexErr.Error()
	}
	for _, f := range res.FailedSources {
		out.FailedSources = append(out.FailedSources, jsonFailure{Channel: f.ChannelID, Path: f.Path, Error: f.Err.Error()})
	}
	return out
}

func analyzeCmd() *cobra.Command {
	var pf pipelineFlags
	var asJSON, interactive bool
	var htmlPath, dbPath, filter string
	var limit int

	cmd := &cobra.Command{
		Use:   "analyze <package>",
		Short: "Aggregate a Discord data package and print the statistics",
		Long: `Reads every messages/c<id>/messages.csv in a Discord data package (.zip or
extracted folder), resolves channel names from messages/index.json and prints
totals, top channels, activity by year, weekday and hour, and the top words.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			_, opts, err := pf.setup(cmd)
			if err != nil {
				return err
			}

			res, err := runPipeline(cmd.Context(), cmd, path, opts)
			if err != nil {
				return err
			}
			reportWarnings(cmd.ErrOrStderr(), res)

			if htmlPath != "" {
				if err := report.WriteFile(htmlPath, res.Stats, report.Options{}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", htmlPath)
			}
			if dbPath != "" {
				meta := store.Meta{Source: path, Kind: res.Kind.String(), GeneratedAt: time.Now()}
				if err := store.Save(cmd.Context(), dbPath, res.Stats, meta); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot written to %s\n", dbPath)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newJSONResult(path, res))
			}

			if interactive && isTerminal(cmd.OutOrStdout()) {
				return tui.Browse(res.Stats, "Voyager")
			}

			fmt.Fprint(cmd.OutOrStdout(), render.All(res.Stats, render.Options{
				Color:  isTerminal(cmd.OutOrStdout()),
				Filter: filter,
				Limit:  limit,
			}))
			fmt.Fprintf(cmd.ErrOrStderr(), "Done. %s\n", res)
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the aggregate as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Open the interactive browser after analysis")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write the HTML dashboard to this file")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also export a SQLite snapshot to this file")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show channels and words containing this text")
	cmd.Flags().IntVar(&limit, "limit", 0, "Rows per ranked section (0 = default)")

	return cmd
}
