package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/voyager/internal/scan"
	"github.com/Zuo-Peng/voyager/internal/store"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
)

func status(w io.Writer, c *color.Color, label, format string, args ...any) {
	c.Fprintf(w, "  %-5s ", label)
	fmt.Fprintf(w, format+"\n", args...)
}

func doctorCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "doctor <package>",
		Short: "Self-check: verify package layout, channel index, and an exported snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, "=== Package ===")
			pkg, err := scan.Enumerate(args[0])
			if err != nil {
				status(w, failColor, "FAIL", "%v", err)
				return err
			}
			defer pkg.Close()

			fmt.Fprintf(w, "  Path: %s\n", pkg.Root)
			fmt.Fprintf(w, "  Kind: %s\n", pkg.Kind)
			if info, err := os.Stat(pkg.Root); err == nil && !info.IsDir() {
				fmt.Fprintf(w, "  Size: %s\n", humanize.Bytes(uint64(info.Size())))
			}

			fmt.Fprintln(w, "\n=== Channel Index ===")
			switch {
			case pkg.IndexErr != nil:
				status(w, warnColor, "WARN", "messages/index.json is malformed, names will show as Unknown: %v", pkg.IndexErr)
			case !pkg.HasIndex:
				status(w, warnColor, "WARN", "messages/index.json not found, names will show as Unknown")
			default:
				status(w, okColor, "OK", "%s channels indexed", humanize.Comma(int64(len(pkg.Index))))
			}

			fmt.Fprintln(w, "\n=== Message Logs ===")
			checkSources(w, pkg)

			if dbPath != "" {
				fmt.Fprintln(w, "\n=== Snapshot ===")
				checkSnapshot(cmd, w, dbPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Also verify a SQLite snapshot written by 'voyager export'")

	return cmd
}

func checkSources(w io.Writer, pkg *scan.Package) {
	if len(pkg.Sources) == 0 {
		status(w, warnColor, "WARN", "no messages/c<id>/messages.csv files")
		return
	}

	var size int64
	var unnamed []string
	seen := make(map[string]bool, len(pkg.Sources))
	for _, src := range pkg.Sources {
		size += src.Size
		seen[src.ChannelID] = true
		if pkg.Index[src.ChannelID] == "" {
			unnamed = append(unnamed, src.ChannelID)
		}
	}

	status(w, okColor, "OK", "%s message logs (%s)", humanize.Comma(int64(len(pkg.Sources))), humanize.Bytes(uint64(size)))

	named := len(pkg.Sources) - len(unnamed)
	if len(unnamed) == 0 {
		status(w, okColor, "OK", "all %s channels have a name", humanize.Comma(int64(named)))
	} else {
		shown := unnamed[:min(len(unnamed), 5)]
		more := ""
		if len(unnamed) > len(shown) {
			more = fmt.Sprintf(" and %d more", len(unnamed)-len(shown))
		}
		status(w, warnColor, "WARN", "%d named, %d without a name: %s%s", named, len(unnamed), strings.Join(shown, ", "), more)
	}

	var orphans []string
	for id := range pkg.Index {
		if !seen[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		sort.Strings(orphans)
		fmt.Fprintf(w, "  %d indexed channels have no message log (first: %s)\n", len(orphans), orphans[0])
	}
}

func checkSnapshot(cmd *cobra.Command, w io.Writer, dbPath string) {
	fmt.Fprintf(w, "  Path: %s\n", dbPath)
	// OpenDB would create a missing file.
	if _, err := os.Stat(dbPath); err != nil {
		status(w, failColor, "FAIL", "%v", err)
		return
	}
	db, err := store.OpenDB(dbPath)
	if err != nil {
		status(w, failColor, "FAIL", "%v", err)
		return
	}
	defer db.Close()

	var integrity string
	if err := db.Raw().QueryRowContext(cmd.Context(), "PRAGMA integrity_check").Scan(&integrity); err != nil {
		status(w, failColor, "FAIL", "integrity check: %v", err)
		return
	}
	if integrity != "ok" {
		status(w, failColor, "FAIL", "integrity check: %s", integrity)
		return
	}
	status(w, okColor, "OK", "integrity ok")

	s, meta, err := db.Load(cmd.Context())
	if err != nil {
		status(w, failColor, "FAIL", "%v", err)
		return
	}

	var channelSum int64
	for _, c := range s.Channels {
		channelSum += c.Count
	}
	fmt.Fprintf(w, "  Source:   %s (%s)\n", meta.Source, meta.Kind)
	if !meta.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "  Written:  %s\n", humanize.Time(meta.GeneratedAt))
	}
	fmt.Fprintf(w, "  Messages: %s\n", humanize.Comma(s.TotalMessages))
	fmt.Fprintf(w, "  Channels: %s\n", humanize.Comma(int64(len(s.Channels))))
	fmt.Fprintf(w, "  Words:    %s\n", humanize.Comma(int64(len(s.Words))))

	if channelSum == s.TotalMessages {
		status(w, okColor, "OK", "channel counts add up to the message total")
	} else {
		status(w, failColor, "FAIL", "channel counts sum to %d, total is %d", channelSum, s.TotalMessages)
	}
}
