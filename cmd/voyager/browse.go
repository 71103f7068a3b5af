package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/voyager/internal/tui"
)

func browseCmd() *cobra.Command {
	var pf pipelineFlags

	cmd := &cobra.Command{
		Use:   "browse <package>",
		Short: "Analyze a Discord data package and explore it interactively",
		Long:  `Runs the analysis with a progress bar, then opens a two-panel browser: sections on the left, the selected section on the right. Type to filter channels and words.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !isTerminal(cmd.OutOrStdout()) {
				return errors.New("browse needs a terminal; use 'voyager analyze' for plain output")
			}

			_, opts, err := pf.setup(cmd)
			if err != nil {
				return err
			}

			res, err := runPipeline(cmd.Context(), cmd, path, opts)
			if err != nil {
				return err
			}
			reportWarnings(cmd.ErrOrStderr(), res)

			return tui.Browse(res.Stats, "Voyager: "+filepath.Base(path))
		},
	}

	pf.register(cmd)
	return cmd
}
