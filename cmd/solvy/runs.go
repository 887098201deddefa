package main

import (
	"fmt"

	"github.com/HendryAvila/solvy/internal/pipeline"
	"github.com/HendryAvila/solvy/internal/templates"
	"github.com/HendryAvila/solvy/internal/tools"
	"github.com/spf13/cobra"
)

func newRunsCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recent runs or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			runs := pipeline.NewFileStore(cfg.Memory.DataDir)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := runs.Load(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, tools.FormatRun(run))
				return err
			}

			list, err := runs.List()
			if err != nil {
				return err
			}
			if limit > 0 && len(list) > limit {
				list = list[:limit]
			}
			renderer, err := templates.NewRenderer()
			if err != nil {
				return err
			}
			text, err := renderer.Render(templates.Runs, tools.RunsData(list))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, text)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "max runs to list")
	return cmd
}
