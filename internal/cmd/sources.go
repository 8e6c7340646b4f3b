package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSourcesCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources [id]",
		Short: "Show which configuration sources were loaded",
		Long:  "Show the loaded-from report of every source, or the sources that configure a subagent.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := g.load(cmd.Context(), nil)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			if len(args) == 1 {
				fmt.Fprintln(w, "SOURCE")
				for _, s := range sources.Snapshot(cmd.Context()).ContributedTo(args[0]) {
					fmt.Fprintln(w, s)
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "SOURCE\tPATH\tSTATUS")
			for _, entry := range sources.Report() {
				status := "loaded"
				switch {
				case entry.Err != nil:
					status = "error: " + entry.Err.Error()
				case !entry.Loaded:
					status = "missing"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Source, orDash(entry.Path), status)
			}
			return w.Flush()
		},
	}
}
