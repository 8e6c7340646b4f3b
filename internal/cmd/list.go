package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aleksclark/crush-subagents/internal/resolver"
	"github.com/spf13/cobra"
)

func newListCmd(g *globalOptions) *cobra.Command {
	var model, dir string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every known subagent",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources := g.load(cmd.Context(), nil)
			r := resolver.New(sources, moduleDir(dir))
			results, err := r.ResolveAll(cmd.Context(), sources.Snapshot(cmd.Context()).IDs(), model)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tVARIANT\tSOURCES\tDESCRIPTION")
			for _, res := range results {
				names := make([]string, len(res.Sources))
				for i, s := range res.Sources {
					names[i] = s.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					res.ID,
					orDash(res.Profile.Model),
					orDash(res.VariantPattern),
					orDash(strings.Join(names, ",")),
					orDash(res.Profile.Description),
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model pattern used to select a variant")
	cmd.Flags().StringVar(&dir, "module-dir", "", "Directory the packaged prompts are searched from")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
