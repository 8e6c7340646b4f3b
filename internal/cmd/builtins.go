package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aleksclark/crush-subagents/internal/prompt"
	"github.com/spf13/cobra"
)

func newBuiltinsCmd() *cobra.Command {
	var model, dir string
	cmd := &cobra.Command{
		Use:   "builtins",
		Short: "List built-in subagents and their packaged prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module := moduleDir(dir)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILE\tVARIANTS\tPROMPT")
			for _, b := range prompt.BuiltIns() {
				variants := make([]string, len(b.Variants))
				for i, v := range b.Variants {
					variants[i] = v.Pattern + "=" + v.File
				}
				ref, ok := prompt.ResolveBuiltIn(b.ID, model, module)
				if !ok {
					ref = "not found"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					b.ID,
					b.FileFor(model),
					orDash(strings.Join(variants, " ")),
					ref,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model pattern used to select a prompt variant")
	cmd.Flags().StringVar(&dir, "module-dir", "", "Directory the packaged prompts are searched from")
	return cmd
}
