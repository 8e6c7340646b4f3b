package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/aleksclark/crush-subagents/internal/config"
	"github.com/aleksclark/crush-subagents/internal/prompt"
	"github.com/aleksclark/crush-subagents/internal/resolver"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

type resolveOptions struct {
	model        string
	moduleDir    string
	format       string
	all          bool
	expandPrompt bool
	set          []string
}

func newResolveCmd(g *globalOptions) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve [id...]",
		Short: "Resolve the profile of one or more subagents",
		Long: heredoc.Doc(`
			Resolve the effective profile of the given subagents.

			With a single id the profile is printed as an object, otherwise as a
			list in the order the ids were given.
		`),
		Example: heredoc.Doc(`
			# Resolve with a variant selected for the model
			crush-subagents resolve general --model anthropic/claude-sonnet-4

			# Override the model for this run only
			crush-subagents resolve review --set review.model=openai/gpt-5:high

			# Replace a list field with a JSON value
			crush-subagents resolve plan --set 'plan.whenToUse=["Before large refactors"]'
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.NewMemorySettings()
			if err := applySettings(settings, opts.set); err != nil {
				return err
			}
			sources := g.load(cmd.Context(), settings)

			ids := args
			if opts.all {
				ids = sources.Snapshot(cmd.Context()).IDs()
			}
			if len(ids) == 0 {
				return errors.New("no subagent given: pass one or more ids or --all")
			}

			r := resolver.New(sources, moduleDir(opts.moduleDir))
			results, err := r.ResolveAll(cmd.Context(), ids, opts.model)
			if err != nil {
				return err
			}

			if opts.expandPrompt {
				for i := range results {
					text, err := prompt.Expand(results[i].Profile.Prompt, g.workDir)
					if err != nil {
						return fmt.Errorf("failed to expand prompt of %s: %w", results[i].ID, err)
					}
					results[i].Profile.Prompt = text
				}
			}

			if len(args) == 1 && !opts.all {
				return writeFormatted(cmd.OutOrStdout(), opts.format, results[0])
			}
			return writeFormatted(cmd.OutOrStdout(), opts.format, results)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.model, "model", "m", "", "Model pattern used to select a variant, e.g. openai/gpt-5")
	flags.StringVar(&opts.moduleDir, "module-dir", "", "Directory the packaged prompts are searched from (default: executable directory)")
	flags.StringVarP(&opts.format, "format", "f", formatJSON, "Output format (json|yaml)")
	flags.BoolVarP(&opts.all, "all", "a", false, "Resolve every known subagent")
	flags.BoolVar(&opts.expandPrompt, "expand-prompt", false, "Replace prompt file references with the file contents")
	flags.StringArrayVar(&opts.set, "set", nil, "Runtime override as <id>.<field>=<value>; JSON arrays, objects and strings are stored as-is")
	return cmd
}

// applySettings stores each <id>.<field>=<value> assignment in settings.
// JSON arrays, objects and strings are stored raw, anything else as a
// string, so true or 123 stay text.
func applySettings(settings *config.MemorySettings, assignments []string) error {
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		id, field, hasField := strings.Cut(key, ".")
		id = strings.TrimSpace(id)
		if !ok || !hasField || id == "" || field == "" {
			return fmt.Errorf("invalid setting %q: expected <id>.<field>=<value>", a)
		}

		var err error
		if isRawJSON(value) {
			err = settings.SetRaw(id, field, []byte(value))
		} else {
			err = settings.Set(id, field, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func isRawJSON(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || !strings.ContainsAny(trimmed[:1], `[{"`) {
		return false
	}
	return gjson.Valid(trimmed)
}

func moduleDir(dir string) string {
	if dir != "" {
		return dir
	}
	return prompt.ModuleDir()
}
