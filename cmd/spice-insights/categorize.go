package main

import (
	"github.com/Veraticus/spice-insights/internal/cli"
	"github.com/Veraticus/spice-insights/internal/insights"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/spf13/cobra"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize [file]",
		Short: "Categorize a batch of transactions",
		Long: `Categorize every transaction of a {"transactions": [...]} body, read
from a file or from stdin when no file (or "-") is given. Output preserves
input order; records without an id are named txn-<index>.

Examples:
  spice-insights categorize batch.json
  cat batch.json | spice-insights categorize --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			engine, err := newEngine()
			if err != nil {
				return fail(cmd, err)
			}
			txns, err := readBatch(cmd, path)
			if err != nil {
				return fail(cmd, err)
			}

			result := engine.Categorizer().CategorizeBatch(txns)
			return emit(cmd, insights.CategorizedEnvelope(result), func(r *cli.Renderer) error {
				return r.Categorized(result)
			})
		},
	}
	return cmd
}

func keywordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keywords",
		Short: "List the effective keyword table",
		Long: `List the keywords per category, including extensions from
categorizer.keywords in the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := newEngine()
			if err != nil {
				return fail(cmd, err)
			}

			table := engine.Categorizer().Table()
			keywords := make(map[model.Category][]string)
			for _, c := range model.Categories() {
				if words := table.Keywords(c); len(words) > 0 {
					keywords[c] = words
				}
			}

			return emit(cmd, insights.KeywordsEnvelope(keywords), func(r *cli.Renderer) error {
				return r.Keywords(keywords)
			})
		},
	}
}
