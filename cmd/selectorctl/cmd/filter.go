package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

var includeUncertain bool

var filterCmd = &cobra.Command{
	Use:   "filter <query>",
	Short: "List every subject in the pool that the query matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&subjectsPath, "subjects", "s", "", "path to a JSON subject pool (required)")
	filterCmd.Flags().BoolVar(&includeUncertain, "include-uncertain", false, "also print subjects the query couldn't evaluate")
	filterCmd.MarkFlagRequired("subjects")
}

func runFilter(cmd *cobra.Command, args []string) error {
	subjects, err := loadSubjects(subjectsPath)
	if err != nil {
		return err
	}

	query := selector.NewDefaultQuery()
	rule, err := query.Parse(args[0], queryOptions()...)
	if err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}

	opts := selector.DefaultOptions()
	if kind != "" {
		opts.DefaultKind = kind
	}
	verdicts, err := rule.Filter(cmd.Context(), opts, subjects)
	if err != nil {
		return fmt.Errorf("evaluating query: %w", err)
	}

	var matched, uncertain []*selector.Subject
	for _, v := range verdicts {
		if v.Doubt {
			uncertain = append(uncertain, v.Subject)
			continue
		}
		matched = append(matched, v.Subject)
	}

	if output == "json" {
		result := map[string][]*selector.Subject{"matched": matched}
		if includeUncertain {
			result["uncertain"] = uncertain
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if err := printSubjects(matched); err != nil {
		return err
	}
	if includeUncertain && len(uncertain) > 0 {
		fmt.Println("--- uncertain ---")
		return printSubjects(uncertain)
	}
	return nil
}
