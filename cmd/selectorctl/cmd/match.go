package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

var subjectPath string

var matchCmd = &cobra.Command{
	Use:   "match <query>",
	Short: "Evaluate a query against a single ad-hoc subject",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&subjectPath, "subject", "", "path to a JSON subject (required)")
	matchCmd.MarkFlagRequired("subject")
}

func runMatch(cmd *cobra.Command, args []string) error {
	subject, err := loadSubject(subjectPath)
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

	matched := rule.Match(cmd.Context(), opts, subject)

	if output == "json" {
		fmt.Fprintf(os.Stdout, `{"matched":%t}`+"\n", matched)
		return nil
	}
	if matched {
		fmt.Printf("%s matches\n", subjectLabel(subject))
	} else {
		fmt.Printf("%s does not match\n", subjectLabel(subject))
	}
	return nil
}
