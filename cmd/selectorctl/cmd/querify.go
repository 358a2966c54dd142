package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

var querifyCmd = &cobra.Command{
	Use:   "querify <query>",
	Short: "Print the canonical re-serialization of a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuerify,
}

func runQuerify(cmd *cobra.Command, args []string) error {
	query := selector.NewDefaultQuery()
	opts := queryOptions()

	rule, err := query.Parse(args[0], opts...)
	if err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}

	canonical, err := query.Querify(rule, opts...)
	if err != nil {
		return fmt.Errorf("serializing query: %w", err)
	}

	fmt.Println(canonical)
	return nil
}
