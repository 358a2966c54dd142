package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// subjectsPath points at a JSON file holding a []*selector.Subject pool
	// for the filter command. Not needed by match, which takes its
	// single subject from --subject instead.
	subjectsPath string

	// kind overrides the query's default rule kind for prefix-less atoms.
	kind string

	// output selects how results are rendered: "human" or "json".
	output string
)

// rootCmd is the selectorctl base command.
var rootCmd = &cobra.Command{
	Use:   "selectorctl",
	Short: "Evaluate selector queries against a subject pool",
	Long: `selectorctl parses and evaluates selector engine queries from the
command line, against a subject pool loaded from a JSON file.

Examples:
  # List every subject a query matches
  selectorctl filter 'web* and G@role:primary' --subjects pool.json

  # Evaluate a query against a single ad-hoc subject
  selectorctl match 'web*' --subject subject.json

  # Normalize a query to its canonical form
  selectorctl querify 'web* or web* or db*'
`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&kind, "kind", "k", "", "default rule kind for prefix-less atoms (default: glob)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "human", "output format: human, json")

	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(querifyCmd)
}
