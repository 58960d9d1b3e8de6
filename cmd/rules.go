package cmd

import (
	"fmt"

	"vigil/config"

	"github.com/spf13/cobra"
)

// NewRulesCmd creates the rules command for validating a rule file before
// deploying it.
func NewRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule files",
	}

	rulesCmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a rules YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := config.LoadRules(args[0])
			if err != nil {
				return err
			}

			enabled := 0
			for _, rule := range rules {
				if rule.Enabled {
					enabled++
				}
			}
			fmt.Printf("%s: %d rules (%d enabled)\n", args[0], len(rules), enabled)
			return nil
		},
	})

	return rulesCmd
}
