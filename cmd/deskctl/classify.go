package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xaenox/deskbot/internal/classifier"
)

func newClassifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Print the intent and entities detected in text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := classifier.NewRuleClassifier().Classify(strings.Join(args, " "))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(res)
		},
	}
}
