package commands

import (
	"fmt"
	"strings"

	"github.com/mhpenta/imagechat"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Show whether text reads as an image request",
	Long:  `Run the intent classifier locally. No provider is contacted.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		rule, verdict := imagechat.NewIntentClassifier(imagechat.DefaultIntentRules()...).Classify(text)
		if rule == "" {
			rule = "none"
		}

		out := cmd.OutOrStdout()
		if jsonOut {
			return printJSON(out, map[string]any{
				"text":    text,
				"verdict": verdict.String(),
				"rule":    rule,
			})
		}
		fmt.Fprintf(out, "%s (rule: %s)\n", verdict, rule)
		return nil
	},
}
