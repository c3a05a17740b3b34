package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var analyzeEdit bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <prompt>",
	Short: "Show the parameters the optimizer picks for a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := a.withTimeout(cmd.Context())
		defer cancel()

		prompt := strings.Join(args, " ")
		enums := a.client.Enumerations()
		sizes := enums.GenerateSizes
		if analyzeEdit {
			sizes = enums.EditSizes
		}
		params := a.optimizer.AnalyzeFor(ctx, prompt, sizes)

		out := cmd.OutOrStdout()
		if jsonOut {
			return printJSON(out, params)
		}
		fmt.Fprintf(out, "size=%s quality=%s background=%s\n", params.Size, params.Quality, params.Background)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeEdit, "edit", false, "pick from edit sizes")
}
