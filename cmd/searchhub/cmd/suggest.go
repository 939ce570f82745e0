package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seiforesti/searchhub/internal/search"
	"github.com/seiforesti/searchhub/internal/ui"
)

// newSuggestCmd creates the suggest command.
func newSuggestCmd() *cobra.Command {
	var (
		callerID   string
		caps       []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "suggest [prefix]",
		Short: "Show query suggestions for a prefix",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := buildApp()
			if err != nil {
				return err
			}
			defer cleanup()

			prefix := strings.Join(args, " ")
			caller := search.Caller{
				ID:           callerID,
				Capabilities: capSet(caps),
			}
			candidates := app.suggest.Suggest(cmd.Context(), caller, prefix)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(candidates)
			}
			ui.NewRenderer(cmd.OutOrStdout()).Suggestions(candidates)
			return nil
		},
	}

	cmd.Flags().StringVar(&callerID, "caller", "cli", "Caller identity")
	cmd.Flags().StringSliceVar(&caps, "cap", nil, "Caller capability (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output suggestions as JSON")

	return cmd
}
