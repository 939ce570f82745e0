package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/seiforesti/searchhub/internal/ui"
)

// newSourcesCmd creates the sources command.
func newSourcesCmd() *cobra.Command {
	var (
		caps       []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List registered sources",
		Long: `Sources lists the registry. With --cap flags the listing narrows to
what a caller holding those capabilities could search.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := buildApp()
			if err != nil {
				return err
			}
			defer cleanup()

			descs := app.registry.All()
			if len(caps) > 0 {
				descs = app.registry.Accessible(capSet(caps))
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(descs)
			}
			ui.NewRenderer(cmd.OutOrStdout()).Sources(descs)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&caps, "cap", nil, "Show only sources accessible with these capabilities")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output sources as JSON")

	return cmd
}
