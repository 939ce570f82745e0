package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seiforesti/searchhub/configs"
)

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write starter configuration files",
		Long: `Init writes annotated configuration templates into the current
directory:

  config.yaml          main configuration
  sources.yaml         source registry with one entry per adapter kind
  seeds/glossary.json  seed documents for the example glossary source
  seeds/scans.json     seed documents for the example scan-results source

Edit sources.yaml to point at your real backends, then run
'searchhub serve'.`,
		Example: `  # Write templates into the current directory
  searchhub init

  # Overwrite existing files
  searchhub init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files := []struct {
				path    string
				content string
			}{
				{"config.yaml", configs.ConfigTemplate},
				{"sources.yaml", configs.RegistryTemplate},
				{filepath.Join("seeds", "glossary.json"), configs.GlossarySeedTemplate},
				{filepath.Join("seeds", "scans.json"), configs.ScansSeedTemplate},
			}

			for _, f := range files {
				if !force {
					if _, err := os.Stat(f.path); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", f.path)
					}
				}
				if dir := filepath.Dir(f.path); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return err
					}
				}
				if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", f.path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}
