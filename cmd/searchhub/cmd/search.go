package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seiforesti/searchhub/internal/search"
	"github.com/seiforesti/searchhub/internal/ui"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var (
		sourcesFlag []string
		filterFlag  []string
		sortFlag    string
		limit       int
		offset      int
		callerID    string
		caps        []string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search across all accessible sources",
		Long: `Search runs one federated query and prints the ranked result page.

Filters take the form group=value (e.g. --filter category=policy) and
may repeat; repeated values in the same group widen the match, filters
in different groups narrow it.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := buildApp()
			if err != nil {
				return err
			}
			defer cleanup()

			filters, err := parseFilters(filterFlag)
			if err != nil {
				return err
			}

			q := search.Query{
				Text:        strings.Join(args, " "),
				Filters:     filters,
				SourceScope: sourcesFlag,
				SortMode:    search.SortMode(sortFlag),
				Limit:       limit,
				Offset:      offset,
			}
			caller := search.Caller{
				ID:           callerID,
				Capabilities: capSet(caps),
			}

			resp, err := app.sessions.Search(cmd.Context(), q, caller)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			ui.NewRenderer(cmd.OutOrStdout()).Response(resp)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sourcesFlag, "source", nil, "Restrict to specific source ids (repeatable)")
	cmd.Flags().StringArrayVar(&filterFlag, "filter", nil, "Facet filter group=value (repeatable)")
	cmd.Flags().StringVar(&sortFlag, "sort", "relevance", "Sort mode: relevance, recency, popularity")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (0 = configured default)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	cmd.Flags().StringVar(&callerID, "caller", "cli", "Caller identity")
	cmd.Flags().StringSliceVar(&caps, "cap", nil, "Caller capability (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func parseFilters(raw []string) (map[string][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(map[string][]string)
	for _, f := range raw {
		group, value, ok := strings.Cut(f, "=")
		if !ok || group == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q: expected group=value", f)
		}
		filters[group] = append(filters[group], value)
	}
	return filters, nil
}

func capSet(caps []string) map[string]bool {
	m := make(map[string]bool, len(caps))
	for _, c := range caps {
		if c = strings.TrimSpace(c); c != "" {
			m[c] = true
		}
	}
	return m
}
