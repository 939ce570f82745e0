package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/seiforesti/searchhub/internal/registry"
	"github.com/seiforesti/searchhub/internal/search"
	"github.com/seiforesti/searchhub/internal/suggest"
)

// Renderer writes search output, styled when the writer is a TTY.
type Renderer struct {
	w      io.Writer
	styles Styles
}

// NewRenderer picks styled or plain output for the writer.
func NewRenderer(w io.Writer) *Renderer {
	styles := NoColorStyles()
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		styles = DefaultStyles()
	}
	return &Renderer{w: w, styles: styles}
}

// Response prints a full search response: results, facet summary, and
// the per-source status line.
func (r *Renderer) Response(resp *search.Response) {
	if resp.Status == search.SessionSuperseded {
		fmt.Fprintln(r.w, r.styles.Warning.Render("superseded by a newer query"))
		return
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(r.w, r.styles.Dim.Render("no results"))
	}
	for i, res := range resp.Results {
		r.result(i+1, res)
	}

	fmt.Fprintln(r.w)
	r.facets(resp.Facets)
	r.statuses(resp.Sources)
	fmt.Fprintf(r.w, "%s\n", r.styles.Dim.Render(
		fmt.Sprintf("%d results in %dms", resp.Total, resp.TookMs)))
}

func (r *Renderer) result(rank int, res *search.NormalizedResult) {
	fmt.Fprintf(r.w, "%2d. %s  %s %s\n",
		rank,
		r.styles.Title.Render(res.Title),
		r.styles.Source.Render("["+res.SourceID+"]"),
		r.styles.Score.Render(fmt.Sprintf("%.3f", res.CompositeScore)))
	if res.Description != "" {
		fmt.Fprintf(r.w, "    %s\n", r.styles.Snippet.Render(truncate(res.Description, 120)))
	}
	if res.URL != "" {
		fmt.Fprintf(r.w, "    %s\n", r.styles.URL.Render(res.URL))
	}
}

func (r *Renderer) facets(facets search.Facets) {
	groups := make([]string, 0, len(facets))
	for g := range facets {
		if len(facets[g]) > 0 {
			groups = append(groups, g)
		}
	}
	sort.Strings(groups)

	for _, g := range groups {
		values := facets[g]
		names := make([]string, 0, len(values))
		for v := range values {
			names = append(names, v)
		}
		sort.Slice(names, func(i, j int) bool {
			if values[names[i]] != values[names[j]] {
				return values[names[i]] > values[names[j]]
			}
			return names[i] < names[j]
		})

		parts := make([]string, 0, len(names))
		for _, v := range names {
			parts = append(parts, fmt.Sprintf("%s(%d)", v, values[v]))
		}
		fmt.Fprintf(r.w, "%s %s\n",
			r.styles.FacetKey.Render(g+":"),
			strings.Join(parts, " "))
	}
}

func (r *Renderer) statuses(statuses []search.SourceStatus) {
	var parts []string
	for _, st := range statuses {
		label := st.SourceID
		switch st.Status {
		case search.StatusOK:
			label += " ok"
		case search.StatusTimeout:
			label = r.styles.Warning.Render(label + " timeout")
		case search.StatusSkipped:
			label = r.styles.Dim.Render(label + " skipped")
		case search.StatusCancelled:
			label = r.styles.Dim.Render(label + " cancelled")
		default:
			label = r.styles.Error.Render(label + " error")
		}
		parts = append(parts, label)
	}
	if len(parts) > 0 {
		fmt.Fprintf(r.w, "%s %s\n",
			r.styles.FacetKey.Render("sources:"),
			strings.Join(parts, "  "))
	}
}

// Suggestions prints a ranked suggestion list with origins.
func (r *Renderer) Suggestions(candidates []suggest.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(r.w, r.styles.Dim.Render("no suggestions"))
		return
	}
	for _, c := range candidates {
		fmt.Fprintf(r.w, "%s  %s\n",
			r.styles.Title.Render(c.Text),
			r.styles.Dim.Render("("+string(c.Origin)+")"))
	}
}

// Sources prints the registry listing.
func (r *Renderer) Sources(descs []registry.SourceDescriptor) {
	for _, d := range descs {
		access := d.AccessRequirement
		if access == "" {
			access = "public"
		}
		fmt.Fprintf(r.w, "%-16s %s  %s\n",
			r.styles.Title.Render(d.ID),
			r.styles.Snippet.Render(d.DisplayName),
			r.styles.Dim.Render(access))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
