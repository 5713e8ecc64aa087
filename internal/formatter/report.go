package formatter

import (
	"fmt"
	"strings"
	"time"

	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
	"favfetch/pkg/metadata"
)

// maxDetail bounds the error text shown per row, in runes.
const maxDetail = 120

// Report describes one finished pipeline run.
type Report struct {
	GeneratedAt time.Time
	RunID       string
	Source      string
	Output      string
	Outcomes    []pipeline.Outcome
	Stats       pipeline.Stats
}

// Markdown renders the report body: a heading, a summary line and one table
// row per query.
func (r Report) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s run\n\n", r.Source)

	if r.Output != "" {
		fmt.Fprintf(&sb, "Output: `%s`\n\n", r.Output)
	}

	s := r.Stats
	fmt.Fprintf(&sb, "Total %d, succeeded %d (degraded %d), not found %d, skipped %d, failed %d in %s.\n\n",
		s.Total, s.Succeeded, s.Degraded, s.NotFound, s.Skipped, s.Failed, s.Elapsed.Round(time.Millisecond))

	rows := make([][]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		rows = append(rows, []string{o.Query, string(o.Status), string(o.Stage), detail(o)})
	}

	sb.WriteString(Table([]string{"Query", "Status", "Stage", "Detail"}, rows))
	sb.WriteString("\n")

	return sb.String()
}

// Signed renders the report and appends a metadata block that
// metadata.Verify accepts.
func (r Report) Signed() string {
	return metadata.Sign(r.Markdown(), metadata.Metadata{
		GeneratedAt: r.GeneratedAt,
		RunID:       r.RunID,
		Source:      r.Source,
	})
}

func detail(o pipeline.Outcome) string {
	if o.Err != nil {
		return normalizer.Truncate(normalizer.NormalizeWhitespace(o.Err.Error()), maxDetail)
	}

	if o.ID != "" {
		return "id " + o.ID
	}

	return ""
}
