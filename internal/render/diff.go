package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
)

// DiffStats counts the changed lines of a snapshot diff.
type DiffStats struct {
	Added   int
	Removed int
}

// Changed reports whether the snapshots differ.
func (s DiffStats) Changed() bool { return s.Added+s.Removed > 0 }

// Diff writes a line diff between the listings of two snapshots. Each listing
// line holds one measure or issue of one component; unchanged lines are
// written only when unchanged is true.
func Diff(w io.Writer, before, after *measure.Snapshot, opts Options, unchanged bool) (DiffStats, error) {
	opts = opts.withDefaults()

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	if opts.NoColor {
		added.DisableColor()
		removed.DisableColor()
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(listing(before, opts), listing(after, opts))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var stats DiffStats

	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			line = strings.TrimSuffix(line, "\n")

			var err error

			switch d.Type {
			case diffmatchpatch.DiffInsert:
				stats.Added++
				_, err = added.Fprintln(w, "+ "+line)
			case diffmatchpatch.DiffDelete:
				stats.Removed++
				_, err = removed.Fprintln(w, "- "+line)
			case diffmatchpatch.DiffEqual:
				if unchanged {
					_, err = fmt.Fprintln(w, "  "+line)
				}
			}

			if err != nil {
				return stats, fmt.Errorf("write diff: %w", err)
			}
		}
	}

	return stats, nil
}

// listing flattens the visible snapshot into sorted, self-describing lines.
func listing(snap *measure.Snapshot, opts Options) string {
	var sb strings.Builder

	for _, cm := range Visible(snap, opts).Components {
		for _, e := range cm.Measures {
			fmt.Fprintf(&sb, "%s %s = %s\n", cm.Key, e.Metric, FormatValue(opts.Registry, e.Metric, e.Value, opts.Currency))
		}

		for _, is := range cm.Issues {
			fmt.Fprintf(&sb, "%s issue %s: %s", cm.Key, is.RuleKey, is.Message)

			if loc := location(is); loc != "" {
				fmt.Fprintf(&sb, " (%s)", loc)
			}

			sb.WriteString("\n")
		}
	}

	return sb.String()
}
