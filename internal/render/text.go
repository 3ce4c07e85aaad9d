package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

const floatDigits = 2

// TextRenderer writes one table of measures per component, followed by its issues.
type TextRenderer struct {
	opts Options
}

// Render implements Renderer.
func (r *TextRenderer) Render(w io.Writer, snap *measure.Snapshot) error {
	view := Visible(snap, r.opts)

	title := color.New(color.Bold)
	faint := color.New(color.Faint)

	if r.opts.NoColor {
		title.DisableColor()
		faint.DisableColor()
	}

	for i, cm := range view.Components {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return fmt.Errorf("write text: %w", err)
			}
		}

		_, err := fmt.Fprintf(w, "%s %s\n", title.Sprint(cm.Name), faint.Sprintf("[%s %s]", cm.Qualifier, cm.Key))
		if err != nil {
			return fmt.Errorf("write text: %w", err)
		}

		if len(cm.Measures) == 0 {
			if _, err = fmt.Fprintln(w, "  no measures"); err != nil {
				return fmt.Errorf("write text: %w", err)
			}

			continue
		}

		if _, err = fmt.Fprintln(w, r.measureTable(cm)); err != nil {
			return fmt.Errorf("write text: %w", err)
		}

		if len(cm.Issues) > 0 {
			if _, err = fmt.Fprintln(w, issueTable(cm.Issues)); err != nil {
				return fmt.Errorf("write text: %w", err)
			}
		}
	}

	return nil
}

func (r *TextRenderer) measureTable(cm measure.ComponentMeasures) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Key", "Value"})

	for _, e := range cm.Measures {
		tbl.AppendRow(table.Row{
			displayName(r.opts.Registry, e.Metric),
			e.Metric,
			FormatValue(r.opts.Registry, e.Metric, e.Value, r.opts.Currency),
		})
	}

	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})

	return tbl.Render()
}

func issueTable(issues []measure.Issue) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Rule", "Message", "Location"})

	for _, is := range issues {
		tbl.AppendRow(table.Row{is.RuleKey, is.Message, location(is)})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d issues", len(issues))})

	return tbl.Render()
}

func location(is measure.Issue) string {
	switch {
	case is.File == "":
		return ""
	case is.Line > 0:
		return is.File + ":" + strconv.Itoa(is.Line)
	default:
		return is.File
	}
}

// FormatValue formats v for display using the metric's value type.
// Integers get thousands separators, percentages a percent sign and the
// structural debt cost the currency.
func FormatValue(reg *metrics.Registry, key string, v measure.Value, currency string) string {
	if b, ok := v.BoolValue(); ok {
		if b {
			return "yes"
		}

		return "no"
	}

	if i, ok := v.Int64(); ok && v.Kind() == measure.KindInt {
		return humanize.Comma(i)
	}

	f, ok := v.Float64()
	if !ok {
		return v.String()
	}

	switch {
	case key == metrics.StructuralDebtCost:
		return humanize.CommafWithDigits(f, floatDigits) + " " + currency
	case valueType(reg, key) == metrics.ValuePercent:
		return strconv.FormatFloat(f, 'f', floatDigits, 64) + "%"
	default:
		return humanize.CommafWithDigits(f, floatDigits)
	}
}

func valueType(reg *metrics.Registry, key string) metrics.ValueType {
	if def, ok := reg.Get(key); ok {
		return def.ValueType
	}

	return ""
}
