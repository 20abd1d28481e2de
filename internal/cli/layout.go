package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/pipeline"
	"github.com/matzehuels/crosssection/pkg/render/sink"
)

// layoutCommand creates the layout command, which prints the computed
// segments instead of drawing them.
func (c *CLI) layoutCommand() *cobra.Command {
	flags := newRenderFlags()

	cmd := &cobra.Command{
		Use:   "layout [chart.json|yaml|toml]",
		Short: "Print the segments computed for a chart document",
		Long: `Print the segments computed for a chart document.

Each row is one ring segment: its depth, absolute inner and outer radius,
share of its siblings (group) and share of the whole chart (parent), and
the angular span it covers.

With -o the scene is also written as JSON (same format as 'render -f json').`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolve(cmd, flags)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), ui{w: cmd.OutOrStdout()}, args[0], flags.output, opts)
		},
	}

	flags.bindLayout(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the scene as JSON to this file")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, out ui, input, output string, opts pipeline.Options) error {
	doc, _, err := c.readDocument(ctx, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	scene, cached, err := runner.LayoutWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	for i, cs := range scene.Charts {
		if i > 0 {
			out.newline()
		}
		title := cs.Label
		if title == "" {
			title = fmt.Sprintf("chart %d", i+1)
		}
		fmt.Fprintln(out.w, StyleTitle.Render(title)+" "+StyleDim.Render(fmt.Sprintf("(%d levels)", cs.Levels)))
		fmt.Fprintln(out.w, segmentTable(cs))
	}
	out.newline()
	out.keyValue("bound", StyleNumber.Render(formatFloat(scene.Bound)))
	if scene.Donut {
		out.keyValue("hole", StyleNumber.Render(formatFloat(scene.Hole)))
	}
	out.stats(len(scene.Charts), len(scene.Segments()), cached)

	if output == "" {
		return nil
	}
	data, err := sink.RenderJSON(scene, sink.WithJSONStyle(opts.StyleValue()))
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	out.file(output)
	out.nextStep("Render", appName+" render "+input)
	return nil
}

// segmentTable renders the segments of one chart as a table.
func segmentTable(cs chart.ChartScene) string {
	rows := make([][]string, 0, len(cs.Segments))
	for i, seg := range cs.Segments {
		name := seg.Name()
		if seg.Depth > 1 {
			name = strings.Repeat("  ", seg.Depth-1) + name
		}
		var group, parent string
		if d := seg.Datum; d != nil {
			group = formatPercent(d.PercentOfGroup)
			parent = formatPercent(d.PercentOfParent)
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			name,
			strconv.Itoa(seg.Depth),
			formatFloat(seg.InnerRadius),
			formatFloat(seg.OuterRadius),
			group,
			parent,
			fmt.Sprintf("%s–%s", formatFloat(seg.Span.X0), formatFloat(seg.Span.X1)),
			seg.ColorKey,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("#", "Slice", "Depth", "Inner", "Outer", "Group", "Parent", "Span", "Color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
	return t.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}
