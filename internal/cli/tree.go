package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crosssection/pkg/pipeline"
)

// treeCommand creates the tree command, which draws the annotated
// hierarchy of one chart as a node-link diagram.
func (c *CLI) treeCommand() *cobra.Command {
	flags := newRenderFlags()

	cmd := &cobra.Command{
		Use:   "tree [chart.json|yaml|toml]",
		Short: "Draw the annotated hierarchy of a chart with Graphviz",
		Long: `Draw the annotated hierarchy of a chart with Graphviz.

Useful to check what the ring layout is built from: with --detailed every
box shows the slice size, its share of the group and of the chart, and the
normalized band it occupies.

Formats: svg (default), pdf, dot, json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolve(cmd, flags)
			if err != nil {
				return err
			}
			opts.VizType = pipeline.VizTree
			return c.runTree(cmd.Context(), ui{w: cmd.OutOrStdout()}, args[0], flags.output, opts)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", flags.formats, "output format(s): svg (default), pdf, dot, json (comma-separated)")
	cmd.Flags().StringVar(&flags.opts.ZeroPolicy, "zero-policy", flags.opts.ZeroPolicy, "zero-sum subtrees: zero-width (default), skip, error")
	cmd.Flags().StringArrayVar(&flags.colors, "color", nil, "color override name=#rrggbb (repeatable)")
	cmd.Flags().BoolVar(&flags.opts.Detailed, "detailed", false, "show sizes, shares and bands")
	cmd.Flags().IntVar(&flags.opts.Chart, "chart", 0, "index of the chart to draw")
	cmd.Flags().BoolVar(&flags.opts.Refresh, "refresh", false, "recompute even if cached")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, out ui, input, output string, opts pipeline.Options) error {
	doc, name, err := c.readDocument(ctx, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Drew tree of %s", input))

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, name, output)
	if err != nil {
		return err
	}
	out.success("Tree complete")
	for _, path := range paths {
		out.file(path)
	}
	return nil
}
