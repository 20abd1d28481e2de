package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crosssection/pkg/pipeline"
)

// renderCommand creates the render command: document in, chart files out.
func (c *CLI) renderCommand() *cobra.Command {
	flags := newRenderFlags()

	cmd := &cobra.Command{
		Use:   "render [chart.json|yaml|toml]",
		Short: "Render a chart document to SVG, PNG, PDF, JSON, X3D, STL or mesh",
		Long: `Render a chart document.

The document holds one tree of slices, or a list of charts each with a
label and a tree. It is read from a file (JSON, YAML or TOML, by
extension) or fetched from an http(s) URL. Every chart is laid out as concentric rings on a surface
of --width x --height and written in each requested format.

Formats:
  svg    vector page, one disk per chart, with tooltips and a legend
  png    raster page with a legend
  pdf    vector page (needs rsvg-convert)
  json   scene with every segment's radii and span
  x3d    hemisphere scene
  stl    extruded disks for printing
  mesh   extruded disks as indexed triangles (JSON)

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolve(cmd, flags)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), ui{w: cmd.OutOrStdout()}, args[0], flags.output, opts)
		},
	}

	flags.bindLayout(cmd)
	flags.bindRender(cmd)

	return cmd
}

// runRender loads the document, runs the pipeline and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, out ui, input, output string, opts pipeline.Options) error {
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
	p.done(fmt.Sprintf("Rendered %s", input))

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, name, output)
	if err != nil {
		return err
	}

	out.success("Render complete")
	for _, path := range paths {
		out.file(path)
	}
	out.stats(result.Stats.Charts, result.Stats.Segments, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}
