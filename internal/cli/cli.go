// Package cli implements the crosssection command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crosssection/internal/config"
	"github.com/matzehuels/crosssection/pkg/buildinfo"
	"github.com/matzehuels/crosssection/pkg/cache"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
	"github.com/matzehuels/crosssection/pkg/httputil"
	cio "github.com/matzehuels/crosssection/pkg/io"
	"github.com/matzehuels/crosssection/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "crosssection"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config holds the file defaults; it is loaded before any command runs.
	Config *config.Config

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: &config.Config{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Crosssection draws hierarchical data as stacked disk slices",
		Long: `Crosssection turns nested groups with numeric sizes into concentric
annular segments: each level of the hierarchy becomes a ring, and each
group takes a share of its parent's ring proportional to its size.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd.Flags().Changed("config"))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/crosssection/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file. An explicitly named file must exist.
func (c *CLI) loadConfig(explicit bool) error {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath(appName)
		if err != nil {
			c.Logger.Debug("no config directory", "err", err)
			return nil
		}
		path = p
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	store, err := c.newCache()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, cache.NewScopedKeyer(nil, buildinfo.CacheScope()), c.Logger), nil
}

func (c *CLI) newCache() (cache.Cache, error) {
	if c.noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// readDocument loads a chart document from a file or an http(s) URL. It
// also returns the local name used to derive output paths: the file path,
// or the last element of the URL path.
func (c *CLI) readDocument(ctx context.Context, input string) (hierarchy.Document, string, error) {
	if !httputil.IsURL(input) {
		doc, err := cio.ReadFile(input)
		if err != nil {
			return doc, input, fmt.Errorf("load %s: %w", input, err)
		}
		return doc, input, nil
	}

	store, err := c.newCache()
	if err != nil {
		return hierarchy.Document{}, "", err
	}
	defer store.Close()

	name := httputil.Name(input)
	data, err := httputil.NewClient(store, httputil.DefaultTTL).Get(ctx, input)
	if err != nil {
		return hierarchy.Document{}, name, fmt.Errorf("fetch %s: %w", input, err)
	}
	c.Logger.Debug("fetched document", "url", input, "bytes", len(data))
	doc, err := cio.ReadBytes(data, cio.FormatFromPath(name))
	if err != nil {
		return doc, name, fmt.Errorf("load %s: %w", input, err)
	}
	return doc, name, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config != nil && c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/crosssection/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderFlags are the flags shared by commands that lay out and render a
// document.
type renderFlags struct {
	output  string
	formats string
	colors  []string
	opts    pipeline.Options
}

func newRenderFlags() *renderFlags {
	f := &renderFlags{}
	f.opts.SetLayoutDefaults()
	f.opts.SetRenderDefaults()
	f.formats = strings.Join(f.opts.Formats, ",")
	f.opts.Formats = nil
	return f
}

// bindLayout registers the layout flags on cmd.
func (f *renderFlags) bindLayout(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.opts.Width, "width", f.opts.Width, "surface width")
	cmd.Flags().Float64Var(&f.opts.Height, "height", f.opts.Height, "surface height")
	cmd.Flags().BoolVar(&f.opts.Donut, "donut", f.opts.Donut, "leave a hole in the middle")
	cmd.Flags().Float64Var(&f.opts.DonutHole, "donut-hole", f.opts.DonutHole, "hole radius as a fraction of the outer radius")
	cmd.Flags().Float64Var(&f.opts.MarginFactor, "margin", f.opts.MarginFactor, "fraction of the half-extent kept free")
	cmd.Flags().StringVar(&f.opts.ZeroPolicy, "zero-policy", f.opts.ZeroPolicy, "zero-sum subtrees: zero-width (default), skip, error")
	cmd.Flags().StringArrayVar(&f.colors, "color", nil, "color override name=#rrggbb (repeatable)")
}

// bindRender registers the render flags on cmd.
func (f *renderFlags) bindRender(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", f.formats, "output format(s): svg (default), png, pdf, json, x3d, stl, mesh (comma-separated)")
	cmd.Flags().StringVar(&f.opts.Style, "style", f.opts.Style, "page style: disk (default), sunburst")
	cmd.Flags().IntVar(&f.opts.Columns, "columns", f.opts.Columns, "charts per row")
	cmd.Flags().BoolVar(&f.opts.HideTooltips, "no-tooltips", f.opts.HideTooltips, "omit SVG tooltips")
	cmd.Flags().BoolVar(&f.opts.HideLegend, "no-legend", f.opts.HideLegend, "omit the name and color legend")
	cmd.Flags().Float64Var(&f.opts.Scale, "scale", f.opts.Scale, "PNG pixel scale")
	cmd.Flags().BoolVar(&f.opts.Refresh, "refresh", false, "recompute even if cached")
}

// resolve merges flags and config file into pipeline options. A flag set
// on the command line wins over the file; the file wins over the flag
// default.
func (c *CLI) resolve(cmd *cobra.Command, f *renderFlags) (pipeline.Options, error) {
	opts := f.opts
	r := c.Config.Render
	set := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if r.Width > 0 && !set("width") {
		opts.Width = r.Width
	}
	if r.Height > 0 && !set("height") {
		opts.Height = r.Height
	}
	if r.Donut && !set("donut") {
		opts.Donut = true
	}
	if r.DonutHole > 0 && !set("donut-hole") {
		opts.DonutHole = r.DonutHole
	}
	if r.MarginFactor > 0 && !set("margin") {
		opts.MarginFactor = r.MarginFactor
	}
	if r.ZeroPolicy != "" && !set("zero-policy") {
		opts.ZeroPolicy = r.ZeroPolicy
	}
	if r.Style != "" && !set("style") {
		opts.Style = r.Style
	}
	if r.Columns > 0 && !set("columns") {
		opts.Columns = r.Columns
	}
	if r.Scale > 0 && !set("scale") {
		opts.Scale = r.Scale
	}
	formats := f.formats
	if len(r.Formats) > 0 && !set("format") {
		formats = strings.Join(r.Formats, ",")
	}
	opts.Formats = parseFormats(formats)

	colors, err := parseColors(f.colors)
	if err != nil {
		return opts, err
	}
	if len(r.Colors) > 0 || len(colors) > 0 {
		merged := make(map[string]string, len(r.Colors)+len(colors))
		for k, v := range r.Colors {
			merged[k] = v
		}
		for k, v := range colors {
			merged[k] = v
		}
		opts.Colors = merged
	}
	opts.Logger = c.Logger
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// parseColors parses name=#hex pairs.
func parseColors(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, hex, ok := strings.Cut(p, "=")
		if !ok || name == "" || hex == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid color %q (want name=#rrggbb)", p)
		}
		out[name] = hex
	}
	return out, nil
}

// outputPath derives the path for format from the output flag and the
// input file.
func outputPath(output, input, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	return basePath(output, input) + "." + extension(format)
}

// basePath strips a known format extension from output, or derives the
// base from input.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, ok := pipeline.ContentTypes[strings.TrimPrefix(ext, ".")]; ok {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func extension(format string) string {
	switch format {
	case pipeline.FormatMesh:
		return "mesh.json"
	case pipeline.FormatJSON:
		return "scene.json"
	default:
		return format
	}
}

// writeArtifacts writes every artifact next to the input and reports the
// files written.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	multi := len(formats) > 1
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			return paths, fmt.Errorf("missing %s output", format)
		}
		path := outputPath(output, input, format, multi)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
