package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crosssection/internal/config"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/pipeline"
)

const sampleChart = `{"name":"root","children":[{"name":"a","size":30},{"name":"b","size":70}]}`

// isolate points the config and cache directories at fresh temp dirs.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

// execute runs the root command and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeChart(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, _ = cacheDir()
	if want := filepath.Join("/tmp/xdg-cache", appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}

	c := New(io.Discard, LogInfo)
	c.Config.Cache.Dir = "/srv/cache"
	if dir, _ := c.cacheDir(); dir != "/srv/cache" {
		t.Errorf("CLI.cacheDir() with config = %q, want /srv/cache", dir)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,png", []string{"svg", "png"}},
		{" SVG , stl ,", []string{"svg", "stl"}},
	}

	for _, tt := range tests {
		if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseColors(t *testing.T) {
	got, err := parseColors([]string{"Europe=#4c78a8", "Asia=#f58518"})
	if err != nil {
		t.Fatalf("parseColors() error: %v", err)
	}
	if got["Europe"] != "#4c78a8" || got["Asia"] != "#f58518" {
		t.Errorf("parseColors() = %v", got)
	}

	for _, bad := range []string{"Europe", "=#fff", "Europe="} {
		if _, err := parseColors([]string{bad}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("parseColors(%q) error = %v, want INVALID_INPUT", bad, err)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input, format string
		multi                 bool
		want                  string
	}{
		{"", "data/sales.json", "svg", false, "data/sales.svg"},
		{"", "data/sales.yaml", "json", false, "data/sales.scene.json"},
		{"out.png", "sales.json", "png", false, "out.png"},
		{"out.svg", "sales.json", "stl", true, "out.stl"},
		{"out", "sales.json", "mesh", true, "out.mesh.json"},
	}

	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.format, tt.multi); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q", tt.output, tt.input, tt.format, tt.multi, got, tt.want)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config = &config.Config{Render: config.Render{
		Width:   600,
		Height:  300,
		Style:   "sunburst",
		Formats: []string{"png"},
		Colors:  map[string]string{"a": "#111111", "b": "#222222"},
	}}

	cmd := &cobra.Command{Use: "test"}
	flags := newRenderFlags()
	flags.bindLayout(cmd)
	flags.bindRender(cmd)
	if err := cmd.Flags().Parse([]string{"--width", "500", "--color", "b=#333333"}); err != nil {
		t.Fatal(err)
	}

	opts, err := c.resolve(cmd, flags)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if opts.Width != 500 {
		t.Errorf("Width = %v, want 500 (flag)", opts.Width)
	}
	if opts.Height != 300 {
		t.Errorf("Height = %v, want 300 (config)", opts.Height)
	}
	if opts.Style != "sunburst" {
		t.Errorf("Style = %q, want sunburst (config)", opts.Style)
	}
	if !reflect.DeepEqual(opts.Formats, []string{"png"}) {
		t.Errorf("Formats = %v, want [png] (config)", opts.Formats)
	}
	if opts.Colors["a"] != "#111111" || opts.Colors["b"] != "#333333" {
		t.Errorf("Colors = %v, want a from config and b from flag", opts.Colors)
	}
	if opts.ZeroPolicy != pipeline.DefaultZeroPolicy {
		t.Errorf("ZeroPolicy = %q, want %q (default)", opts.ZeroPolicy, pipeline.DefaultZeroPolicy)
	}
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"cache", "completion", "layout", "render", "serve", "tree", "watch"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Errorf("RootCommand() missing subcommand %q (have %v)", name, got)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	isolate(t)
	input := writeChart(t, "sales.json", sampleChart)
	base := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "render", input, "-f", "svg,json", "-o", base)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(out, "Render complete") {
		t.Errorf("output = %q, want success line", out)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("svg output does not contain <svg")
	}
	scene, err := os.ReadFile(base + ".scene.json")
	if err != nil {
		t.Fatalf("read scene: %v", err)
	}
	if !bytes.Contains(scene, []byte(`"outer_radius": 190`)) {
		t.Error("scene does not contain the outer radius 190")
	}
	if !bytes.Contains(svg, []byte(`class="legend"`)) {
		t.Error("svg output should carry a legend by default")
	}

	bare := filepath.Join(t.TempDir(), "bare.svg")
	if _, err := execute(t, "render", input, "--no-legend", "-o", bare); err != nil {
		t.Fatalf("render --no-legend error: %v", err)
	}
	data, err := os.ReadFile(bare)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if bytes.Contains(data, []byte(`class="legend"`)) {
		t.Error("--no-legend should omit the legend")
	}
}

func TestRenderCommandRejects(t *testing.T) {
	isolate(t)
	input := writeChart(t, "empty.json", `{"name":"root","size":0}`)
	_, err := execute(t, "render", input, "--no-cache")
	if !errors.Is(err, errors.ErrCodeAllZeros) {
		t.Errorf("render error = %v, want ALL_ZEROS", err)
	}

	input = writeChart(t, "sales.json", sampleChart)
	_, err = execute(t, "render", input, "--width", "20")
	if !errors.Is(err, errors.ErrCodeContainerTooSmall) {
		t.Errorf("render error = %v, want CONTAINER_TOO_SMALL", err)
	}

	_, err = execute(t, "render", input, "-f", "gif")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("render error = %v, want INVALID_FORMAT", err)
	}
}

func TestLayoutCommand(t *testing.T) {
	isolate(t)
	input := writeChart(t, "sales.yaml", "name: root\nchildren:\n  - name: north\n    size: 30\n  - name: south\n    size: 70\n")

	out, err := execute(t, "layout", input)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	for _, want := range []string{"north", "south", "57.00", "190.00", "30.0%", "70.0%", "fresh"} {
		if !strings.Contains(out, want) {
			t.Errorf("layout output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "layout", input)
	if err != nil {
		t.Fatalf("second layout error: %v", err)
	}
	if !strings.Contains(out, "cached") {
		t.Errorf("second layout output should report a cache hit:\n%s", out)
	}
}

func TestTreeCommand(t *testing.T) {
	isolate(t)
	input := writeChart(t, "sales.json", sampleChart)
	output := filepath.Join(t.TempDir(), "tree.dot")

	if _, err := execute(t, "tree", input, "-f", "dot", "-o", output, "--detailed"); err != nil {
		t.Fatalf("tree error: %v", err)
	}
	dot, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(dot, []byte("digraph")) {
		t.Errorf("tree output = %q, want a digraph", dot)
	}

	_, err = execute(t, "tree", input, "-f", "dot", "--chart", "3")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("tree --chart 3 error = %v, want INVALID_INPUT", err)
	}
}

func TestCacheCommands(t *testing.T) {
	isolate(t)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}

	out, err = execute(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("cache clear on empty cache = %q", out)
	}

	input := writeChart(t, "sales.json", sampleChart)
	if _, err := execute(t, "render", input, "-o", filepath.Join(t.TempDir(), "out.svg")); err != nil {
		t.Fatalf("render error: %v", err)
	}
	out, err = execute(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !regexp.MustCompile(`Cleared [1-9]\d* cached entries`).MatchString(out) {
		t.Errorf("cache clear after render = %q, want a non-zero count", out)
	}
}

func TestConfigFlag(t *testing.T) {
	isolate(t)
	_, err := execute(t, "cache", "path", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("--config missing error = %v, want FILE_NOT_FOUND", err)
	}

	path := writeChart(t, "config.toml", "[cache]\ndir = \"/srv/crosssection\"\n")
	out, err := execute(t, "cache", "path", "--config", path)
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if strings.TrimSpace(out) != "/srv/crosssection" {
		t.Errorf("cache path = %q, want /srv/crosssection", strings.TrimSpace(out))
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(out, appName) {
		t.Error("bash completion does not mention the command name")
	}
}

func TestRenderFromURL(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("name: root\nchildren:\n  - name: a\n    size: 1\n"))
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "remote.svg")
	if _, err := execute(t, "render", srv.URL+"/sales.yaml", "-o", output); err != nil {
		t.Fatalf("render URL error: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not written: %v", err)
	}
}
