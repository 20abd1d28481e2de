package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/httputil"
)

// defaultDebounce is how long watch waits for more writes before
// re-rendering. Editors often write a file in several steps.
const defaultDebounce = 200 * time.Millisecond

// watchCommand creates the watch command, which re-renders a document
// every time it changes.
func (c *CLI) watchCommand() *cobra.Command {
	flags := newRenderFlags()
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [chart.json|yaml|toml]",
		Short: "Re-render a chart document whenever it changes",
		Long: `Re-render a chart document whenever it changes.

Takes the same flags as 'render'. A failed render (for example a document
that is all zeros while you are editing it) is reported and watching
continues. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolve(cmd, flags)
			if err != nil {
				return err
			}
			out := ui{w: cmd.OutOrStdout()}
			input := args[0]
			if httputil.IsURL(input) {
				return errors.New(errors.ErrCodeInvalidInput, "cannot watch a URL: %s", input)
			}

			render := func(ctx context.Context) {
				if err := c.runRender(ctx, out, input, flags.output, opts); err != nil {
					out.failure("%v", err)
				}
			}
			render(cmd.Context())
			out.info("Watching %s", input)

			err = watchFile(cmd.Context(), input, debounce, render)
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}

	flags.bindLayout(cmd)
	flags.bindRender(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before re-rendering")

	return cmd
}

// watchFile calls fn after every burst of changes to path until ctx is
// done. The parent directory is watched so that editors that replace the
// file by renaming are followed.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		case <-fire:
			fire = nil
			fn(ctx)
		}
	}
}
