package commands

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/plugctl/registry"
	"github.com/teranos/plugctl/sym"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: sym.Short("watch"),
		Long: sym.Watch + ` watch - Watch the plugins directory

Prints the plugin list, then prints it again and re-runs activation whenever
a plugin directory or manifest changes on disk. Changes made by plugctl
enable/disable are picked up as well. A plugins directory that does not
exist yet is waited for. Stop with Ctrl-C.

The quiet period before a reload is plugins.watch_debounce_ms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd.OutOrStdout(), app)
		},
	}
}

func runWatch(ctx context.Context, w io.Writer, app *App) error {
	if err := runList(w, app, false); err != nil {
		return err
	}
	printInfo(w, "Watching %s for changes...", app.Registry.Root())

	// onChange runs on the watcher's timer goroutine
	var mu sync.Mutex
	onChange := func(entries []registry.Entry) {
		mu.Lock()
		defer mu.Unlock()

		printInfo(w, "Plugins changed, %d %s found.", len(entries), plural(len(entries), "plugin"))
		report := app.Registry.Activate(ctx, app.Providers, app.activationOptions())
		for _, failure := range report.Failed {
			printWarning(w, "Plugin %s not activated: %v", failure.ID, failure.Err)
		}
		_ = runList(w, app, false)
	}

	debounce := time.Duration(app.Config.Plugins.WatchDebounceMS) * time.Millisecond
	return app.Registry.Watch(ctx, debounce, onChange)
}
