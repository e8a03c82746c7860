package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/starconf/starconf/pkg/manager"
)

func newWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload whenever a config file or the schema changes",
		Long: `Run an initial reload pass, then watch the declared config files and the
schema module for changes, reloading after each change. Reload passes are
serialized; the pipeline itself stays synchronous.`,
		Example: `  # Watch with the default debounce
  starconf watch

  # Coalesce bursts of editor writes
  starconf watch --debounce 2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Root().Version, func(d manager.Descriptor) {
				_ = renderDescriptors(os.Stdout, []manager.Descriptor{d}, jsonOutput)
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.tracer.Shutdown(context.Background()) }()

			if err := rt.metrics.StartServer(); err != nil {
				return err
			}

			watcher, err := manager.NewWatcher(rt.manager, debounce, rt.logger)
			if err != nil {
				return err
			}

			watcher.Reload()
			rt.logger.Info().Msg("Watching for configuration changes")
			watcher.Start(cmd.Context())
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "delay before reloading after a change")

	return cmd
}
