package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLoadCommand() *cobra.Command {
	var (
		strict    bool
		showState bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run one reload pass over the declared config files",
		Long: `Run one full reload pass: validate and execute every declared config
script in order against the shared state, and report one outcome per file.

Missing files are reported and skipped; they are optional overlays. A file
with static diagnostics never executes. A file that throws at run time keeps
the mutations it made before the failure.`,
		Example: `  # Reload using ./starconf.yaml
  starconf load

  # Fail the process if any existing file did not load
  starconf load --strict

  # Print the resulting state
  starconf load --state`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Root().Version, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.tracer.Shutdown(context.Background()) }()

			descriptors := rt.manager.Reload()

			if !jsonOutput {
				fmt.Printf("Loaded %d config file(s) against %s\n",
					len(descriptors), rt.manifest.Schema)
			}
			if err := renderDescriptors(os.Stdout, descriptors, jsonOutput); err != nil {
				return err
			}

			if showState {
				snap, err := rt.manager.Snapshot()
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				fmt.Printf("state: %s\n", out)
			}

			if strict && failed(descriptors) {
				return fmt.Errorf("one or more config files failed to load")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit nonzero if any existing file failed to load")
	cmd.Flags().BoolVar(&showState, "state", false, "print the resulting configuration state")

	return cmd
}
