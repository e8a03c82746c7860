package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Statically validate config files without executing them",
		Long: `Run static analysis over every declared config script: syntax, name
resolution, import resolution and schema conformance of directly assigned
literals. Nothing is executed and the state is untouched.`,
		Example: `  # Check configs declared in ./starconf.yaml
  starconf check

  # Machine-readable diagnostics
  starconf check --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Root().Version, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.tracer.Shutdown(context.Background()) }()

			descriptors := rt.manager.Check()

			if !jsonOutput {
				fmt.Printf("Checked %d config file(s) against %s\n",
					len(descriptors), rt.manifest.Schema)
			}
			if err := renderDescriptors(os.Stdout, descriptors, jsonOutput); err != nil {
				return err
			}

			if failed(descriptors) {
				return fmt.Errorf("static validation failed")
			}
			return nil
		},
	}

	return cmd
}
