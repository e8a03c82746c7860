package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const exampleManifest = `# starconf manifest
schema: schema.cue
files:
  - base.star
  - local.star

initial: {}

logging:
  level: info
  format: console
`

const exampleSchema = `// Configuration schema. Every config script is validated against this.
#Config: {
	port?:  number
	debug?: bool
	name:   string | *"starconf"
}
`

const exampleScript = `# Base configuration. The config global is always available.
load("@schema", "defaults")

config.port = 3000
config.debug = False
`

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Scaffold a manifest, schema and example config script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			files := map[string]string{
				"starconf.yaml": exampleManifest,
				"schema.cue":    exampleSchema,
				"base.star":     exampleScript,
			}
			for name, content := range files {
				path := filepath.Join(dir, name)
				if _, err := os.Stat(path); err == nil && !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					return err
				}
				fmt.Printf("  created %s\n", path)
			}

			fmt.Println("Run `starconf load` to load the example configuration.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}
