package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/starconf/starconf/pkg/manager"
	"github.com/starconf/starconf/pkg/schema"
)

func newSchemaCommand() *cobra.Command {
	var showDeclarations bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the resolved configuration schema",
		Long: `Resolve the schema module declared in the manifest and print its
top-level fields with their types, optionality and defaults.`,
		Example: `  # Show schema fields
  starconf schema

  # Show the generated Starlark declarations module
  starconf schema --declarations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()

			m, err := manager.LoadManifest(fsys, manifestPath)
			if err != nil {
				return err
			}
			sc, err := schema.Resolve(fsys, m.Schema)
			if err != nil {
				return err
			}

			if showDeclarations {
				fmt.Print(sc.Declarations())
				return nil
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sc.Fields())
			}

			fmt.Printf("schema: %s\n", sc.Path)
			for _, f := range sc.Fields() {
				line := fmt.Sprintf("  %s: %s", f.Name, f.Type)
				if f.Optional {
					line += " (optional)"
				}
				if f.Default != nil {
					line += fmt.Sprintf(" = %v", f.Default)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDeclarations, "declarations", false, "print the generated Starlark declarations")

	return cmd
}
