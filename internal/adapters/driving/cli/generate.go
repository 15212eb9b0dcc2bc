package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/odata/codegen"
)

var generateCmd = &cobra.Command{
	Use:   "generate [type...]",
	Short: "Generate typed Go wrappers for schema types",
	Long: `Generate a Go source file with one typed wrapper per schema type.

Entity and complex types become structs over model.Record with an accessor
per property, inherited ones included. Enum types become string constants.

Examples:
  msgraph generate user message importance --out graph/types.go
  msgraph generate --all --package graph --out graph/types.go`,
	RunE: runGenerate,
}

// Flags for generate.
var (
	generatePackage     string
	generateOut         string
	generateAll         bool
	generateModelImport string
)

func init() {
	generateCmd.Flags().StringVar(&generatePackage, "package", "graph", "Package name of the generated file")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output file (default stdout)")
	generateCmd.Flags().BoolVar(&generateAll, "all", false, "Generate every type in the schema")
	generateCmd.Flags().StringVar(&generateModelImport, "model-import", codegen.DefaultModelImport, "Import path of the record runtime")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if !generateAll && len(args) == 0 {
		return errors.New("name at least one type, or pass --all")
	}
	reg, err := registry(cmd.Context())
	if err != nil {
		return err
	}

	file := codegen.NewFile(generatePackage)
	file.SetModelImport(generateModelImport)

	if generateAll {
		for _, d := range reg.Types() {
			if err := file.AddType(d); err != nil {
				return err
			}
		}
	}
	for _, name := range args {
		d, ok := reg.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown type %s: %w", name, domain.ErrNotFound)
		}
		if err := file.AddType(d); err != nil {
			return err
		}
	}

	src, err := file.Flush()
	if err != nil {
		return err
	}

	if generateOut == "" {
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(generateOut), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(generateOut, src, 0644); err != nil {
		return fmt.Errorf("write %s: %w", generateOut, err)
	}
	cmd.PrintErrf("Generated %d types in %s\n", file.Len(), generateOut)
	return nil
}
