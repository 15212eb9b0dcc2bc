package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the service schema",
	Long:  `List and describe the entity, complex and enum types declared by $metadata.`,
}

var schemaTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List schema types",
	Args:  cobra.NoArgs,
	RunE:  runSchemaTypes,
}

var schemaShowCmd = &cobra.Command{
	Use:   "show [type]",
	Short: "Describe a schema type",
	Long: `Describe a schema type with its flattened properties, navigation
properties and bound operations.

Examples:
  msgraph schema show user
  msgraph schema show microsoft.graph.message
  msgraph schema show callRecords.session`,
	Args: cobra.ExactArgs(1),
	RunE: runSchemaShow,
}

var schemaSetsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List entity sets and singletons",
	Args:  cobra.NoArgs,
	RunE:  runSchemaSets,
}

// Flags for schema types.
var schemaKind string

func init() {
	schemaTypesCmd.Flags().StringVar(&schemaKind, "kind", "", "Only list types of this kind: entity, complex or enum")
	schemaCmd.AddCommand(schemaTypesCmd)
	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaSetsCmd)
	rootCmd.AddCommand(schemaCmd)
}

func registry(ctx context.Context) (*model.Registry, error) {
	if schemaService == nil {
		return nil, errors.New("schema service not configured")
	}
	return schemaService.Registry(ctx)
}

func kindFilter(kind string) (domain.TypeKind, error) {
	switch strings.ToLower(kind) {
	case "":
		return "", nil
	case "entity":
		return domain.KindEntity, nil
	case "complex":
		return domain.KindComplex, nil
	case "enum":
		return domain.KindEnum, nil
	}
	return "", fmt.Errorf("invalid kind %q (expected entity, complex or enum)", kind)
}

func runSchemaTypes(cmd *cobra.Command, _ []string) error {
	kind, err := kindFilter(schemaKind)
	if err != nil {
		return err
	}
	reg, err := registry(cmd.Context())
	if err != nil {
		return err
	}

	for _, d := range reg.Types() {
		if kind != "" && d.Kind != kind {
			continue
		}
		cmd.Printf("%-12s %s\n", kindLabel(d.Kind), d.Name)
	}
	return nil
}

func kindLabel(k domain.TypeKind) string {
	switch k {
	case domain.KindEntity:
		return "entity"
	case domain.KindComplex:
		return "complex"
	case domain.KindEnum:
		return "enum"
	}
	return string(k)
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	reg, err := registry(cmd.Context())
	if err != nil {
		return err
	}
	d, ok := reg.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown type %s: %w", args[0], domain.ErrNotFound)
	}

	cmd.Printf("%s (%s)\n", d.QualifiedName(), kindLabel(d.Kind))
	if d.BaseType != "" {
		cmd.Printf("  Base: %s\n", strings.Join(d.Lineage[1:], " < "))
	}
	var flags []string
	if d.Abstract {
		flags = append(flags, "abstract")
	}
	if d.OpenType {
		flags = append(flags, "open")
	}
	if d.HasStream {
		flags = append(flags, "media")
	}
	if len(flags) > 0 {
		cmd.Printf("  Flags: %s\n", strings.Join(flags, ", "))
	}
	if len(d.Key) > 0 {
		cmd.Printf("  Key: %s\n", strings.Join(d.Key, ", "))
	}

	if d.Kind == domain.KindEnum {
		cmd.Println("  Members:")
		for _, m := range d.Members {
			cmd.Printf("    %s = %s\n", m.Name, m.Value)
		}
		return nil
	}

	printProperties(cmd, "Properties", d.Properties)
	printProperties(cmd, "Navigation", d.Navigation)
	printOperations(cmd, "Actions", d.Actions)
	printOperations(cmd, "Functions", d.Functions)
	return nil
}

func printProperties(cmd *cobra.Command, title string, props []domain.Property) {
	if len(props) == 0 {
		return
	}
	cmd.Printf("  %s:\n", title)
	for _, p := range props {
		suffix := ""
		if !p.Type.Nullable {
			suffix = " (required)"
		}
		if p.ContainsTarget {
			suffix += " (contained)"
		}
		cmd.Printf("    %-28s %s%s\n", p.Name, p.Type, suffix)
	}
}

func printOperations(cmd *cobra.Command, title string, ops map[string]*domain.Operation) {
	if len(ops) == 0 {
		return
	}
	cmd.Printf("  %s:\n", title)
	for _, name := range slices.Sorted(maps.Keys(ops)) {
		op := ops[name]
		params := make([]string, len(op.Parameters))
		for i, p := range op.Parameters {
			params[i] = p.Name + " " + p.Type.String()
		}
		sig := fmt.Sprintf("%s(%s)", op.Name, strings.Join(params, ", "))
		if op.ReturnType != nil {
			sig += " " + op.ReturnType.String()
		}
		if op.BoundToCollection {
			sig += " [collection]"
		}
		cmd.Printf("    %s\n", sig)
	}
}

func runSchemaSets(cmd *cobra.Command, _ []string) error {
	reg, err := registry(cmd.Context())
	if err != nil {
		return err
	}
	for _, name := range reg.EntitySets() {
		d, _ := reg.EntitySetType(name)
		label := "set"
		if reg.IsSingleton(name) {
			label = "singleton"
		}
		cmd.Printf("%-10s %-32s %s\n", label, name, d.Name)
	}
	return nil
}
