package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"veridoc/internal/schema"
)

// schemasCmd represents the schemas command
var schemasCmd = &cobra.Command{
	Use:   "schemas [type]",
	Short: "List registered document types and their fields",
	Long: `List the document schemas the validators check against. With a
type argument, show that schema's fields and rules in detail.

Example:
  veridoc schemas
  veridoc schemas rechnung
  veridoc schemas --schema-dir ./schemas urlaubsantrag`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchemas,
}

func init() {
	rootCmd.AddCommand(schemasCmd)

	schemasCmd.Flags().StringVar(&schemaDir, "schema-dir", "", "directory with additional YAML schema definitions")
}

func runSchemas(cmd *cobra.Command, args []string) error {
	registry, err := schema.NewRegistry()
	if err != nil {
		return err
	}
	if schemaDir != "" {
		if err := registry.LoadDir(schemaDir); err != nil {
			return fmt.Errorf("load schemas: %w", err)
		}
	}

	if len(args) == 0 {
		for _, t := range registry.Types() {
			s, err := registry.ForType(t)
			if err != nil {
				return err
			}
			fmt.Printf("%-22s %d fields, %d rules, required: %s\n",
				t, len(s.Fields), len(s.Rules), strings.Join(s.RequiredFields(), ", "))
		}
		return nil
	}

	s, err := registry.ForType(args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Document type: %s\n\nFields:\n", s.Type)
	for _, name := range names {
		spec := s.Fields[name]
		required := "optional"
		if spec.Required {
			required = "required"
		}
		fmt.Printf("  %-28s %-8s %-9s %s\n", name, spec.Type, required, spec.Description)
	}

	if len(s.Rules) > 0 {
		fmt.Printf("\nRules:\n")
		for _, rule := range s.Rules {
			fmt.Printf("  %-16s %s\n", rule.Kind, rule.FieldRef())
		}
	}
	return nil
}
