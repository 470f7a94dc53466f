package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tansive/polycatalog/internal/catalogsrv/catalog"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// List command flags
	listDatabase string
	listSchema   string
	listTable    string
	listColumn   string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <objectType>",
	Short: "List catalog objects whose names match the given patterns",
	Long: `List catalog objects of one type. Name filters use SQL LIKE patterns
('%' matches any run of characters, '_' a single character). Supported types:
  - databases
  - schemas
  - tables
  - columns

Examples:
  polycatalog list databases
  polycatalog list schemas -d APP
  polycatalog list tables -d APP -s public -t 'ORD%'
  polycatalog list columns -t ORDERS`,
	Args: cobra.ExactArgs(1),
	RunE: listObjects,
}

func pattern(p string) types.Pattern {
	if p == "" {
		return types.AnyPattern
	}
	return types.NewPattern(p)
}

func listObjects(cmd *cobra.Command, args []string) error {
	var result any
	err := withService(cmd, func(ctx context.Context, cat catalog.Catalog) error {
		var err error
		switch args[0] {
		case "databases", "database":
			result, err = cat.GetDatabases(ctx, pattern(listDatabase))
		case "schemas", "schema":
			result, err = cat.GetSchemasByPattern(ctx, pattern(listDatabase), pattern(listSchema))
		case "tables", "table":
			result, err = cat.GetTablesByPattern(ctx, pattern(listDatabase), pattern(listSchema), pattern(listTable))
		case "columns", "column":
			result, err = cat.GetColumnsByPattern(ctx, pattern(listDatabase), pattern(listSchema), pattern(listTable), pattern(listColumn))
		default:
			err = fmt.Errorf("unknown object type %q", args[0])
		}
		return err
	})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printOutput(result)
	}
	fmt.Println(cases.Title(language.English).String(args[0]) + ":")
	for _, n := range names(result) {
		fmt.Println("  " + n)
	}
	return nil
}

// names renders the listed objects one per line.
func names(v any) []string {
	var out []string
	switch objs := v.(type) {
	case []models.Database:
		for _, o := range objs {
			out = append(out, o.Name)
		}
	case []models.Schema:
		for _, o := range objs {
			out = append(out, o.Name)
		}
	case []models.Table:
		for _, o := range objs {
			out = append(out, o.Name+" ("+o.TableType.String()+")")
		}
	case []models.Column:
		for _, o := range objs {
			out = append(out, fmt.Sprintf("%d %s %s", o.Position, o.Name, o.Type))
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listDatabase, "database", "d", "", "Database name pattern")
	listCmd.Flags().StringVarP(&listSchema, "schema", "s", "", "Schema name pattern")
	listCmd.Flags().StringVarP(&listTable, "table", "t", "", "Table name pattern")
	listCmd.Flags().StringVarP(&listColumn, "column", "c", "", "Column name pattern")
}
