package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tansive/polycatalog/internal/catalogsrv/catalog"
)

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:   "describe <objectType>/<name>",
	Short: "Describe a database, schema or table with everything below it",
	Long: `Describe a catalog object by type and qualified name. The format is <objectType>/<name>.
Supported object types:
  - database/<database>
  - schema/<database>.<schema>
  - table/<database>.<schema>.<table>

Example:
  polycatalog describe database/APP
  polycatalog describe schema/APP.public
  polycatalog describe table/APP.public.ORDERS`,
	Args: cobra.ExactArgs(1),
	RunE: describeObject,
}

func describeObject(cmd *cobra.Command, args []string) error {
	objectType, name, ok := strings.Cut(args[0], "/")
	if !ok || name == "" {
		return fmt.Errorf("invalid object format. Expected <objectType>/<name>")
	}
	parts := strings.Split(name, ".")

	var result any
	err := withService(cmd, func(ctx context.Context, cat catalog.Catalog) error {
		var err error
		switch objectType {
		case "database", "databases":
			result, err = describeDatabase(ctx, cat, parts)
		case "schema", "schemas":
			result, err = describeSchema(ctx, cat, parts)
		case "table", "tables":
			result, err = describeTable(ctx, cat, parts)
		default:
			err = fmt.Errorf("unknown object type %q", objectType)
		}
		return err
	})
	if err != nil {
		return err
	}
	return printOutput(result)
}

func describeDatabase(ctx context.Context, cat catalog.Catalog, parts []string) (any, error) {
	if len(parts) != 1 {
		return nil, fmt.Errorf("expected database/<database>")
	}
	db, err := cat.GetDatabase(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	return cat.GetCombinedDatabase(ctx, db.ID)
}

func describeSchema(ctx context.Context, cat catalog.Catalog, parts []string) (any, error) {
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected schema/<database>.<schema>")
	}
	db, err := cat.GetDatabase(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	sc, err := cat.GetSchema(ctx, db.ID, parts[1])
	if err != nil {
		return nil, err
	}
	return cat.GetCombinedSchema(ctx, sc.ID)
}

func describeTable(ctx context.Context, cat catalog.Catalog, parts []string) (any, error) {
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected table/<database>.<schema>.<table>")
	}
	t, err := cat.GetTableByName(ctx, parts[0], parts[1], parts[2])
	if err != nil {
		return nil, err
	}
	return cat.GetCombinedTable(ctx, t.ID)
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
