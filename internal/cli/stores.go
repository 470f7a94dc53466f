package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/spf13/cobra"
	"github.com/tansive/polycatalog/internal/catalogsrv/catalog"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tidwall/gjson"
)

var storeSettings string

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Manage the stores tables can be placed on",
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stores and their settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var stores []models.Store
		err := withService(cmd, func(ctx context.Context, cat catalog.Catalog) error {
			var err error
			stores, err = cat.GetStores(ctx)
			return err
		})
		if err != nil {
			return err
		}
		return printOutput(stores)
	},
}

var storesAddCmd = &cobra.Command{
	Use:   "add <name> <adapter>",
	Short: "Add a store",
	Long: `Add a store served by the named adapter. Settings are given as a JSON object.

Example:
  polycatalog stores add hsqldb1 org.polypheny.db.adapter.jdbc.stores.HsqldbStore --settings '{"type":"Memory","maxConnections":25}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !gjson.Valid(storeSettings) || !gjson.Parse(storeSettings).IsObject() {
			return fmt.Errorf("settings must be a JSON object")
		}
		st := &models.Store{
			UniqueName: args[0],
			Adapter:    args[1],
			Settings:   pgtype.JSONB{Bytes: []byte(storeSettings), Status: pgtype.Present},
		}
		err := withService(cmd, func(ctx context.Context, cat catalog.Catalog) error {
			_, err := cat.AddStore(ctx, st)
			return err
		})
		if err != nil {
			return err
		}
		return printOutput(st)
	},
}

var storesSetCmd = &cobra.Command{
	Use:   "set <name> <path> <value>",
	Short: "Change one setting of a store",
	Long: `Change one setting of a store. The path uses dot notation and the value is
parsed as JSON when it is valid JSON, otherwise it is stored as a string.

Example:
  polycatalog stores set hsqldb1 maxConnections 50`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, cat catalog.Catalog) error {
			st, err := cat.GetStore(ctx, args[0])
			if err != nil {
				return err
			}
			return cat.SetStoreSetting(ctx, st.ID, args[1], settingValue(args[2]))
		})
	},
}

var storesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a store that holds no tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, cat catalog.Catalog) error {
			st, err := cat.GetStore(ctx, args[0])
			if err != nil {
				return err
			}
			return cat.DeleteStore(ctx, st.ID)
		})
	},
}

// settingValue turns a command line value into the value written to the
// settings document.
func settingValue(s string) any {
	if gjson.Valid(s) {
		return gjson.Parse(s).Value()
	}
	return s
}

func init() {
	rootCmd.AddCommand(storesCmd)
	storesCmd.AddCommand(storesListCmd, storesAddCmd, storesSetCmd, storesDeleteCmd)

	storesAddCmd.Flags().StringVarP(&storeSettings, "settings", "s", "{}", "Store settings as a JSON object")
}
