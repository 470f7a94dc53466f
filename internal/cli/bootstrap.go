package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tansive/polycatalog/internal/catalogsrv/catalog"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dbmanager"
)

var bootstrapForce bool

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Recreate the catalog storage and seed the default objects",
	Long: `Drop and recreate every catalog table, then create the default user,
database and schema named in the configuration. All catalog data is lost.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !bootstrapForce {
			return fmt.Errorf("bootstrap drops all catalog data; rerun with --force")
		}
		ctx := commandContext(cmd)
		cfg := config.Config()
		connector, err := dbmanager.NewConnector(ctx, cfg)
		if err != nil {
			return fmt.Errorf("unable to open catalog: %w", err)
		}
		s := catalog.New(connector, catalog.OptionsFromConfig(cfg))
		defer s.Close(ctx)
		if err := s.Bootstrap(ctx); err != nil {
			return err
		}
		return printOutput(map[string]any{
			"dialect":  cfg.DB.Dialect,
			"user":     cfg.Bootstrap.DefaultUser,
			"database": cfg.Bootstrap.DefaultDatabase,
			"schema":   catalog.DefaultSchema,
		})
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().BoolVarP(&bootstrapForce, "force", "f", false, "Confirm that existing catalog data may be dropped")
}
