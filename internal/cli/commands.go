package cli

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tansive/polycatalog/internal/catalogsrv/catalog"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/common/logtrace"
	"github.com/tansive/polycatalog/pkg/types"
	"sigs.k8s.io/yaml"
)

const version = "v0.1.0"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// Global flags
	jsonOutput bool
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "polycatalog",
	Short: "polycatalog inspects and edits the metadata catalog of a polystore",
	Long: `polycatalog is a command line interface to the transactional metadata catalog.
It bootstraps the catalog storage, lists and describes databases, schemas and
tables, and manages stores and users. Every command runs in its own transaction.`,
	PersistentPreRunE: preRunHandlePersistents,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to a TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "", "Override the configured log level")

	rootCmd.AddCommand(newVersionCmd())
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.Execute()
	if err != nil {
		if jsonOutput {
			printJSON(map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	if err := config.LoadConfig(configFile); err != nil {
		return fmt.Errorf("unable to load config file: %w", err)
	}
	level := config.Config().LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logtrace.SetLevel(level)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of polycatalog",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(map[string]string{"version": version})
			} else {
				cmd.Println("polycatalog " + version)
			}
		},
	}
}

// commandContext returns a context carrying the global logger.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return log.Logger.WithContext(ctx)
}

// openService opens the catalog named by the loaded configuration.
func openService(ctx context.Context) (*catalog.Service, error) {
	s, err := catalog.Open(ctx, config.Config())
	if err != nil {
		return nil, fmt.Errorf("unable to open catalog: %w", err)
	}
	return s, nil
}

// inTransaction runs fn on a catalog bound to a new Xid. The transaction is
// committed in two phases if fn succeeds and rolled back otherwise.
func inTransaction(ctx context.Context, s *catalog.Service, fn func(cat catalog.Catalog) error) error {
	cat := s.GetCatalog(types.NewXid())
	return finishTransaction(ctx, cat, fn(cat))
}

// finishTransaction ends the transaction of cat given the outcome of its work.
func finishTransaction(ctx context.Context, cat catalog.Catalog, err error) error {
	if err == nil {
		var ok bool
		ok, err = cat.Prepare(ctx)
		if err == nil && !ok {
			err = dberror.ErrPrepareVotedNo
		}
		if err == nil {
			return cat.Commit(ctx)
		}
	}
	if rbErr := cat.Rollback(ctx); rbErr != nil {
		log.Ctx(ctx).Error().Err(rbErr).Msg("rollback failed")
	}
	return err
}

// withService opens the catalog, runs fn in one transaction and closes the catalog.
func withService(cmd *cobra.Command, fn func(ctx context.Context, cat catalog.Catalog) error) error {
	ctx := commandContext(cmd)
	s, err := openService(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)
	return inTransaction(ctx, s, func(cat catalog.Catalog) error {
		return fn(ctx, cat)
	})
}

// printJSON prints the given value as JSON to stdout
func printJSON(data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}

// printOutput prints v as JSON with --json and as YAML otherwise.
func printOutput(v any) error {
	if jsonOutput {
		printJSON(map[string]any{
			"result": 1,
			"value":  v,
		})
		return nil
	}
	// sigs.k8s.io/yaml goes through the json tags of the models
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to format output: %v", err)
	}
	yamlBytes, err := yaml.JSONToYAML(b)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %v", err)
	}
	fmt.Print(string(yamlBytes))
	return nil
}
