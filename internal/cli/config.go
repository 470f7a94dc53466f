package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "polycatalog.toml"

const redacted = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the catalog configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := EncodeConfig(config.Config(), true)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := DefaultConfigFile
		if len(args) == 1 {
			file = args[0]
		}
		if _, err := os.Stat(file); err == nil {
			return fmt.Errorf("%s already exists", file)
		}
		if err := WriteConfig(config.Default(), file); err != nil {
			return err
		}
		cmd.Println("wrote " + file)
		return nil
	},
}

// EncodeConfig renders cfg as TOML. With redact set, passwords are masked.
func EncodeConfig(cfg *config.ConfigParam, redact bool) ([]byte, error) {
	c := *cfg
	if redact {
		if c.DB.Postgres.Password != "" {
			c.DB.Postgres.Password = redacted
		}
		if c.Bootstrap.DefaultPassword != "" {
			c.Bootstrap.DefaultPassword = redacted
		}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("unable to generate configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteConfig writes cfg to file, creating the directory if needed.
func WriteConfig(cfg *config.ConfigParam, file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(file), os.ModePerm); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}
	b, err := EncodeConfig(cfg, false)
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, b, os.FileMode(0600)); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
}
