// Package main is the shiryo CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/cli"
	"github.com/hyperjump/shiryo/internal/config"
	"github.com/hyperjump/shiryo/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shiryo/config.yaml"

var (
	configPath   string
	debugFlag    bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "shiryo",
	Short: "Ingest documents into a vector index and a keyword table",
	Long: `shiryo loads PDF, Office, text and markdown files, splits them into chunks and keeps
a vector index and a relational keyword table in step, with deletion by document id.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default and config.yaml exists in the
// current directory, that file is used instead so commands run from a project dir pick up
// its config. A missing default config falls back to built-in defaults.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				path = local
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg, err := defaultConfig()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func defaultConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg := &config.Config{}
	config.ApplyEnv(cfg)
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads config and builds the logger for a command.
func setup() (*config.Config, string, *zap.Logger, error) {
	cfg, path, err := loadConfig(configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path))
	return cfg, path, logger, nil
}

func format() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(outputFormat)
}
