package main

import (
	"fmt"
	"os"

	"github.com/lychee-technology/indexsync"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "indexsync-tools",
		Short:         "Maintenance commands for the catalog index change detector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "YAML config file (defaults are used when empty)")

	root.AddCommand(newInitDBCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newResolveCmd())
	return root
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := newRootCmd().Execute(); err != nil {
		logger.Sugar().Fatalf("%v", err)
	}
}

// loadConfig reads --config when given and applies the DB_* environment
// overrides.
func loadConfig() (*indexsync.Config, error) {
	config := indexsync.DefaultConfig()
	if configPath != "" {
		loaded, err := indexsync.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	db := &config.Database
	db.Host = getenvDefault("DB_HOST", db.Host)
	db.Port = getenvDefaultInt("DB_PORT", db.Port)
	db.Database = getenvDefault("DB_NAME", db.Database)
	db.Username = getenvDefault("DB_USER", db.Username)
	db.Password = getenvDefault("DB_PASSWORD", db.Password)
	db.SSLMode = getenvDefault("DB_SSL_MODE", db.SSLMode)
	db.LinkField = getenvDefault("DB_LINK_FIELD", db.LinkField)
	return config, config.Validate()
}
