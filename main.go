package main

import (
	"fmt"
	"os"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "pizzaking",
		Short:        "Pizza King ordering API",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults to ./config.yaml when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(jobsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and opens the database. Every command needs it.
func bootstrap() (*initializers.AppConfig, error) {
	initializers.LoadEnv()
	cfg, err := initializers.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := initializers.ConnectToDB(); err != nil {
		return nil, err
	}
	services.Providers = services.NewPaymentProviders(cfg)
	return cfg, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootstrap(); err != nil {
			return err
		}
		return initializers.SyncDatabase()
	},
}
