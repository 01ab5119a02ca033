// File: cmd/regboard/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/confstats/regboard/internal/config"
	"github.com/confstats/regboard/internal/server"
	"github.com/confstats/regboard/internal/storage"
	"github.com/confstats/regboard/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// rootCmd renders the summary chart once, matching the original one-shot
// batch behavior.
var rootCmd = &cobra.Command{
	Use:     "regboard",
	Short:   "Event registration analytics and chart renderer",
	Long:    `Ingests event-registration snapshot logs and renders a four-panel summary chart (registration trend, sponsor tiers, year-over-year comparison, check-in rate).`,
	Version: AppVersion,
	RunE:    runRender,
}

// renderCmd renders the chart from the configured log files
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the four-panel summary chart",
	RunE:  runRender,
}

// ingestCmd ingests the configured log files into storage
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest snapshot logs into storage",
	RunE:  runIngest,
}

// exportCmd exports the day-wise aggregate table
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the day-wise aggregate table (xlsx or csv)",
	RunE:  runExport,
}

// serveCmd runs the HTTP server with scheduled refreshes
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve snapshots, aggregates and the chart over HTTP",
	RunE:  runServe,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("regboard %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Current log: %s (%s)\n", cfg.Input.Current.Path, cfg.Input.Current.Label)
		if cfg.Input.Previous.Path != "" {
			fmt.Printf("Previous log: %s (%s)\n", cfg.Input.Previous.Path, cfg.Input.Previous.Label)
		}
		fmt.Printf("Chart output: %s\n", cfg.Chart.OutputPath)
		fmt.Printf("Database: %s\n", cfg.Storage.Type)

		return nil
	},
}

// runServe runs the long-lived serve mode
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-signalChan
	fmt.Println("\nReceived shutdown signal, stopping application...")

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	return nil
}

// loadConfig loads configuration and initializes the logger
func loadConfig() (*config.Config, error) {
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	server.AppVersion = AppVersion

	return cfg, nil
}

// openStorage creates, connects and migrates the configured storage backend
func openStorage(cfg *config.Config) (storage.Storage, error) {
	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run storage migrations: %w", err)
	}

	return store, nil
}

// init initializes the CLI commands
func init() {
	// Add persistent flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Add subcommands
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
