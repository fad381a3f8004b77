package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/logging"
)

// rootCmd represents the base command for the taskcal application
var rootCmd = &cobra.Command{
	Use:   "taskcal",
	Short: "Task management with a calendar view",
	Long: `taskcal keeps a personal task list and shows it as a month calendar,
each task placed on its due date.

It can run as:
  - A REST API server with reminders and optional MCP over HTTP
  - An MCP (Model Context Protocol) server over stdio for AI assistants
  - A terminal calendar client for a running server`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Global flags shared by every command.
var (
	configFile string
	envFile    string
	dbPath     string
	logLevel   string
	logFormat  string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "taskcal version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to a YAML config file")
	pf.StringVar(&envFile, "env-file", "", "Path to a dotenv file (default: ./.env if present)")
	pf.StringVar(&dbPath, "db", "", "Path to the SQLite database. Can also use TASKCAL_DB env var.")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error. Can also use TASKCAL_LOG_LEVEL env var.")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json. Can also use TASKCAL_LOG_FORMAT env var.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newCalendarCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newGoogleAuthCmd())
	rootCmd.AddCommand(newImportGoogleCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig merges file, environment and the global flags. Flags win.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// setupLogging installs the configured handler on stderr. stdout stays free
// for command output and the stdio transport.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, nil
}
