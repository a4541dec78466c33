// Package cli implements the paper-digest CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rcliao/paper-digest/internal/config"
	"github.com/rcliao/paper-digest/internal/store"
)

var (
	configPath string
	dbPath     string
	formatFlag string
	verbose    bool

	logger *zap.Logger
	cfg    *config.Config
)

// configOptional marks commands that must run even when the config file is
// unreadable.
const configOptional = "config-optional"

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "paper-digest",
	Short: "Summarize a Zotero library with a language model",
	Long: "Reads a local Zotero database, sends each paper's full text or abstract to an " +
		"OpenAI-compatible model and exports structured summaries as CSV.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(getConfigPath())
		if err != nil {
			if cmd.Annotations[configOptional] == "" {
				return err
			}
			fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
			cfg = config.DefaultConfig()
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}

		logger, err = newLogger(verbose || cfg.Debug, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.paper-digest/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Zotero database path (default: $PAPER_DIGEST_DB or auto-detect)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newLogger(debug bool, level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.UserPath(config.Dir())
}

func getDBPath() (string, error) {
	if cfg.DatabasePath != "" {
		return cfg.DatabasePath, nil
	}
	return store.FindDatabase()
}

// getDataDir returns the Zotero data directory for resolving attachments.
func getDataDir(dbFile string) string {
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	return store.DataDir(dbFile)
}

func openStore() (*store.SQLiteStore, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, err
	}
	logger.Debug("opening zotero database", zap.String("path", path))
	return store.Open(path)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func textOutput() bool {
	return formatFlag == "text"
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	if logger != nil {
		_ = logger.Sync()
	}
	os.Exit(1)
}
