package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"backoffice/internal/app"
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/logger"
)

var (
	outputFormat string
	logMode      string
)

var rootCmd = &cobra.Command{
	Use:   "backofficectl",
	Short: "Operational commands for the backoffice API",
	Long: `backofficectl runs the maintenance jobs of the backoffice against the
database and upstream services configured in the environment (.env is loaded
when present): schema migrations, template seeding, Auco and Muso.AI syncs
and statement workbook imports.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "result format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "logger mode (defaults to APP_ENV)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.AppConfig) (*logger.Logger, error) {
	mode := logMode
	if mode == "" {
		mode = cfg.Env
	}
	return logger.New(mode)
}

// withApp builds the full application for commands that call services.
// Schema migrations are left to the migrate command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) (any, error)) error {
	cfg := config.Load()
	cfg.Database.AutoMigrate = false
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := fn(cmd.Context(), a)
	if err != nil {
		log.Error(cmd.Name()+"_failed", "error", err)
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

// withDB opens only the database pool.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.AppConfig, log *logger.Logger, db *sql.DB) (any, error)) error {
	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	res, err := fn(cmd.Context(), cfg, log, db)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func printResult(w io.Writer, res any) error {
	if res == nil {
		return nil
	}
	switch outputFormat {
	case "yaml", "yml":
		// Round-trip through JSON so yaml keys follow the json tags.
		raw, err := json.Marshal(res)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
