package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"backoffice/internal/app"
	"backoffice/internal/config"
	"backoffice/internal/database/migration"
	"backoffice/internal/logger"
	"backoffice/internal/service"
)

type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

var (
	downSteps  int
	importedBy string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(ctx context.Context, cfg *config.AppConfig, log *logger.Logger, db *sql.DB) (any, error) {
			if err := migration.Up(ctx, db, log, cfg.Database.Host); err != nil {
				return nil, err
			}
			return currentVersion(ctx, db)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(ctx context.Context, _ *config.AppConfig, log *logger.Logger, db *sql.DB) (any, error) {
			if err := migration.Down(ctx, db, log, downSteps); err != nil {
				return nil, err
			}
			return currentVersion(ctx, db)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(ctx context.Context, _ *config.AppConfig, _ *logger.Logger, db *sql.DB) (any, error) {
			return currentVersion(ctx, db)
		})
	},
}

var seedTemplatesCmd = &cobra.Command{
	Use:   "seed-templates",
	Short: "Upsert the bundled contract templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
			n, err := a.Templates.Seed(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int{"seeded": n}, nil
		})
	},
}

var syncDocumentsCmd = &cobra.Command{
	Use:   "sync-documents [code...]",
	Short: "Refresh signatures from Auco documents",
	Long: `Fetches the given Auco document codes, or every locally known code when
none are given, and creates or updates the matching signature rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.Signing.SyncDocuments(ctx, args)
		})
	},
}

var syncSignaturesCmd = &cobra.Command{
	Use:   "sync-signatures",
	Short: "Re-read the status of every pending signature from Auco",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.Signing.SyncSignatures(ctx)
		})
	},
}

var syncMusoCmd = &cobra.Command{
	Use:   "sync-muso",
	Short: "Refresh every linked Muso.AI profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
			return a.Muso.Sync(ctx)
		})
	},
}

var importStatementsCmd = &cobra.Command{
	Use:   "import-statements <file.xlsx>",
	Short: "Import a monthly statement workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
			f, err := os.Open(args[0])
			if err != nil {
				return nil, err
			}
			defer f.Close()
			st, err := f.Stat()
			if err != nil {
				return nil, err
			}
			return a.Statements.Import(ctx, service.StatementUpload{
				UserID:   importedBy,
				FileName: filepath.Base(args[0]),
				Size:     st.Size(),
				Body:     f,
			})
		})
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	importStatementsCmd.Flags().StringVar(&importedBy, "imported-by", "", "user id recorded on the import")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(
		migrateCmd,
		seedTemplatesCmd,
		syncDocumentsCmd,
		syncSignaturesCmd,
		syncMusoCmd,
		importStatementsCmd,
	)
}

func currentVersion(ctx context.Context, db *sql.DB) (*migrationStatus, error) {
	v, dirty, err := migration.Version(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	return &migrationStatus{Version: v, Dirty: dirty}, nil
}
