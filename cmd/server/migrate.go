package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/database"
	"github.com/learnhub/backend/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users and system_logs tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		logging.Setup(os.Stdout, level)

		cfg := config.Load()
		if cfg.StoreDriver != config.StoreDriverPostgres {
			return fmt.Errorf("migrate requires STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
		}

		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				slog.Error("database close error", "error", err)
			}
		}()

		if err := database.Migrate(db); err != nil {
			return err
		}
		slog.Info("migration completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
