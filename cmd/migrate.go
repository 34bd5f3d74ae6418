package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/f1rq/LifeMap/config"
	"github.com/f1rq/LifeMap/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Open the embedded database and bring its schema up to date.`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	if err := database.Migrate(db); err != nil {
		return err
	}

	log.Info().Str("path", cfg.DB.Path).Msg("Database migrated")
	return nil
}
