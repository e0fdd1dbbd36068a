package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cemlevent54/FileMate/internal/database"
	"github.com/cemlevent54/FileMate/internal/security"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.Open(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(ctx, db.DB); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
			return nil
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the roles and the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.Open(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(ctx, db.DB); err != nil {
				return err
			}
			if err := database.SeedRoles(ctx, db.DB); err != nil {
				return err
			}
			if cfg.Admin.Password == "" {
				return errors.New("seed: admin.password is not set")
			}
			return seedAdmin(ctx, db, cfg.Admin, security.NewPasswordHasher(cfg.Security.PasswordAlgorithm, cfg.Security.BcryptCost), logger)
		},
	}
}
