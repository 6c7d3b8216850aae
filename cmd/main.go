package main

import (
	"context"
	"fmt"
	"os"

	"clinic-booking/cmd/bootstrap"
	"clinic-booking/internal/infrastructure/database"
	"clinic-booking/internal/repository"
	"clinic-booking/internal/seed"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic-booking",
		Short:         "Clinic appointment booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize application with all dependencies
	app, err := bootstrap.New()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Run the application
	return app.Run()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewWithDatabase()
			if err != nil {
				return err
			}
			defer app.Close()

			return database.MigrateUp(app.DB, app.Log)
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")

			app, err := bootstrap.NewWithDatabase()
			if err != nil {
				return err
			}
			defer app.Close()

			return database.MigrateDown(app.DB, steps, app.Log)
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back, 0 rolls back all")
	cmd.AddCommand(downCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo doctors, services and the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctors, _ := cmd.Flags().GetInt("doctors")
			fakerSeed, _ := cmd.Flags().GetUint64("faker-seed")

			app, err := bootstrap.NewWithDatabase()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			if err := bootstrap.EnsureAdmin(ctx, app); err != nil {
				return err
			}

			seeder := seed.NewSeeder(app.DB, app.Log, repository.NewDoctorRepository(), repository.NewServiceRepository(), fakerSeed)
			result, err := seeder.Run(ctx, doctors)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d doctors and %d services\n", result.Doctors, result.Services)
			return nil
		},
	}
	cmd.Flags().Int("doctors", 5, "Number of doctors to create")
	cmd.Flags().Uint64("faker-seed", 42, "Seed for generated names, 0 picks a random seed")
	return cmd
}
