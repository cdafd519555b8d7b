package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/knowlio-web/internal/bootstrap"
	"github.com/target/knowlio-web/internal/data"
	"github.com/target/knowlio-web/internal/service"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum time to wait for migrations")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, fmt.Errorf("--timeout must be positive, got %s", opts.Timeout)
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := connectDB(ctx, cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

type seedOptions struct {
	Reset   bool
	Migrate bool
}

func parseSeedFlags(args []string) (seedOptions, error) {
	fs := flag.NewFlagSet("seed-content", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := seedOptions{Migrate: true}
	fs.BoolVar(&opts.Reset, "reset", false, "Delete existing catalog items before seeding")
	fs.BoolVar(&opts.Migrate, "migrate", true, "Run migrations before seeding")

	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}
	if fs.NArg() > 0 {
		return seedOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func runSeedContent(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	if opts.Migrate {
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}
	}

	content := service.NewContentService(service.ContentServiceOptions{Repo: data.NewContentRepo(db)})
	n, err := content.Seed(ctx, opts.Reset)
	if err != nil {
		return err
	}

	cmdCtx.Logger.Info("content catalog seeded", "inserted", n, "reset", opts.Reset)
	return writef(cmdCtx.Out, "Seeded %d catalog items\n", n)
}
