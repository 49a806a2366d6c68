package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/db"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/migrate"
)

const usage = "up|down|status|current|version|create|validate"

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.StringVar(&opts.cmd, "cmd", "up", "migration command: "+usage)
	fs.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations source directory (create and validate)")
	fs.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	// create and validate touch the source tree only, no config needed
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		if err := migrate.ValidateEmbedded(); err != nil {
			return fmt.Errorf("embedded: %w", err)
		}
		fmt.Fprintln(out, "migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"cmd":     opts.cmd,
		"dialect": migrate.Dialect(cfg.DB.Driver),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()
	sqlDB, err := dbClient.SQL()
	if err != nil {
		return err
	}

	switch opts.cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, sqlDB, cfg.DB.Driver, opts.cmd)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, cfg.DB.Driver, opts.version)
	case "current":
		var v int64
		if v, err = migrate.Version(ctx, sqlDB, cfg.DB.Driver); err == nil {
			fmt.Fprintln(out, v)
		}
	default:
		return fmt.Errorf("unknown command %q (want %s)", opts.cmd, usage)
	}
	if err != nil {
		return err
	}

	current, err := migrate.Version(ctx, sqlDB, cfg.DB.Driver)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", current), "migrate finished")
	return nil
}
