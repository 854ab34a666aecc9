package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/logger"
	"github.com/tripgather/tripgather-backend/pkg/migrate"
)

type options struct {
	cmd       string
	dir       string
	name      string
	version   string
	allowDown bool
}

// command is one -cmd value. Commands with a nil runDB never open the
// database, so create and validate work without TRIPGATHER_DB_* set.
type command struct {
	destructive bool
	runFS       func(opts options) error
	runDB       func(ctx context.Context, sqlDB *sql.DB, opts options) error
}

var commands = map[string]command{
	"create":   {runFS: createMigration},
	"validate": {runFS: validateMigrations},
	"up":       {runDB: gooseCommand("up")},
	"status":   {runDB: gooseCommand("status")},
	"down":     {destructive: true, runDB: gooseCommand("down")},
	"version":  {destructive: true, runDB: migrateToVersion},
}

func createMigration(opts options) error {
	if opts.name == "" {
		return errors.New("missing -name for create")
	}
	path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
	if err != nil {
		return err
	}
	fmt.Println("created migration:", path)
	return nil
}

func validateMigrations(opts options) error {
	if err := migrate.ValidateDir(opts.dir); err != nil {
		return err
	}
	fmt.Println("migration validation passed")
	return nil
}

func migrateToVersion(ctx context.Context, sqlDB *sql.DB, opts options) error {
	if opts.version == "" {
		return errors.New("missing -version for version command")
	}
	return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
}

func gooseCommand(name string) func(context.Context, *sql.DB, options) error {
	return func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		return migrate.Run(ctx, sqlDB, opts.dir, name)
	}
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: "+strings.Join(commandNames(), "|"))
	flag.StringVar(&opts.dir, "dir", "", "goose migrations directory (default: embedded for DB commands, "+migrate.DefaultDir+" for create/validate)")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&opts.allowDown, "allow-down", false, "permit down/version against a prod database")
	flag.Parse()

	cmd, ok := commands[opts.cmd]
	if !ok {
		fail(fmt.Errorf("unknown -cmd value %q", opts.cmd))
	}
	opts.dir = resolveDir(opts.dir, cmd)

	if cmd.runFS != nil {
		if err := cmd.runFS(opts); err != nil {
			fail(fmt.Errorf("%s: %w", opts.cmd, err))
		}
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	if err := guardDestructive(cfg.App, cmd, opts); err != nil {
		fail(err)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")
	if err := cmd.runDB(ctx, sqlDB, opts); err != nil {
		logg.Error(ctx, "migrate failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migrate complete")
}

// resolveDir runs DB commands from the embedded set so the released binary
// applies exactly the schema it was built against.
func resolveDir(dir string, cmd command) string {
	if dir != "" {
		return dir
	}
	if cmd.runDB != nil {
		return migrate.EmbeddedDir
	}
	return migrate.DefaultDir
}

// guardDestructive refuses to roll back the prod schema without -allow-down.
func guardDestructive(app config.AppConfig, cmd command, opts options) error {
	if cmd.destructive && app.IsProd() && !opts.allowDown {
		return fmt.Errorf("refusing -cmd=%s against %s without -allow-down", opts.cmd, app.Env)
	}
	return nil
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
