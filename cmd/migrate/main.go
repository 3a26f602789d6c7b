// Command migrate applies the FloraCare database schema.
//
// The connection defaults to the [database] section of the loaded
// configuration. -dsn or FLORACARE_DB_DSN override it with a postgres:// URL.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/internal/schema"
)

const envDSN = "FLORACARE_DB_DSN"

type options struct {
	dsn     string
	up      bool
	down    bool
	steps   int
	version bool
	force   int
}

func main() {
	var opts options
	flag.StringVar(&opts.dsn, "dsn", "", "postgres:// connection URL (default from config)")
	flag.BoolVar(&opts.up, "up", false, "apply all pending migrations")
	flag.BoolVar(&opts.down, "down", false, "revert all migrations")
	flag.IntVar(&opts.steps, "steps", 0, "apply N migrations, negative reverts")
	flag.BoolVar(&opts.version, "version", false, "print the current schema version")
	flag.IntVar(&opts.force, "force", -1, "force the recorded version without migrating")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	dsn, err := resolveDSN(opts.dsn)
	if err != nil {
		return err
	}

	m, err := schema.Migrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	ignoreNoChange := func(err error) error {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}

	switch {
	case opts.version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case opts.force >= 0:
		if err := m.Force(opts.force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		fmt.Printf("forced to version %d\n", opts.force)
	case opts.up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Println("migrations applied")
	case opts.down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Println("migrations reverted")
	case opts.steps != 0:
		if err := ignoreNoChange(m.Steps(opts.steps)); err != nil {
			return fmt.Errorf("migrate steps: %w", err)
		}
		fmt.Printf("applied %d migration steps\n", opts.steps)
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn URL] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
	}
	return nil
}

func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if env := os.Getenv(envDSN); env != "" {
		return env, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("config load failed: %w", err)
	}
	return cfg.Database.URL(), nil
}
