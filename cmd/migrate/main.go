// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/carterperez-dev/docvault/internal/migrate"
)

func main() {
	var (
		dsn = flag.String("dsn", os.Getenv("DATABASE_URL"),
			"postgres connection string (defaults to DATABASE_URL)")
		dir = flag.String("dir", "migrations/sql",
			"directory holding .up.sql/.down.sql files")
	)
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] up|down|status")
		os.Exit(2)
	}

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "migrate: DATABASE_URL or -dsn is required")
		os.Exit(2)
	}

	if err := run(command, *dsn, *dir); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(command, dsn, dir string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // process exits after

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	runner := migrate.NewRunner(db, dir)

	switch command {
	case "up":
		if err := runner.Up(ctx); err != nil {
			return err
		}
		fmt.Println("migrations applied")
	case "down":
		if err := runner.Down(ctx); err != nil {
			return err
		}
		fmt.Println("last migration rolled back")
	case "status":
		applied, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("no migrations applied")
			return nil
		}
		for _, name := range applied {
			fmt.Println(name)
		}
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	return nil
}
