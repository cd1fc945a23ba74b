// Утилита управления миграциями схемы orderhub.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vkozyrev/orderhub/internal/storage/postgres"
)

const commandTimeout = 30 * time.Second

func main() {
	var (
		command string
		steps   int
		dsn     string
	)

	flag.StringVar(&command, "command", "up", "migration command: up|down|status")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: ORDERHUB_POSTGRES_DSN)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("ORDERHUB_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("ORDERHUB_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	command = strings.ToLower(strings.TrimSpace(command))
	if err := run(ctx, store, command, steps); err != nil {
		fail("%s failed: %v", command, err)
	}

	version, applied, err := store.MigrationStatus(ctx)
	if err != nil {
		fail("migration status failed: %v", err)
	}
	fmt.Printf("%s ok: version=%d applied=%d\n", command, version, applied)
}

func run(ctx context.Context, store *postgres.Store, command string, steps int) error {
	switch command {
	case "up":
		return store.MigrateUp(ctx, steps)
	case "down":
		if steps <= 0 {
			steps = 1
		}
		return store.MigrateDown(ctx, steps)
	case "status":
		return nil
	default:
		return fmt.Errorf("unsupported command %q (use up|down|status)", command)
	}
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
