package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/testcontainers/testcontainers-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Black-And-White-Club/fitleague/app/shared/dbmigrate"
	"github.com/Black-And-White-Club/fitleague/integration_tests/containers"
)

// resetTables lists every table the modules write, children first.
var resetTables = []string{
	"leaderboard_invalidations",
	"leaderboard_snapshots",
	"challenge_submissions",
	"challenges",
	"submissions",
	"league_memberships",
	"league_sub_teams",
	"league_teams",
	"leagues",
}

// TestEnvironment holds the containers and connections shared by a test
// package.
type TestEnvironment struct {
	Ctx     context.Context
	DB      *bun.DB
	DSN     string
	NatsURL string
	Logger  *slog.Logger

	containers []testcontainers.Container
}

// Options choose which containers to start.
type Options struct {
	WithNATS bool
}

// NewTestEnvironment starts Postgres (and NATS when asked), then applies the
// module and River migrations.
func NewTestEnvironment(ctx context.Context, opts Options) (*TestEnvironment, error) {
	env := &TestEnvironment{
		Ctx:    ctx,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.containers = append(env.containers, pgContainer)
	env.DSN = dsn

	if opts.WithNATS {
		natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
		if err != nil {
			env.Terminate()
			return nil, fmt.Errorf("failed to setup nats container: %w", err)
		}
		env.containers = append(env.containers, natsContainer)
		env.NatsURL = natsURL
	}

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	env.DB = bun.NewDB(pgdb, pgdialect.New())
	if err := env.DB.PingContext(ctx); err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dbmigrate.MigrateAll(ctx, env.DB, env.Logger); err != nil {
		env.Terminate()
		return nil, err
	}
	if err := dbmigrate.MigrateRiver(ctx, dsn, env.Logger); err != nil {
		env.Terminate()
		return nil, err
	}
	return env, nil
}

// Reset empties every module table between tests.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	_, err := env.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(resetTables, ", ")+" CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Terminate closes the database and stops the containers.
func (env *TestEnvironment) Terminate() {
	if env.DB != nil {
		if err := env.DB.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
	for _, c := range env.containers {
		if err := testcontainers.TerminateContainer(c); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}
}
