// Package dbmigrate runs the per-module bun migrations and the River schema
// migration.
package dbmigrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	challengemigrations "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/repositories/migrations"
	leaderboardmigrations "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/repositories/migrations"
	leaguemigrations "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories/migrations"
	submissionmigrations "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
)

// moduleOrder lists modules so that referenced tables exist first.
var moduleOrder = []string{"league", "submission", "challenge", "leaderboard"}

// Migrators returns one bun migrator per module.
func Migrators(db *bun.DB) map[string]*migrate.Migrator {
	return map[string]*migrate.Migrator{
		"league":      migrate.NewMigrator(db, leaguemigrations.Migrations),
		"submission":  migrate.NewMigrator(db, submissionmigrations.Migrations),
		"challenge":   migrate.NewMigrator(db, challengemigrations.Migrations),
		"leaderboard": migrate.NewMigrator(db, leaderboardmigrations.Migrations),
	}
}

// Modules returns the module names in migration order.
func Modules(migrators map[string]*migrate.Migrator) []string {
	rank := make(map[string]int, len(moduleOrder))
	for i, name := range moduleOrder {
		rank[name] = i
	}
	names := make([]string, 0, len(migrators))
	for name := range migrators {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, okI := rank[names[i]]
		rj, okJ := rank[names[j]]
		switch {
		case okI && okJ:
			return ri < rj
		case okI != okJ:
			return okI
		default:
			return names[i] < names[j]
		}
	})
	return names
}

// MigrateAll initializes the migration tables and applies every module's
// pending migrations in order.
func MigrateAll(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrators := Migrators(db)
	for _, name := range Modules(migrators) {
		migrator := migrators[name]
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", name, err)
		}
		group, err := migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", name, err)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", attr.String("module", name))
		} else {
			logger.InfoContext(ctx, "Migrated module", attr.String("module", name), attr.String("group", group.String()))
		}
	}
	return nil
}

// MigrateRiver brings the River job tables up to date.
func MigrateRiver(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	logger.InfoContext(ctx, "River migrations complete", attr.Int("applied", len(res.Versions)))
	return nil
}
