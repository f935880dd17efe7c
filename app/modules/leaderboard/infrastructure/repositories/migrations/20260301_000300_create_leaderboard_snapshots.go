package leaderboardmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating leaderboard snapshot tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
					league_id UUID NOT NULL,
					from_date DATE NOT NULL,
					to_date DATE NOT NULL,
					mode VARCHAR(16) NOT NULL CHECK (mode IN ('raw', 'normalized')),
					payload JSONB NOT NULL,
					computed_at TIMESTAMPTZ NOT NULL,
					PRIMARY KEY (league_id, from_date, to_date, mode)
				);
			`); err != nil {
				return fmt.Errorf("failed to create leaderboard_snapshots table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS leaderboard_invalidations (
					league_id UUID PRIMARY KEY,
					invalidated_at TIMESTAMPTZ NOT NULL,
					cause VARCHAR(64) NOT NULL DEFAULT ''
				);
			`); err != nil {
				return fmt.Errorf("failed to create leaderboard_invalidations table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping leaderboard snapshot tables...")
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS leaderboard_invalidations;
			DROP TABLE IF EXISTS leaderboard_snapshots;
		`)
		return err
	})
}
