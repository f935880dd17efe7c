package leaguemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating league read-model tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS leagues (
					id UUID PRIMARY KEY,
					name VARCHAR(120) NOT NULL,
					timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
					start_date DATE NOT NULL,
					end_date DATE NOT NULL,
					status VARCHAR(16) NOT NULL DEFAULT 'draft',
					normalize_teams BOOLEAN NOT NULL DEFAULT FALSE,
					require_proof BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CHECK (end_date >= start_date)
				);

				CREATE TABLE IF NOT EXISTS league_teams (
					id UUID PRIMARY KEY,
					league_id UUID NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
					name VARCHAR(120) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_league_teams_league ON league_teams(league_id);

				CREATE TABLE IF NOT EXISTS league_sub_teams (
					id UUID PRIMARY KEY,
					league_id UUID NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
					team_id UUID NOT NULL REFERENCES league_teams(id) ON DELETE CASCADE,
					name VARCHAR(120) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_league_sub_teams_league ON league_sub_teams(league_id);

				CREATE TABLE IF NOT EXISTS league_memberships (
					league_id UUID NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
					user_id UUID NOT NULL,
					team_id UUID REFERENCES league_teams(id) ON DELETE SET NULL,
					sub_team_id UUID REFERENCES league_sub_teams(id) ON DELETE SET NULL,
					role VARCHAR(16) NOT NULL DEFAULT 'member',
					joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (league_id, user_id)
				);
				CREATE INDEX IF NOT EXISTS idx_league_memberships_team ON league_memberships(team_id);
			`); err != nil {
				return fmt.Errorf("failed to create league tables: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping league read-model tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS league_memberships;
			DROP TABLE IF EXISTS league_sub_teams;
			DROP TABLE IF EXISTS league_teams;
			DROP TABLE IF EXISTS leagues;
		`)
		return err
	})
}
