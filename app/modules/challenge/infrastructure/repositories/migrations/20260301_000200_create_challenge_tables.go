package challengemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating challenge tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS challenges (
					id UUID PRIMARY KEY,
					league_id UUID NOT NULL,
					name VARCHAR(255) NOT NULL,
					type VARCHAR(16) NOT NULL CHECK (type IN ('individual', 'team', 'sub_team')),
					total_points DOUBLE PRECISION NOT NULL CHECK (total_points >= 0),
					status VARCHAR(24) NOT NULL DEFAULT 'draft' CHECK (status IN
						('draft', 'scheduled', 'active', 'submission_closed', 'published', 'closed')),
					start_date DATE NOT NULL,
					end_date DATE NOT NULL,
					published_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CHECK (end_date >= start_date)
				);
				CREATE INDEX IF NOT EXISTS idx_challenges_league_end ON challenges (league_id, end_date);
			`); err != nil {
				return fmt.Errorf("failed to create challenges table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS challenge_submissions (
					id UUID PRIMARY KEY,
					challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
					league_id UUID NOT NULL,
					member_id UUID NOT NULL,
					team_id UUID,
					sub_team_id UUID,
					status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
					awarded_points DOUBLE PRECISION CHECK (awarded_points IS NULL OR awarded_points >= 0),
					proof_ref TEXT NOT NULL DEFAULT '',
					reviewer_id UUID,
					reviewed_at TIMESTAMPTZ,
					version BIGINT NOT NULL DEFAULT 1,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (challenge_id, member_id)
				);
				CREATE INDEX IF NOT EXISTS idx_challenge_submissions_pending
					ON challenge_submissions (challenge_id) WHERE status = 'pending';
			`); err != nil {
				return fmt.Errorf("failed to create challenge_submissions table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping challenge tables...")
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS challenge_submissions;
			DROP TABLE IF EXISTS challenges;
		`)
		return err
	})
}
