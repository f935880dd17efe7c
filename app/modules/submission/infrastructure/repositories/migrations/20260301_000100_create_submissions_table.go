package submissionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating submissions table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS submissions (
					id UUID PRIMARY KEY,
					league_id UUID NOT NULL,
					member_id UUID NOT NULL,
					team_id UUID,
					entry_date DATE NOT NULL,
					kind VARCHAR(16) NOT NULL CHECK (kind IN ('workout', 'rest')),
					subtype VARCHAR(32) NOT NULL DEFAULT '',
					metric_kind VARCHAR(16),
					metric_value DOUBLE PRECISION,
					rr DOUBLE PRECISION NOT NULL CHECK (rr >= 0 AND rr <= 2),
					status VARCHAR(16) NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
					proof_ref TEXT NOT NULL DEFAULT '',
					reviewer_id UUID,
					reviewed_at TIMESTAMPTZ,
					auto_approved BOOLEAN NOT NULL DEFAULT FALSE,
					awarded_points INTEGER NOT NULL DEFAULT 0,
					tz_offset_minutes INTEGER NOT NULL DEFAULT 0,
					reupload_of UUID REFERENCES submissions(id),
					superseded_by UUID,
					is_current BOOLEAN NOT NULL DEFAULT TRUE,
					version BIGINT NOT NULL DEFAULT 1,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create submissions table: %w", err)
			}

			// One current row per member and day; superseded rows stay as history.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_submissions_current_day
					ON submissions (league_id, member_id, entry_date) WHERE is_current;
				CREATE INDEX IF NOT EXISTS idx_submissions_league_day
					ON submissions (league_id, entry_date) WHERE is_current;
				CREATE INDEX IF NOT EXISTS idx_submissions_pending
					ON submissions (created_at) WHERE is_current AND status = 'pending';
			`); err != nil {
				return fmt.Errorf("failed to create submissions indexes: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping submissions table...")
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS submissions;`)
		return err
	})
}
