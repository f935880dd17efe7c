package submissiondb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
)

// Submission is one stored entry for a (member, day). Replacements keep the
// old row with is_current=false and a superseded_by pointer.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID              uuid.UUID                    `bun:"id,pk,type:uuid"`
	LeagueID        uuid.UUID                    `bun:"league_id,type:uuid,notnull"`
	MemberID        uuid.UUID                    `bun:"member_id,type:uuid,notnull"`
	TeamID          *uuid.UUID                   `bun:"team_id,type:uuid"`
	EntryDate       time.Time                    `bun:"entry_date,type:date,notnull"`
	Kind            submissiondomain.EntryKind   `bun:"kind,notnull"`
	Subtype         string                       `bun:"subtype,notnull,default:''"`
	MetricKind      *submissiondomain.MetricKind `bun:"metric_kind"`
	MetricValue     *float64                     `bun:"metric_value"`
	RR              float64                      `bun:"rr,notnull"`
	Status          submissiondomain.Status      `bun:"status,notnull"`
	ProofRef        string                       `bun:"proof_ref,notnull,default:''"`
	ReviewerID      *uuid.UUID                   `bun:"reviewer_id,type:uuid"`
	ReviewedAt      *time.Time                   `bun:"reviewed_at"`
	AutoApproved    bool                         `bun:"auto_approved,notnull,default:false"`
	AwardedPoints   int                          `bun:"awarded_points,notnull,default:0"`
	TZOffsetMinutes int                          `bun:"tz_offset_minutes,notnull,default:0"`
	ReuploadOf      *uuid.UUID                   `bun:"reupload_of,type:uuid"`
	SupersededBy    *uuid.UUID                   `bun:"superseded_by,type:uuid"`
	IsCurrent       bool                         `bun:"is_current,notnull,default:true"`
	Version         int64                        `bun:"version,notnull,default:1"`
	CreatedAt       time.Time                    `bun:"created_at,notnull"`
	UpdatedAt       time.Time                    `bun:"updated_at,notnull"`
}

// ToDomain converts the row into the domain entry.
func (s *Submission) ToDomain() submissiondomain.Entry {
	e := submissiondomain.Entry{
		ID:              s.ID,
		LeagueID:        s.LeagueID,
		MemberID:        s.MemberID,
		TeamID:          s.TeamID,
		Date:            s.EntryDate,
		Kind:            s.Kind,
		Subtype:         s.Subtype,
		RR:              s.RR,
		Status:          s.Status,
		ProofRef:        s.ProofRef,
		ReviewerID:      s.ReviewerID,
		ReviewedAt:      s.ReviewedAt,
		AutoApproved:    s.AutoApproved,
		AwardedPoints:   s.AwardedPoints,
		TZOffsetMinutes: s.TZOffsetMinutes,
		ReuploadOf:      s.ReuploadOf,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.MetricKind != nil && s.MetricValue != nil {
		e.Metric = &submissiondomain.WorkoutMetric{Kind: *s.MetricKind, Value: *s.MetricValue}
	}
	return e
}

// ReviewUpdate is the state written by a reviewer or the auto-approval sweep.
type ReviewUpdate struct {
	Status        submissiondomain.Status
	ReviewerID    *uuid.UUID
	ReviewedAt    time.Time
	AwardedPoints int
	AutoApproved  bool
}
