package submissionservice

import (
	"time"

	"github.com/Black-And-White-Club/fitleague/app/events"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

type outgoing struct {
	topic   string
	payload any
}

func createdEvent(req SubmitRequest, res *SubmitResult, now time.Time) outgoing {
	return outgoing{
		topic: events.SubmissionCreatedV1,
		payload: events.SubmissionCreatedPayloadV1{
			LeagueID:     req.LeagueID,
			SubmissionID: res.SubmissionID,
			MemberID:     req.MemberID,
			Date:         calendar.Format(req.Date),
			RR:           res.RR,
			Replaced:     res.Replaced,
			OccurredAt:   now,
		},
	}
}

func reviewedEvent(e *submissiondomain.Entry, now time.Time) outgoing {
	return outgoing{
		topic: events.SubmissionReviewedV1,
		payload: events.SubmissionReviewedPayloadV1{
			LeagueID:     e.LeagueID,
			SubmissionID: e.ID,
			MemberID:     e.MemberID,
			Date:         calendar.Format(e.Date),
			Status:       string(e.Status),
			ReviewerID:   e.ReviewerID,
			AutoApproved: e.AutoApproved,
			OccurredAt:   now,
		},
	}
}
