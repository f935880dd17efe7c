package submissionhandlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	submissionservice "github.com/Black-And-White-Club/fitleague/app/modules/submission/application"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/httpapi"
)

// Handlers exposes the submission service over HTTP.
type Handlers struct {
	service submissionservice.Service
	logger  *slog.Logger
}

func NewHandlers(service submissionservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// Mount registers the submission routes on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Post("/api/leagues/{leagueID}/submissions", h.HandleSubmit)
	r.Get("/api/leagues/{leagueID}/members/{memberID}/days/{date}", h.HandleHistory)
	r.Post("/api/submissions/{submissionID}/review", h.HandleReview)
}

type submitBody struct {
	Date              string                           `json:"date"`
	TZOffsetMinutes   int                              `json:"tz_offset_minutes"`
	Kind              submissiondomain.EntryKind       `json:"kind"`
	Subtype           string                           `json:"subtype"`
	Metrics           []submissiondomain.WorkoutMetric `json:"metrics"`
	ProofRef          string                           `json:"proof_ref"`
	Overwrite         bool                             `json:"overwrite"`
	ExpectedCurrentID *uuid.UUID                       `json:"expected_current_id"`
}

type submitResponse struct {
	SubmissionID uuid.UUID               `json:"submission_id"`
	RR           float64                 `json:"rr"`
	Status       submissiondomain.Status `json:"status"`
	Replaced     *uuid.UUID              `json:"replaced,omitempty"`
}

// HandleSubmit stores the caller's entry for one day.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	leagueID, err := httpapi.URLUUID(r, "leagueID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	memberID, err := httpapi.CallerID(r)
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body submitBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	day, err := calendar.Parse(body.Date)
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	res, err := h.service.SubmitEntry(r.Context(), submissionservice.SubmitRequest{
		LeagueID:          leagueID,
		MemberID:          memberID,
		Date:              day,
		TZOffsetMinutes:   body.TZOffsetMinutes,
		Kind:              body.Kind,
		Subtype:           body.Subtype,
		Metrics:           body.Metrics,
		ProofRef:          body.ProofRef,
		Overwrite:         body.Overwrite,
		ExpectedCurrentID: body.ExpectedCurrentID,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, submitResponse{
		SubmissionID: res.SubmissionID,
		RR:           res.RR,
		Status:       res.Status,
		Replaced:     res.Replaced,
	})
}

type reviewBody struct {
	Decision submissiondomain.Decision `json:"decision"`
}

// HandleReview applies the caller's decision to a submission.
func (h *Handlers) HandleReview(w http.ResponseWriter, r *http.Request) {
	submissionID, err := httpapi.URLUUID(r, "submissionID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	reviewerID, err := httpapi.CallerID(r)
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body reviewBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	entry, err := h.service.ReviewSubmission(r.Context(), submissionservice.ReviewRequest{
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Decision:     body.Decision,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, entry)
}

// HandleHistory lists every version of a member's day.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	leagueID, err := httpapi.URLUUID(r, "leagueID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	memberID, err := httpapi.URLUUID(r, "memberID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	day, err := calendar.Parse(chi.URLParam(r, "date"))
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	entries, err := h.service.History(r.Context(), leagueID, memberID, day)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

