package challengehandlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	challengeservice "github.com/Black-And-White-Club/fitleague/app/modules/challenge/application"
	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/httpapi"
)

// Handlers exposes challenge reviews and lifecycle changes over HTTP.
type Handlers struct {
	service challengeservice.Service
	logger  *slog.Logger
}

func NewHandlers(service challengeservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// Mount registers the challenge routes on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Route("/api/challenges/{challengeID}", func(r chi.Router) {
		r.Post("/submissions/{submissionID}/award", h.HandleAward)
		r.Get("/submissions/{submissionID}/award", h.HandleVisibleAward)
		r.Post("/publish", h.HandlePublish)
		r.Post("/advance", h.HandleAdvance)
	})
}

type awardBody struct {
	Action        challengedomain.Action `json:"action"`
	AwardedPoints *float64               `json:"awarded_points"`
}

// HandleAward records the caller's award for a challenge submission.
func (h *Handlers) HandleAward(w http.ResponseWriter, r *http.Request) {
	challengeID, err := httpapi.URLUUID(r, "challengeID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
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

	var body awardBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	award, err := h.service.DistributeChallengePoints(r.Context(), challengeservice.AwardRequest{
		ChallengeID:   challengeID,
		SubmissionID:  submissionID,
		ReviewerID:    reviewerID,
		Action:        body.Action,
		AwardedPoints: body.AwardedPoints,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, award)
}

// HandleVisibleAward reports a stored award in both scales.
func (h *Handlers) HandleVisibleAward(w http.ResponseWriter, r *http.Request) {
	challengeID, err := httpapi.URLUUID(r, "challengeID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	submissionID, err := httpapi.URLUUID(r, "submissionID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	award, err := h.service.VisibleAward(r.Context(), challengeID, submissionID)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, award)
}

// HandlePublish publishes a challenge's results.
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	challengeID, err := httpapi.URLUUID(r, "challengeID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	actorID, err := httpapi.CallerID(r)
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ch, err := h.service.PublishChallenge(r.Context(), challengeID, actorID)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, ch)
}

type advanceBody struct {
	To challengedomain.Status `json:"to"`
}

// HandleAdvance moves a challenge one stage forward.
func (h *Handlers) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	challengeID, err := httpapi.URLUUID(r, "challengeID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}
	actorID, err := httpapi.CallerID(r)
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	var body advanceBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	ch, err := h.service.AdvanceChallenge(r.Context(), challengeID, actorID, body.To)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, ch)
}
