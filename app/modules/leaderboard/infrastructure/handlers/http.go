package leaderboardhandlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	leaderboardservice "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/application"
	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/httpapi"
)

// maxTimeout caps the caller-supplied wait for a fresh computation.
const maxTimeout = 30 * time.Second

// Mount registers the leaderboard routes on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Route("/api/leagues/{leagueID}/leaderboard", func(r chi.Router) {
		r.Get("/", h.HandleGetLeaderboard)
		r.Post("/refresh", h.HandleRefresh)
	})
}

// HandleGetLeaderboard serves the settled leaderboard and realtime scoreboard.
// from and to accept a date or relative English such as "last monday".
func (h *Handlers) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	leagueID, err := httpapi.URLUUID(r, "leagueID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	req := leaderboardservice.ComputeRequest{
		LeagueID: leagueID,
		Mode:     leaderboarddomain.Mode(q.Get("mode")),
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &req.From}, {"to", &req.To}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		day, err := h.parser.ParseDay(raw, time.UTC, h.clock)
		if err != nil {
			httpapi.BadRequest(w, fmt.Sprintf("%s: %v", p.name, err))
			return
		}
		*p.dst = &day
	}
	if raw := q.Get("max_stale"); raw != "" {
		d, err := parseSeconds(raw)
		if err != nil {
			httpapi.BadRequest(w, "max_stale: "+err.Error())
			return
		}
		req.MaxStale = &d
	}
	if raw := q.Get("timeout"); raw != "" {
		d, err := parseSeconds(raw)
		if err != nil {
			httpapi.BadRequest(w, "timeout: "+err.Error())
			return
		}
		req.Timeout = min(d, maxTimeout)
	}

	lb, err := h.service.ComputeLeaderboard(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, lb)
}

// HandleRefresh recomputes a league's leaderboard, bypassing the cache.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	leagueID, err := httpapi.URLUUID(r, "leagueID")
	if err != nil {
		httpapi.BadRequest(w, err.Error())
		return
	}

	lb, err := h.service.RefreshLeaderboardCache(r.Context(), leagueID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, lb)
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, leaderboardservice.ErrRefreshThrottled):
		w.Header().Set("Retry-After", "60")
		httpapi.WriteJSON(w, http.StatusTooManyRequests, httpapi.ErrorBody{Kind: "rate_limited", Reason: "refresh was requested too often for this league"})
	case errors.Is(err, leaderboardservice.ErrNotReady):
		w.Header().Set("Retry-After", "5")
		httpapi.WriteJSON(w, http.StatusServiceUnavailable, httpapi.ErrorBody{Kind: "not_ready", Reason: "the leaderboard is still being computed"})
	default:
		httpapi.WriteError(w, r, h.logger, err)
	}
}

// parseSeconds accepts a whole number of seconds or a Go duration.
func parseSeconds(raw string) (time.Duration, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is neither seconds nor a duration", raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}
