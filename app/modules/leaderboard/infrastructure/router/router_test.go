package leaderboardrouter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Black-And-White-Club/fitleague/app/events"
	leaderboardservice "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/application"
	leaderboardhandlers "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/handlers"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
)

type recordingService struct {
	leaderboardservice.Service

	mu     sync.Mutex
	causes []string
}

func (s *recordingService) InvalidateLeague(ctx context.Context, leagueID uuid.UUID, cause string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.causes = append(s.causes, cause)
	return 1, nil
}

func TestLeaderboardRouter_InvalidatesOnScoringEvents(t *testing.T) {
	t.Setenv(TestEnvironmentFlag, TestEnvironmentValue)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInMemoryEventBus(logger)
	defer bus.Close()

	wm, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	svc := &recordingService{}
	lr := NewLeaderboardRouter(logger, wm, bus, bus, noop.NewTracerProvider().Tracer("test"), nil)
	require.NoError(t, lr.Configure(ctx, leaderboardhandlers.NewHandlers(svc, calendar.RealClock{}, logger)))

	leagueID := uuid.New()
	out, err := bus.Subscribe(ctx, eventbus.FormatLeagueScopedTopic(events.LeaderboardInvalidatedV1, leagueID.String()))
	require.NoError(t, err)

	go func() { _ = wm.Run(ctx) }()
	<-wm.Running()
	defer lr.Close()

	require.NoError(t, events.Publish(ctx, bus, events.SubmissionReviewedV1, events.SubmissionReviewedPayloadV1{
		LeagueID:     leagueID,
		SubmissionID: uuid.New(),
		Status:       "approved",
	}))

	select {
	case msg := <-out:
		msg.Ack()
		var payload events.LeaderboardInvalidatedPayloadV1
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, leagueID, payload.LeagueID)
		assert.Equal(t, events.SubmissionReviewedV1, payload.Cause)
	case <-ctx.Done():
		t.Fatal("no invalidation event published")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, []string{events.SubmissionReviewedV1}, svc.causes)
}
