package handlerwrapper

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
)

type ping struct {
	LeagueID string `json:"league_id"`
}

func TestWrapTransformingTyped(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")

	tests := []struct {
		name       string
		payload    string
		handler    func(context.Context, *ping) ([]Result, error)
		wantErr    bool
		wantTopics []string
	}{
		{
			name:    "results become routed messages",
			payload: `{"league_id":"abc"}`,
			handler: func(ctx context.Context, p *ping) ([]Result, error) {
				assert.Equal(t, "abc", p.LeagueID)
				assert.Equal(t, "corr-1", attr.CorrelationID(ctx))
				return []Result{{Topic: "fitleague.out.v1", Payload: p}}, nil
			},
			wantTopics: []string{"fitleague.out.v1"},
		},
		{
			name:    "handler error is returned for redelivery",
			payload: `{"league_id":"abc"}`,
			handler: func(ctx context.Context, p *ping) ([]Result, error) {
				return nil, errors.New("db down")
			},
			wantErr: true,
		},
		{
			name:    "undecodable payload is dropped",
			payload: `{not json`,
			handler: func(ctx context.Context, p *ping) ([]Result, error) {
				t.Fatal("handler must not run")
				return nil, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := WrapTransformingTyped("test.handler", slog.Default(), tracer, tt.handler)
			msg := message.NewMessage(watermill.NewUUID(), []byte(tt.payload))
			middleware.SetCorrelationID("corr-1", msg)

			out, err := h(msg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, out, len(tt.wantTopics))
			for i, topic := range tt.wantTopics {
				assert.Equal(t, topic, out[i].Metadata.Get(eventbus.MetadataTopic))
				assert.Equal(t, "corr-1", middleware.MessageCorrelationID(out[i]))
			}
		})
	}
}
