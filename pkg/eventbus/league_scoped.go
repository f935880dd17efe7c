package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/Black-And-White-Club/fitleague/pkg/attr"
)

// NewJSONMessage marshals payload into a message and carries the correlation
// id from ctx, generating one when absent.
func NewJSONMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	correlationID := attr.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = watermill.NewUUID()
	}
	middleware.SetCorrelationID(correlationID, msg)
	msg.SetContext(ctx)
	return msg, nil
}

// PublishWithLeagueScope publishes msg on {baseTopic}.{leagueID} so dashboards
// can subscribe per league with "{baseTopic}.*" or a single league suffix.
func PublishWithLeagueScope(pub message.Publisher, baseTopic, leagueID string, msg *message.Message) error {
	if leagueID == "" {
		return fmt.Errorf("leagueID cannot be empty for league-scoped publish")
	}
	return pub.Publish(FormatLeagueScopedTopic(baseTopic, leagueID), msg)
}

// FormatLeagueScopedTopic returns {baseTopic}.{leagueID} without publishing.
func FormatLeagueScopedTopic(baseTopic, leagueID string) string {
	return fmt.Sprintf("%s.%s", baseTopic, leagueID)
}
