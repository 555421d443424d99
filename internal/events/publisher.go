// Package events encodes account lifecycle notifications onto the message bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/acquisitions/apiserver/internal/mq"
	"github.com/acquisitions/apiserver/types"
	"github.com/google/uuid"
)

const (
	contentTypeJSON = "application/json"
	attrEventType   = "event_type"
)

// Publisher sends types.UserEvent messages to a single channel.
type Publisher struct {
	bus     *mq.MQ
	channel string
	now     func() time.Time
}

func NewPublisher(bus *mq.MQ, channel string) *Publisher {
	return &Publisher{bus: bus, channel: channel, now: time.Now}
}

// PublishUserEvent encodes and sends an event for user. Deletions carry
// only the id.
func (p *Publisher) PublishUserEvent(ctx context.Context, eventType types.UserEventType, user types.User) error {
	event := types.UserEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     user.ID,
		OccurredAt: p.now().UTC(),
	}
	if eventType != types.UserDeleted {
		event.User = &user
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	attrs := map[string]string{
		mq.AttrContentType: contentTypeJSON,
		attrEventType:      string(eventType),
	}
	if _, err := p.bus.Publish(ctx, p.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// Decode parses a message produced by PublishUserEvent.
func Decode(msg mq.Message) (types.UserEvent, error) {
	var event types.UserEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.UserEvent{}, fmt.Errorf("decode user event %s: %w", msg.ID, err)
	}
	if event.Type == "" {
		return types.UserEvent{}, fmt.Errorf("decode user event %s: missing type", msg.ID)
	}
	return event, nil
}
