package service

import (
	"context"

	"github.com/google/uuid"

	"wise-student-be/internal/pkg/logger"
	"wise-student-be/internal/websocket"
	"wise-student-be/pkg/events"
	pktNats "wise-student-be/pkg/nats"
)

// INotifierService turns durable stream events into live pushes. It
// consumes the entitlement stream with a durable consumer, so pushes
// survive a notifier restart (clients reconnecting mid-gap still miss
// frames; the websocket is a convenience channel, not a ledger).
type INotifierService interface {
	Start() error
}

type notifierService struct {
	subscriber *pktNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewNotifierService(subscriber *pktNats.Subscriber, hub *websocket.Hub, log logger.ILogger) INotifierService {
	return &notifierService{
		subscriber: subscriber,
		hub:        hub,
		logger:     log,
	}
}

func (s *notifierService) Start() error {
	err := s.subscriber.Subscribe("entitlement.>", "entitlement-notifier", s.handleEvent)
	if err != nil {
		s.logger.Error("Notifier", "Failed to start stream consumer", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("Notifier", "Listening on entitlement.>", nil)
	return nil
}

func (s *notifierService) handleEvent(ctx context.Context, event events.Event) error {
	for _, uid := range eventRecipients(event.Payload()) {
		s.hub.Send(uid, websocket.Notice{
			Type:       event.EventType(),
			Data:       event.Payload(),
			OccurredAt: event.Timestamp(),
		})
	}
	return nil
}

// eventRecipients extracts the user ids an event concerns. Link events
// carry both sides; everything else carries user_id.
func eventRecipients(data map[string]interface{}) []uuid.UUID {
	var out []uuid.UUID
	for _, key := range []string{"user_id", "parent_id", "child_id"} {
		raw, ok := data[key]
		if !ok {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			continue
		}
		if uid, err := uuid.Parse(str); err == nil {
			out = append(out, uid)
		}
	}
	return out
}
