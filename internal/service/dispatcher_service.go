package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"wise-student-be/internal/pkg/logger"
	"wise-student-be/internal/websocket"
	"wise-student-be/pkg/events"
	pktNats "wise-student-be/pkg/nats"
)

// IDispatcherService drains the in-process outbox into the durable
// stream. Everything here is best-effort: a failed delivery is logged,
// never retried into the request path.
type IDispatcherService interface {
	Start(ctx context.Context) error
}

type dispatcherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	streamPub *pktNats.Publisher
	// hub receives direct pushes only when no stream is configured;
	// with NATS present the notifier service owns websocket delivery.
	hub    *websocket.Hub
	logger logger.ILogger
}

func NewDispatcherService(
	pubSub *gochannel.GoChannel,
	topicName string,
	streamPub *pktNats.Publisher,
	hub *websocket.Hub,
	log logger.ILogger,
) IDispatcherService {
	return &dispatcherService{
		pubSub:    pubSub,
		topicName: topicName,
		streamPub: streamPub,
		hub:       hub,
		logger:    log,
	}
}

func (s *dispatcherService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.dispatch(ctx, msg)
		}
	}()

	s.logger.Info("Dispatcher", "Event dispatcher started", map[string]interface{}{"topic": s.topicName})
	return nil
}

func (s *dispatcherService) dispatch(ctx context.Context, msg *message.Message) {
	var env eventEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		s.logger.Error("Dispatcher", "Malformed event payload", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	evt := events.BaseEvent{
		Type:       env.Type,
		Data:       env.Data,
		OccurredAt: env.OccurredAt,
	}

	if s.streamPub != nil {
		if err := s.streamPub.Publish(ctx, evt); err != nil {
			s.logger.Warn("Dispatcher", "Stream publish failed", map[string]interface{}{
				"type":  env.Type,
				"error": err.Error(),
			})
		}
	} else if s.hub != nil {
		for _, uid := range eventRecipients(env.Data) {
			s.hub.Send(uid, websocket.Notice{
				Type:       env.Type,
				Data:       env.Data,
				OccurredAt: env.OccurredAt,
			})
		}
	}

	msg.Ack()
}
