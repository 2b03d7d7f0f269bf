package service

import (
	"context"
	"encoding/json"
	"log"

	"cellexis-assistant/internal/websocket"
	"cellexis-assistant/pkg/events"
	"cellexis-assistant/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process event bus and fans each event out to
// the WebSocket hub (live UI updates) and, when configured, to NATS for
// external subscribers.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *websocket.Hub
	stream    *nats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
	stream *nats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
		stream:    stream,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var env events.Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		log.Printf("[ERROR] Failed to unmarshal event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.hub != nil {
		cs.hub.Broadcast(env)
	}

	if cs.stream != nil {
		ev := events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.At}
		if err := cs.stream.Publish(ctx, ev); err != nil {
			// NATS is an optional mirror; never block or retry the bus
			// on its account.
			log.Printf("[WARN] Failed to mirror event %s to NATS: %v", env.Type, err)
		}
	}

	msg.Ack()
}
