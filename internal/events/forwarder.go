package events

import (
	"context"

	"innkeeper/config"
	"innkeeper/infras/kafka"

	"github.com/rs/zerolog/log"
)

// Forwarder drains a dispatcher subscription and publishes each event to the
// Kafka topic configured for its type.
type Forwarder struct {
	client     kafka.Client
	dispatcher Dispatcher
	config     *config.Config
}

func NewForwarder(client kafka.Client, dispatcher Dispatcher, config *config.Config) *Forwarder {
	return &Forwarder{
		client:     client,
		dispatcher: dispatcher,
		config:     config,
	}
}

// Run consumes until the context is cancelled or the dispatcher closes the
// subscription.
func (f *Forwarder) Run(ctx context.Context) {
	sub := f.dispatcher.Subscribe("kafka-forwarder", 256)
	defer f.dispatcher.Unsubscribe(sub)

	log.Info().Msg("Kafka event forwarder started.")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Kafka event forwarder stopped.")

			return
		case event, ok := <-sub.Events():
			if !ok {
				log.Info().Msg("Kafka event forwarder subscription closed.")

				return
			}

			f.forward(ctx, event)
		}
	}
}

func (f *Forwarder) forward(ctx context.Context, event Event) {
	topic := f.topicFor(event.Type)
	if topic == "" {
		log.Warn().Str("eventType", event.Type).Msg("No topic configured for event type, event skipped.")

		return
	}

	message := kafka.Message{
		Key:   event.PropertyID + ":" + event.CategoryID,
		Value: event,
	}

	err := f.client.SendMessages(ctx, topic, message)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Str("eventId", event.ID).Msg("Failed to forward event to Kafka.")
	}
}

func (f *Forwarder) topicFor(eventType string) string {
	switch eventType {
	case TypeInventoryChanged:
		return f.config.Kafka.Topics.InventoryChanged
	case TypeRateChanged:
		return f.config.Kafka.Topics.RateChanged
	default:
		return ""
	}
}
