package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pet-registry/internal/domain/pets"

	kafkago "github.com/segmentio/kafka-go"
)

const source = "pet-registry"

// messageWriter es el subconjunto de *kafkago.Writer que usamos (se reemplaza en tests).
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// CloudEvent es el sobre JSON de cada mensaje.
type CloudEvent struct {
	SpecVersion string       `json:"specversion"`
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	Type        string       `json:"type"`
	Time        time.Time    `json:"time"`
	Data        eventPayload `json:"data"`
}

type eventPayload struct {
	PetID         uint64 `json:"pet_id"`
	Actor         string `json:"actor"`
	Owner         string `json:"owner,omitempty"`
	Recipient     string `json:"recipient,omitempty"`
	PreviousOwner string `json:"previous_owner,omitempty"`
}

type Publisher struct {
	w     messageWriter
	topic string
}

func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic required")
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Publisher{w: w, topic: topic}, nil
}

// Publish envía el evento con key = pet id, así los eventos de una misma mascota
// caen en la misma partición y conservan el orden.
func (p *Publisher) Publish(ctx context.Context, e pets.Event) error {
	value, err := json.Marshal(toCloudEvent(e))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(strconv.FormatUint(uint64(e.PetID), 10)),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "ce-type", Value: []byte(e.Type)},
			{Key: "ce-id", Value: []byte(e.ID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

func toCloudEvent(e pets.Event) CloudEvent {
	return CloudEvent{
		SpecVersion: "1.0",
		ID:          e.ID,
		Source:      source,
		Type:        string(e.Type),
		Time:        e.OccurredAt,
		Data: eventPayload{
			PetID:         uint64(e.PetID),
			Actor:         string(e.Actor),
			Owner:         string(e.Owner),
			Recipient:     string(e.Recipient),
			PreviousOwner: string(e.PreviousOwner),
		},
	}
}
