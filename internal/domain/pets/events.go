package pets

import (
	"context"
	"time"
)

type EventType string

const (
	EventCreated           EventType = "pet.created"
	EventUpdated           EventType = "pet.updated"
	EventTransferInitiated EventType = "pet.transfer_initiated"
	EventTransferRevoked   EventType = "pet.transfer_revoked"
	EventClaimed           EventType = "pet.claimed"
	EventDeleted           EventType = "pet.deleted"
)

// Event se emite después de cada cambio confirmado.
// Recipient solo viene en eventos de transferencia; PreviousOwner solo en claim.
type Event struct {
	ID            string
	Type          EventType
	PetID         PetID
	Actor         Identity
	Owner         Identity
	Recipient     Identity
	PreviousOwner Identity
	OccurredAt    time.Time
}

// Publisher entrega eventos hacia afuera (p.ej. Kafka). Es best-effort:
// un error se loguea pero no revierte el cambio ya confirmado.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
