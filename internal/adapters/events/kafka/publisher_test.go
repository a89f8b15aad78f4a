package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pet-registry/internal/domain/pets"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewPublisher_Validates(t *testing.T) {
	_, err := NewPublisher(nil, "topic")
	assert.Error(t, err)

	_, err = NewPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	p, err := NewPublisher([]string{"localhost:9092"}, "pet-registry.events")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestPublisher_Publish_ClaimEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{w: w, topic: "pet-registry.events"}

	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), pets.Event{
		ID:            "ev-1",
		Type:          pets.EventClaimed,
		PetID:         42,
		Actor:         "bob",
		Owner:         "bob",
		Recipient:     "bob",
		PreviousOwner: "alice",
		OccurredAt:    at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "ce-type", msg.Headers[0].Key)
	assert.Equal(t, "pet.claimed", string(msg.Headers[0].Value))

	var ce CloudEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ce))
	assert.Equal(t, "1.0", ce.SpecVersion)
	assert.Equal(t, "ev-1", ce.ID)
	assert.Equal(t, "pet-registry", ce.Source)
	assert.Equal(t, "pet.claimed", ce.Type)
	assert.EqualValues(t, 42, ce.Data.PetID)
	assert.Equal(t, "alice", ce.Data.PreviousOwner)
}

func TestPublisher_Publish_OmitsEmptyParties(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{w: w, topic: "t"}

	require.NoError(t, p.Publish(context.Background(), pets.Event{ID: "ev-2", Type: pets.EventCreated, PetID: 1, Actor: "alice", Owner: "alice"}))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &raw))
	data := raw["data"].(map[string]any)
	assert.NotContains(t, data, "recipient")
	assert.NotContains(t, data, "previous_owner")
}

func TestPublisher_Publish_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Publisher{w: &fakeWriter{err: boom}, topic: "t"}

	err := p.Publish(context.Background(), pets.Event{ID: "x", Type: pets.EventDeleted, PetID: 9})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "write to t")
}
