package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/superadmin/internal/sessions"
)

func TestPublishFansOut(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe()
	c := b.Subscribe()
	defer b.Unsubscribe(a)
	defer b.Unsubscribe(c)

	b.Publish(Event{Type: SessionEnded, Session: &sessions.Session{ID: "s1", Status: sessions.StatusEnded}})

	for _, ch := range []chan []byte{a, c} {
		var got Event
		require.NoError(t, json.Unmarshal(<-ch, &got))
		assert.Equal(t, SessionEnded, got.Type)
		assert.Equal(t, "s1", got.Session.ID)
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	for range 100 {
		b.Publish(Event{Type: SessionUpdated})
	}
	assert.Len(t, ch, cap(ch))

	b.Unsubscribe(ch)
	assert.Zero(t, b.Subscribers())
}
