package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierPublishSubscribe(t *testing.T) {
	n := NewNotifier()

	var got []Change
	cancel := n.Subscribe("bookings", func(c Change) {
		got = append(got, c)
	})
	defer cancel()

	n.Publish(Change{Collection: "bookings", Kind: ChangeCreated, DocumentID: "a"})
	n.Publish(Change{Collection: "other", Kind: ChangeCreated, DocumentID: "b"})

	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].DocumentID)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestNotifierCancelIsIdempotent(t *testing.T) {
	n := NewNotifier()

	calls := 0
	cancel := n.Subscribe("bookings", func(Change) { calls++ })
	assert.Equal(t, 1, n.SubscriberCount("bookings"))

	cancel()
	cancel()
	assert.Equal(t, 0, n.SubscriberCount("bookings"))

	n.Publish(Change{Collection: "bookings", Kind: ChangeDeleted})
	assert.Equal(t, 0, calls)
}

func TestNotifierMultipleSubscribers(t *testing.T) {
	n := NewNotifier()

	first, second := 0, 0
	cancelFirst := n.Subscribe("bookings", func(Change) { first++ })
	defer n.Subscribe("bookings", func(Change) { second++ })()

	n.Publish(Change{Collection: "bookings", Kind: ChangeUpdated})
	cancelFirst()
	n.Publish(Change{Collection: "bookings", Kind: ChangeUpdated})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}
