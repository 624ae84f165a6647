package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFillsDefaults(t *testing.T) {
	b := NewBroker(4)
	ev := &Event{Type: EventExecutionRunning, Emulation: "level-2", IPFirstOctet: 15}
	b.Publish(ev)

	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	require.Len(t, b.Recent(0), 1)
}

func TestRecentWrapsHistory(t *testing.T) {
	tests := []struct {
		name      string
		published int
		limit     int
		want      []string
	}{
		{name: "partial", published: 2, limit: 0, want: []string{"0", "1"}},
		{name: "wrapped", published: 6, limit: 0, want: []string{"2", "3", "4", "5"}},
		{name: "limited", published: 6, limit: 2, want: []string{"4", "5"}},
		{name: "empty", published: 0, limit: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBroker(4)
			for i := 0; i < tt.published; i++ {
				b.Publish(&Event{Type: EventOperationComplete, Message: string(rune('0' + i))})
			}
			var got []string
			for _, ev := range b.Recent(tt.limit) {
				got = append(got, ev.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubscribe(t *testing.T) {
	b := NewBroker(0)
	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())

	b.Publish(&Event{Type: EventExecutionStopped})
	ev := <-sub
	assert.Equal(t, EventExecutionStopped, ev.Type)

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())
	_, open := <-sub
	assert.False(t, open)
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := NewBroker(0)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < 100; i++ {
		b.Publish(&Event{Type: EventOperationFailed})
	}
	assert.Len(t, sub, 50)
	assert.Len(t, b.Recent(0), 100)
}
