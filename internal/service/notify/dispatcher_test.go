package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSubscriber) HandleCalendarEvent(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSubscriber) received() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Event, len(r.events))
	copy(result, r.events)
	return result
}

type silentLogger struct{}

func (silentLogger) Info(string, ...interface{})  {}
func (silentLogger) Warn(string, ...interface{})  {}
func (silentLogger) Error(string, ...interface{}) {}

func TestDispatcher(t *testing.T) {
	t.Run("доставляет события всем подписчикам", func(t *testing.T) {
		d := NewDispatcher(silentLogger{}, 16)
		defer d.Close()

		first := &recordingSubscriber{}
		second := &recordingSubscriber{}
		d.Subscribe(first)
		d.Subscribe(second)

		d.Publish(Event{Type: EventSlotChanged, FormID: 1, SlotID: 5})

		require.Eventually(t, func() bool {
			return len(first.received()) == 1 && len(second.received()) == 1
		}, time.Second, 10*time.Millisecond)

		got := first.received()[0]
		assert.Equal(t, EventSlotChanged, got.Type)
		assert.Equal(t, int64(5), got.SlotID)
		assert.False(t, got.OccurredAt.IsZero())
	})

	t.Run("сохраняет порядок событий", func(t *testing.T) {
		d := NewDispatcher(silentLogger{}, 16)
		defer d.Close()

		sub := &recordingSubscriber{}
		d.Subscribe(sub)

		d.Publish(Event{Type: EventSlotCreated, SlotID: 1})
		d.Publish(Event{Type: EventSlotChanged, SlotID: 1})
		d.Publish(Event{Type: EventSlotRemoved, SlotID: 1})

		require.Eventually(t, func() bool {
			return len(sub.received()) == 3
		}, time.Second, 10*time.Millisecond)

		got := sub.received()
		assert.Equal(t, EventSlotCreated, got[0].Type)
		assert.Equal(t, EventSlotChanged, got[1].Type)
		assert.Equal(t, EventSlotRemoved, got[2].Type)
	})

	t.Run("публикация после закрытия не блокирует", func(t *testing.T) {
		d := NewDispatcher(silentLogger{}, 1)
		d.Close()

		done := make(chan struct{})
		go func() {
			d.Publish(Event{Type: EventSlotChanged, SlotID: 1})
			d.Publish(Event{Type: EventSlotChanged, SlotID: 2})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked after Close")
		}
	})
}
