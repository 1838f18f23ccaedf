package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestObserver_NotifyReachesSubscribers(t *testing.T) {
	o := NewObserver()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := o.Subscribe(ctx, "post-1")
	ch2 := o.Subscribe(ctx, "post-1")
	other := o.Subscribe(ctx, "post-2")

	o.Notify(Event{Type: EventCommentAdded, PostID: "post-1", Payload: "hello"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := waitEvent(t, ch)
		assert.Equal(t, EventCommentAdded, ev.Type)
		assert.Equal(t, "post-1", ev.PostID)
	}

	// Подписчик другого поста события не видит
	select {
	case ev := <-other:
		t.Fatalf("unexpected event for post-2: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestObserver_NotifyWithoutSubscribers(t *testing.T) {
	o := NewObserver()
	// Не должно паниковать и блокироваться
	o.Notify(Event{Type: EventReactionToggled, PostID: "post-1"})
	assert.Zero(t, o.Subscribers("post-1"))
}

func TestObserver_UnsubscribeOnContextCancel(t *testing.T) {
	o := NewObserver()
	ctx, cancel := context.WithCancel(context.Background())

	o.Subscribe(ctx, "post-1")
	require.Equal(t, 1, o.Subscribers("post-1"))

	cancel()
	require.Eventually(t, func() bool {
		return o.Subscribers("post-1") == 0
	}, time.Second, 10*time.Millisecond)

	// Рассылка после отписки безопасна
	o.Notify(Event{Type: EventCommentDeleted, PostID: "post-1"})
}

func TestObserver_SlowSubscriberDoesNotBlock(t *testing.T) {
	o := NewObserver()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := o.Subscribe(ctx, "post-1")

	// Переполняем буфер: лишние события молча отбрасываются
	for i := 0; i < 20; i++ {
		o.Notify(Event{Type: EventCommentAdded, PostID: "post-1"})
	}

	require.Eventually(t, func() bool {
		return len(ch) > 0
	}, time.Second, 10*time.Millisecond)

	ev := waitEvent(t, ch)
	assert.Equal(t, EventCommentAdded, ev.Type)
}
