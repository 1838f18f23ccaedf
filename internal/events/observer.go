package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EventType - вид события вовлеченности.
type EventType string

const (
	EventCommentAdded    EventType = "comment_added"
	EventCommentDeleted  EventType = "comment_deleted"
	EventReactionToggled EventType = "reaction_toggled"
)

// Event - событие по конкретному посту, рассылаемое подписчикам.
type Event struct {
	Type    EventType   `json:"type"`
	PostID  string      `json:"postId"`
	Payload interface{} `json:"payload,omitempty"`
}

// Observer хранит каналы подписчиков на события постов.
type Observer struct {
	mu sync.RWMutex
	//          map[postID] map[subscriberID] channel
	subs map[string]map[string]chan Event
}

// NewObserver - конструктор для наблюдателя.
func NewObserver() *Observer {
	return &Observer{
		subs: make(map[string]map[string]chan Event),
	}
}

// Subscribe подписывает на события поста. Подписка снимается при отмене
// контекста.
func (o *Observer) Subscribe(ctx context.Context, postID string) <-chan Event {
	ch := make(chan Event, 8)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[postID] == nil {
		o.subs[postID] = make(map[string]chan Event)
	}
	o.subs[postID][subID] = ch
	o.mu.Unlock()

	// Горутина для очистки при отключении клиента. Канал намеренно не
	// закрывается: Notify может держать его в снимке рассылки.
	go func() {
		<-ctx.Done()
		o.mu.Lock()
		if postSubs, ok := o.subs[postID]; ok {
			delete(postSubs, subID)
			if len(postSubs) == 0 {
				delete(o.subs, postID)
			}
		}
		o.mu.Unlock()
	}()

	return ch
}

// Notify асинхронно рассылает событие подписчикам поста. Медленный
// подписчик пропускает событие, отправка не блокируется.
func (o *Observer) Notify(event Event) {
	o.mu.RLock()
	postSubs, ok := o.subs[event.PostID]
	if !ok {
		o.mu.RUnlock()
		return
	}
	channels := make([]chan Event, 0, len(postSubs))
	for _, ch := range postSubs {
		channels = append(channels, ch)
	}
	o.mu.RUnlock()

	go func() {
		for _, ch := range channels {
			select {
			case ch <- event:
			default:
				// Клиент не успевает читать - событие пропускается
			}
		}
	}()
}

// Subscribers возвращает число подписчиков поста.
func (o *Observer) Subscribers(postID string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[postID])
}
