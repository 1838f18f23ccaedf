package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const keepAlivePingInterval = 10 * time.Second

// streamEvents отдает live-поток событий поста по websocket: новые
// комментарии, удаления, переключения реакций.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	// Проверяем пост до апгрейда, чтобы отдать нормальный 404
	if _, err := h.Store.GetPostByID(r.Context(), postID); err != nil {
		h.translateError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	eventCh := h.Observer.Subscribe(ctx, postID)

	// Читающая горутина нужна только чтобы заметить отключение клиента
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAlivePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventCh:
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
