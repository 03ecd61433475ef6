// File: internal/handlers/ws_handler.go
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/agrisaarthi/agrisaarthi/internal/middleware"
	"github.com/agrisaarthi/agrisaarthi/internal/realtime"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/chat"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler streams a thread's insert notifications to the client over a
// websocket.
type WSHandler struct {
	ChatRepo    chat.ChatRepository
	Broadcaster *realtime.Broadcaster
	upgrader    websocket.Upgrader
}

func NewWSHandler(chatRepo chat.ChatRepository, broadcaster *realtime.Broadcaster) *WSHandler {
	return &WSHandler{
		ChatRepo:    chatRepo,
		Broadcaster: broadcaster,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			return true
		}},
	}
}

// MessageFeed upgrades the connection and relays every message inserted into
// the thread until the client disconnects.
func (h *WSHandler) MessageFeed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	threadID := mux.Vars(r)["id"]
	thread, err := h.ChatRepo.FindByID(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, chat.ErrChatNotFound) {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not open feed", http.StatusInternalServerError)
		return
	}
	if !thread.HasParticipant(userID) {
		writeError(w, "Not a participant of this chat", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed, _ := h.Broadcaster.Subscribe(ctx, threadID)

	// Drain client frames so close and ping control messages are processed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for msg := range feed {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(renderMessage(*msg)); err != nil {
			log.Printf("Websocket write failed for thread %s: %v", threadID, err)
			return
		}
	}
}
