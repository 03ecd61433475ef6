// File: internal/handlers/chat_handler.go
package handlers

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/dtos"
	"github.com/agrisaarthi/agrisaarthi/internal/middleware"
	"github.com/agrisaarthi/agrisaarthi/internal/services"
)

type ChatHandler struct {
	Session  *services.SessionService
	Dispatch *services.DispatchService
}

func NewChatHandler(session *services.SessionService, dispatch *services.DispatchService) *ChatHandler {
	return &ChatHandler{Session: session, Dispatch: dispatch}
}

// ListThreads returns the user's conversations, most recently updated first.
func (h *ChatHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	views, err := h.Session.LoadThreads(r.Context(), userID)
	if err != nil {
		writeError(w, "Could not retrieve chats", http.StatusInternalServerError)
		return
	}

	threads := make([]dtos.ThreadResponseDTO, 0, len(views))
	for _, v := range views {
		threads = append(threads, dtos.NewThreadResponse(v.Chat, v.Peer))
	}
	writeJSON(w, http.StatusOK, threads)
}

// StartThread opens (or reuses) a conversation with another user or the bot.
func (h *ChatHandler) StartThread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req dtos.StartThreadRequestDTO
	if err := decodeBody(r, &req); err != nil || req.PeerID == "" {
		writeError(w, "peer_id is required", http.StatusBadRequest)
		return
	}
	if req.PeerID == userID {
		writeError(w, "Cannot start a chat with yourself", http.StatusBadRequest)
		return
	}

	view, err := h.Session.StartThread(r.Context(), userID, req.PeerID)
	if err != nil {
		log.Printf("StartThread error: %v", err)
		writeError(w, "Could not start chat", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, dtos.NewThreadResponse(view.Chat, view.Peer))
}

// GetMessages selects the thread for the requesting user and returns its
// history oldest first. Users can only read threads they participate in.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	threadID := mux.Vars(r)["id"]
	messages, err := h.Session.SelectThread(r.Context(), userID, threadID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThreadNotFound):
			writeError(w, "Chat not found", http.StatusNotFound)
		case errors.Is(err, services.ErrNotParticipant):
			writeError(w, "Not a participant of this chat", http.StatusForbidden)
		default:
			writeError(w, "Could not retrieve messages", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, renderMessages(messages))
}

// SendMessage dispatches one message into the thread.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	threadID := mux.Vars(r)["id"]
	var req dtos.SendMessageRequestDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	msgType := domain.MessageType(req.Type)
	if req.Type == "" {
		msgType = domain.MessageTypeText
	}

	msg, err := h.Dispatch.Send(r.Context(), threadID, userID, req.Content, msgType, req.MediaURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			writeError(w, "Message content is required", http.StatusBadRequest)
		case errors.Is(err, services.ErrMissingMedia):
			writeError(w, "Media URL is required for this message type", http.StatusBadRequest)
		case errors.Is(err, domain.ErrInvalidMessageType):
			writeError(w, "Unknown message type", http.StatusBadRequest)
		case errors.Is(err, services.ErrThreadNotFound):
			writeError(w, "Chat not found", http.StatusNotFound)
		case errors.Is(err, services.ErrNotParticipant):
			writeError(w, "Not a participant of this chat", http.StatusForbidden)
		default:
			writeError(w, "Could not send message", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, renderMessage(*msg))
}

func renderMessages(messages []domain.Message) []dtos.MessageResponseDTO {
	out := make([]dtos.MessageResponseDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, renderMessage(m))
	}
	return out
}

// renderMessage converts a message for the wire; assistant markdown is
// rendered to HTML for the chat view.
func renderMessage(m domain.Message) dtos.MessageResponseDTO {
	resp := dtos.MessageResponseDTO{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      string(m.Type),
		MediaURL:  m.MediaURL,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.FromBot() {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(m.Content), &buf); err == nil {
			resp.HTML = buf.String()
		}
	}
	return resp
}
