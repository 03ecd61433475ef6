// File: internal/handlers/bot_handler.go
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/services"
)

// BotHandler serves the bot's message-processing contract locally, so
// external clients can drive the responder the same way the dispatch
// worker does.
type BotHandler struct {
	Bot      *services.BotService
	Users    *services.UserService
	Dispatch *services.DispatchService
}

func NewBotHandler(bot *services.BotService, users *services.UserService, dispatch *services.DispatchService) *BotHandler {
	return &BotHandler{Bot: bot, Users: users, Dispatch: dispatch}
}

type processMessageRequest struct {
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

// ProcessMessage generates a reply for the given message and delivers it
// into the thread as the bot.
func (h *BotHandler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	var req processMessageRequest
	if err := decodeBody(r, &req); err != nil || req.ChatID == "" || req.Content == "" || req.UserID == "" {
		writeError(w, "chat_id, content and user_id are required", http.StatusBadRequest)
		return
	}

	language := "en"
	if u, err := h.Users.GetProfile(r.Context(), req.UserID); err == nil && u.Language != "" {
		language = u.Language
	}

	reply := h.Bot.GenerateReply(r.Context(), req.ChatID, req.Content, req.UserID, language)

	msg, err := h.Dispatch.Send(r.Context(), req.ChatID, domain.BotParticipantID, reply, domain.MessageTypeText, "")
	if err != nil {
		if errors.Is(err, services.ErrThreadNotFound) || errors.Is(err, services.ErrNotParticipant) {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
		log.Printf("Bot reply delivery error: %v", err)
		writeError(w, "Failed to save bot response", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"message":  "Bot response sent",
		"response": msg.Content,
	})
}
