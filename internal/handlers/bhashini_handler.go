// File: internal/handlers/bhashini_handler.go
package handlers

import (
	"net/http"

	"github.com/agrisaarthi/agrisaarthi/internal/services"
)

// BhashiniHandler proxies the language bridge to clients: speech, translation,
// synthesis, OCR and the combined voice flow.
type BhashiniHandler struct {
	Bridge *services.BhashiniService
}

func NewBhashiniHandler(bridge *services.BhashiniService) *BhashiniHandler {
	return &BhashiniHandler{Bridge: bridge}
}

type asrRequest struct {
	AudioContent   string `json:"audioContent"`
	SourceLanguage string `json:"sourceLanguage"`
}

func (h *BhashiniHandler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	var req asrRequest
	if err := decodeBody(r, &req); err != nil || req.AudioContent == "" {
		writeError(w, "audioContent is required", http.StatusBadRequest)
		return
	}

	text, confidence, err := h.Bridge.SpeechToText(r.Context(), req.AudioContent, req.SourceLanguage)
	if err != nil {
		writeError(w, "Speech recognition failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"text":       text,
		"confidence": confidence,
	})
}

type translateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

func (h *BhashiniHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeBody(r, &req); err != nil || req.Text == "" {
		writeError(w, "text is required", http.StatusBadRequest)
		return
	}

	translated, _ := h.Bridge.Translate(r.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	writeJSON(w, http.StatusOK, map[string]string{"translatedText": translated})
}

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Voice    string `json:"voice"`
}

func (h *BhashiniHandler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeBody(r, &req); err != nil || req.Text == "" {
		writeError(w, "text is required", http.StatusBadRequest)
		return
	}

	audio, err := h.Bridge.TextToSpeech(r.Context(), req.Text, req.Language, req.Voice)
	if err != nil {
		writeError(w, "Speech synthesis unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"audioContent": audio})
}

type ocrRequest struct {
	ImageContent   string `json:"imageContent"`
	SourceLanguage string `json:"sourceLanguage"`
}

func (h *BhashiniHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req ocrRequest
	if err := decodeBody(r, &req); err != nil || req.ImageContent == "" {
		writeError(w, "imageContent is required", http.StatusBadRequest)
		return
	}

	text, confidence, err := h.Bridge.ExtractText(r.Context(), req.ImageContent, req.SourceLanguage)
	if err != nil {
		writeError(w, "Could not read text from image", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"extractedText": text,
		"confidence":    confidence,
	})
}

type voiceFlowRequest struct {
	AudioContent   string `json:"audioContent"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// CompleteVoiceFlow answers a spoken question in one call: recognition,
// translation to English, answer generation, translation back, synthesis.
// The result is always 200; degraded stages are reflected in the body.
func (h *BhashiniHandler) CompleteVoiceFlow(w http.ResponseWriter, r *http.Request) {
	var req voiceFlowRequest
	if err := decodeBody(r, &req); err != nil || req.AudioContent == "" {
		writeError(w, "audioContent is required", http.StatusBadRequest)
		return
	}

	result := h.Bridge.CompleteVoiceFlow(r.Context(), req.AudioContent, req.SourceLanguage, req.TargetLanguage)
	writeJSON(w, http.StatusOK, result)
}
