// File: internal/services/bot_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/services/bot"
)

const botFallbackTemplate = `I understand you're asking about "%s". Let me help you with that! For detailed agricultural advice, please provide more specific information about your crops, region, or farming challenges.`

// BotService generates assistant replies. A configured remote bot service URL
// takes precedence; otherwise the local knowledge responder answers.
type BotService struct {
	responder bot.Responder
	logger    Logger
}

// NewBotService picks the responder. translator, retriever and completer are
// optional collaborators for the local responder and may be nil.
func NewBotService(remoteURL string, timeout time.Duration, translator bot.Translator, retriever bot.Retriever, completer bot.Completer, logger Logger) (*BotService, error) {
	if remoteURL != "" {
		responder, err := bot.NewHTTPResponder(remoteURL, timeout, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Bot service using remote responder", "url", remoteURL)
		return &BotService{responder: responder, logger: logger}, nil
	}
	logger.Info("Bot service using local knowledge responder")
	return &BotService{
		responder: bot.NewKnowledgeResponder(translator, retriever, completer, logger),
		logger:    logger,
	}, nil
}

// NewBotServiceWithResponder wires a prebuilt responder, used by tests.
func NewBotServiceWithResponder(responder bot.Responder, logger Logger) *BotService {
	return &BotService{responder: responder, logger: logger}
}

// GenerateReply returns the assistant's reply text. Responder failures
// substitute the deterministic fallback so a bot chat always answers.
func (s *BotService) GenerateReply(ctx context.Context, threadID, content, userID, language string) string {
	reply, err := s.responder.Reply(ctx, bot.Request{
		ThreadID: threadID,
		Content:  content,
		UserID:   userID,
		Language: language,
	})
	if err != nil || reply == "" {
		s.logger.Warn("Bot responder failed, using fallback reply",
			"thread_id", threadID, "error", err)
		return FallbackReply(content)
	}
	return reply
}

// Answer replies to a standalone English question with no thread or user
// attached. This is the voice flow's entry point into the responder.
func (s *BotService) Answer(ctx context.Context, question string) string {
	return s.GenerateReply(ctx, "", question, "", "en")
}

// FallbackReply is the canned answer used when no responder can produce one.
func FallbackReply(content string) string {
	return fmt.Sprintf(botFallbackTemplate, content)
}

// knowledgeRetriever adapts embedding plus vector search into the responder's
// retrieval interface. A positive topK overrides whatever the caller asks for.
type knowledgeRetriever struct {
	ai       *AIService
	pinecone *PineconeService
	topK     int
}

func NewKnowledgeRetriever(ai *AIService, pc *PineconeService, topK int) bot.Retriever {
	return &knowledgeRetriever{ai: ai, pinecone: pc, topK: topK}
}

func (r *knowledgeRetriever) Search(ctx context.Context, query string, topK int) ([]bot.Snippet, error) {
	if r.topK > 0 {
		topK = r.topK
	}
	embedding, err := r.ai.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	chunks, err := r.pinecone.QuerySimilar(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	snippets := make([]bot.Snippet, 0, len(chunks))
	for _, c := range chunks {
		snippets = append(snippets, bot.Snippet{Title: c.Title, Text: c.Text})
	}
	return snippets, nil
}
