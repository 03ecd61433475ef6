// File: internal/services/ai_service.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"
)

// AIService wraps an OpenAI-compatible endpoint for the two model calls the
// bot needs: chat completions for answer generation and embeddings for
// knowledge-index retrieval.
type AIService struct {
	client             *openai.Client
	completionModel    string
	embeddingModelName string
	timeout            time.Duration
	maxRetries         int
}

func NewAIService(apiKey, baseURL, completionModel, embeddingModelName string) *AIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if completionModel == "" {
		completionModel = openai.GPT4oMini
	}
	if embeddingModelName == "" {
		embeddingModelName = string(openai.SmallEmbedding3)
	}
	return &AIService{
		client:             openai.NewClientWithConfig(cfg),
		completionModel:    completionModel,
		embeddingModelName: embeddingModelName,
		timeout:            60 * time.Second,
		maxRetries:         3,
	}
}

// GetCompletion returns a non-streamed reply from the chat completion API.
func (s *AIService) GetCompletion(ctx context.Context, systemPrompt, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{}
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: prompt,
	})

	var reply string
	err := s.retryWithTimeout(ctx, func(ctx context.Context) error {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.completionModel,
			Messages:    messages,
			Temperature: 0.3,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return errors.New("language model returned empty reply")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	return reply, err
}

// CreateEmbedding embeds text for similarity search over the knowledge index.
func (s *AIService) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	err := s.retryWithTimeout(ctx, func(ctx context.Context) error {
		resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(s.embeddingModelName),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return errors.New("embedding API returned empty response")
		}
		embedding = resp.Data[0].Embedding
		return nil
	})
	return embedding, err
}

func (s *AIService) retryWithTimeout(parent context.Context, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(parent, s.timeout)
		err := call(ctx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
			return err // client errors don't recover on retry
		}
		log.Printf("[AIService] Retry %d/%d failed: %v", attempt, s.maxRetries, err)
		if attempt < s.maxRetries {
			select {
			case <-parent.Done():
				return parent.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return lastErr
}
