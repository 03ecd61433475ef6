// File: internal/services/pinecone_service.go
package services

import (
	"context"

	"github.com/agrisaarthi/agrisaarthi/internal/services/pinecone"
)

// PineconeService is the facade over the agronomy knowledge index used to
// ground bot answers in retrieved reference material.
type PineconeService struct {
	config *pinecone.Config
	client *pinecone.ClientService
	retry  *pinecone.RetryService
	logger Logger
}

func NewPineconeService(apiKey, indexHost, namespace string, logger Logger) (*PineconeService, error) {
	config := pinecone.DefaultConfig()
	config.APIKey = apiKey
	config.IndexHost = indexHost
	if namespace != "" {
		config.Namespace = namespace
	}

	if err := config.Validate(); err != nil {
		return nil, pinecone.NewConfigError(err.Error())
	}

	client, err := pinecone.NewClientService(config, logger)
	if err != nil {
		return nil, err
	}

	return &PineconeService{
		config: config,
		client: client,
		retry:  pinecone.NewRetryService(config, logger),
		logger: logger,
	}, nil
}

// QuerySimilar retrieves the closest knowledge chunks for an embedding.
func (s *PineconeService) QuerySimilar(ctx context.Context, embedding []float32, topK int) ([]pinecone.Chunk, error) {
	var chunks []pinecone.Chunk
	err := s.retry.Do(ctx, "query_similar", func(ctx context.Context) error {
		var qerr error
		chunks, qerr = s.client.Query(ctx, embedding, topK)
		return qerr
	})
	return chunks, err
}

func (s *PineconeService) Close() error {
	return s.client.Close()
}
