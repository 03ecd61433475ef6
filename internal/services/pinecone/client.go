// File: internal/services/pinecone/client.go
package pinecone

import (
	"context"
	"time"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
)

// Logger is the minimal logging surface this package needs; satisfied by
// services.Logger.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Chunk is one retrieved slice of the agronomy knowledge index.
type Chunk struct {
	ID         string
	Score      float32
	Title      string
	Text       string
	SourceFile string
}

// ClientService holds the SDK client and a connection to the index.
type ClientService struct {
	config *Config
	index  *pinecone.IndexConnection
	logger Logger
}

func NewClientService(config *Config, logger Logger) (*ClientService, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: config.APIKey})
	if err != nil {
		return nil, NewConnectionError("client", "failed to create client", err)
	}

	index, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      config.IndexHost,
		Namespace: config.Namespace,
	})
	if err != nil {
		return nil, NewConnectionError("index", "failed to connect to index", err)
	}

	logger.Info("knowledge index client initialized",
		"host", config.IndexHost, "namespace", config.Namespace)

	return &ClientService{config: config, index: index, logger: logger}, nil
}

// Query runs a similarity search and maps matches into Chunks.
func (c *ClientService) Query(ctx context.Context, embedding []float32, topK int) ([]Chunk, error) {
	if topK <= 0 {
		topK = c.config.TopK
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, NewQueryError("query", "similarity search failed", err)
	}

	chunks := make([]Chunk, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if match == nil || match.Vector == nil {
			continue
		}
		chunk := Chunk{ID: match.Vector.Id, Score: match.Score}
		if md := match.Vector.Metadata; md != nil {
			chunk.Title = metadataString(md, "title")
			chunk.Text = metadataString(md, "text")
			chunk.SourceFile = metadataString(md, "source_file")
		}
		if chunk.Text != "" {
			chunks = append(chunks, chunk)
		}
	}

	c.logger.Debug("knowledge index query complete",
		"matches", len(resp.Matches), "usable_chunks", len(chunks))
	return chunks, nil
}

func (c *ClientService) Close() error {
	if c.index == nil {
		return nil
	}
	return c.index.Close()
}

func metadataString(md *pinecone.Metadata, key string) string {
	field, ok := md.Fields[key]
	if !ok || field == nil {
		return ""
	}
	return field.GetStringValue()
}

// RetryService wraps queries with bounded retries.
type RetryService struct {
	config *Config
	logger Logger
}

func NewRetryService(config *Config, logger Logger) *RetryService {
	return &RetryService{config: config, logger: logger}
}

func (r *RetryService) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if idxErr, ok := lastErr.(*IndexError); ok && idxErr.Type == ErrTypeConfig {
			return lastErr
		}

		r.logger.Warn("index operation failed", "operation", operation,
			"attempt", attempt, "error", lastErr)
		if attempt < r.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * r.config.RetryDelay):
			}
		}
	}
	return lastErr
}
