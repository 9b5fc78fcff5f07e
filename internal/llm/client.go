// Copyright 2024 SageMaker Chatbot Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// EmbeddingModel defines the model used for embeddings.
	EmbeddingModel = openai.SmallEmbedding3
	// DefaultChatModel is used when a call does not name a model.
	DefaultChatModel = openai.GPT4oMini
)

// ErrNoChoices is returned when the API responds without any completion choice.
var ErrNoChoices = errors.New("no choices returned from completion")

// Client wraps the go-openai client behind the Generator and Embedder
// capability interfaces. Faults are classified and wrapped but never retried;
// the caller decides what a failed generation means for the request.
type Client struct {
	client *openai.Client
	logger *zap.Logger
}

var (
	_ Generator = (*Client)(nil)
	_ Embedder  = (*Client)(nil)
)

// NewClient creates an OpenAI-backed client.
func NewClient(apiKey string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if !strings.HasPrefix(apiKey, "sk-") {
		return nil, fmt.Errorf("invalid API key format")
	}

	c := &Client{
		client: openai.NewClient(apiKey),
		logger: logger,
	}

	c.logger.Info("LLM client initialized",
		zap.String("embedding_model", string(EmbeddingModel)),
		zap.String("default_chat_model", DefaultChatModel),
	)
	return c, nil
}

// Generate produces a completion for the given message list.
func (c *Client) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("message list cannot be empty")
	}
	model := opts.Model
	if model == "" {
		model = DefaultChatModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	c.logger.Debug("Creating chat completion",
		zap.String("model", model),
		zap.Int("max_tokens", opts.MaxTokens),
		zap.Int("message_count", len(messages)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.logger.Debug("Chat completion successful",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// EmbedQuery generates an embedding for a single query text.
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{query},
		Model: EmbeddingModel,
	})
	if err != nil {
		return nil, c.classifyAPIError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned for query")
	}

	c.logger.Debug("Query embedding generated",
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
	)
	return resp.Data[0].Embedding, nil
}

// classifyAPIError annotates provider errors with a stable description so the
// pipeline boundary can report them coherently.
func (c *Client) classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("invalid API key or unauthorized access: %w", err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("rate limited by provider: %w", err)
		default:
			return fmt.Errorf("provider API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
	}
	return fmt.Errorf("LLM client error: %w", err)
}
