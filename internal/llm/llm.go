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

// Package llm defines the text-generation and embedding capabilities the
// pipeline consumes, together with an OpenAI-backed implementation. Components
// depend on the Generator and Embedder interfaces so the underlying provider
// can be swapped without touching the pipeline.
package llm

import (
	"context"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem marks instructions that frame the conversation.
	RoleSystem Role = "system"
	// RoleUser marks messages authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks messages authored by the model.
	RoleAssistant Role = "assistant"
)

// Message is a single chat message passed to a Generator.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options control a single generation call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Generator produces text from a formatted message list.
type Generator interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Embedder produces a vector representation of a single text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
