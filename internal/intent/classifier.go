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

package intent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/llm"
)

// Classifier assigns an Intent to a question with a few-shot generation call.
type Classifier struct {
	generator llm.Generator
	opts      llm.Options
	logger    *zap.Logger
}

// NewClassifier creates a classifier on top of the given generator.
func NewClassifier(generator llm.Generator, opts llm.Options, logger *zap.Logger) *Classifier {
	return &Classifier{
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Classify determines the routing category for a question. A generation fault
// is returned as an error; a malformed label is not an error and comes back
// as the Invalid sentinel.
func (c *Classifier) Classify(ctx context.Context, question string) (Intent, error) {
	prompt := buildClassifierPrompt(question)

	raw, err := c.generator.Generate(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, c.opts)
	if err != nil {
		return Invalid, fmt.Errorf("intent classification failed: %w", err)
	}

	result := ParseCategory(raw)

	c.logger.Debug("Question intent classified",
		zap.String("question", question),
		zap.String("intent", string(result)),
	)
	return result, nil
}
