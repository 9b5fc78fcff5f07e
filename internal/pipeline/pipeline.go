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

// Package pipeline sequences the answer flow: classify the question's intent,
// route it to one of three response strategies or reject it, and absorb every
// downstream fault into a structured answer. Handle is the single entry point
// collaborators invoke.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/agent"
	"github.com/your-org/sagemaker-chatbot/internal/answer"
	"github.com/your-org/sagemaker-chatbot/internal/intent"
	"github.com/your-org/sagemaker-chatbot/internal/session"
)

// RejectionMessage is the fixed answer for malicious or unclassifiable
// questions.
const RejectionMessage = "I apologize, I cannot help with that request. Please ask a question about Amazon SageMaker or its pricing."

// Classifier is the intent classification capability the controller consumes.
type Classifier interface {
	Classify(ctx context.Context, question string) (intent.Intent, error)
}

// GuidanceAnswerer answers guidance questions from the document index.
type GuidanceAnswerer interface {
	Answer(ctx context.Context, question, sessionID string) (answer.Answer, error)
}

// DataAnswerer answers data questions against the pricing tables.
type DataAnswerer interface {
	Query(ctx context.Context, question string) (answer.Answer, error)
}

// ReasoningAnswerer runs the tool-using agent loop.
type ReasoningAnswerer interface {
	Run(ctx context.Context, question, sessionID string) (*agent.Result, error)
}

// Controller routes a question to the strategy its intent calls for.
type Controller struct {
	classifier Classifier
	guidance   GuidanceAnswerer
	data       DataAnswerer
	reasoning  ReasoningAnswerer
	sessions   *session.Manager
	logger     *zap.Logger
}

// NewController wires the pipeline together.
func NewController(
	classifier Classifier,
	guidance GuidanceAnswerer,
	data DataAnswerer,
	reasoning ReasoningAnswerer,
	sessions *session.Manager,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		classifier: classifier,
		guidance:   guidance,
		data:       data,
		reasoning:  reasoning,
		sessions:   sessions,
		logger:     logger,
	}
}

// Handle answers one question. It never returns an error: any fault from a
// collaborator is converted into an answer whose text explains the failure
// and whose source is empty.
func (c *Controller) Handle(ctx context.Context, question, sessionID string) (result answer.Answer) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from panic in pipeline",
				zap.Any("panic", r),
				zap.String("session_id", sessionID),
			)
			result = faultAnswer(fmt.Errorf("internal error: %v", r))
		}
	}()

	questionIntent, err := c.classifier.Classify(ctx, question)
	if err != nil {
		c.logger.Error("Intent classification fault", zap.Error(err))
		return faultAnswer(&DownstreamFault{Stage: "classification", Err: err})
	}

	c.logger.Info("Question classified",
		zap.String("session_id", sessionID),
		zap.String("intent", string(questionIntent)),
	)

	switch questionIntent {
	case intent.DataRequest:
		res, err := c.data.Query(ctx, question)
		if err != nil {
			return faultAnswer(&DownstreamFault{Stage: "pricing", Err: err})
		}
		c.recordTurns(ctx, sessionID, question, res.Answer)
		return res

	case intent.GuidanceRequest:
		res, err := c.guidance.Answer(ctx, question, sessionID)
		if err != nil {
			return faultAnswer(&DownstreamFault{Stage: "retrieval", Err: err})
		}
		c.recordTurns(ctx, sessionID, question, res.Answer)
		return res

	case intent.ReasoningRequest:
		run, err := c.reasoning.Run(ctx, question, sessionID)
		if err != nil {
			return faultAnswer(&DownstreamFault{Stage: "agent", Err: err})
		}
		if run.State == agent.StateFailed {
			return answer.Answer{Answer: run.Answer.Answer, Source: ""}
		}
		c.recordTurns(ctx, sessionID, question, run.Answer.Answer)
		return run.Answer

	default:
		// Malicious and Invalid (or anything unrecognized) reject identically.
		return answer.Answer{Answer: RejectionMessage, Source: ""}
	}
}

// recordTurns appends the exchange to the session transcript. A store failure
// is logged but does not fail the answered request.
func (c *Controller) recordTurns(ctx context.Context, sessionID, question, answerText string) {
	if err := c.sessions.AppendTurn(ctx, sessionID, session.UserRole, question); err != nil {
		c.logger.Warn("Failed to record user turn", zap.Error(err))
		return
	}
	if err := c.sessions.AppendTurn(ctx, sessionID, session.AssistantRole, answerText); err != nil {
		c.logger.Warn("Failed to record assistant turn", zap.Error(err))
	}
}

func faultAnswer(err error) answer.Answer {
	return answer.Answer{
		Answer: fmt.Sprintf("Error processing your request: %v", err),
		Source: "",
	}
}
