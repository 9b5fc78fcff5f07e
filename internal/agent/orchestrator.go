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

// Package agent runs the tool-using answer path: an iterative loop in which
// the model formulates a step, invokes one of exactly two tools, observes the
// result and finally emits a structured answer. The loop is the only part of
// the pipeline that can do repeated work, so it is hard-capped.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/answer"
	"github.com/your-org/sagemaker-chatbot/internal/llm"
	"github.com/your-org/sagemaker-chatbot/internal/outparse"
	"github.com/your-org/sagemaker-chatbot/internal/session"
)

const (
	// DefaultMaxIterations bounds full think/act/observe cycles.
	DefaultMaxIterations = 3
	// maxParseFailures bounds how many unparsable steps are tolerated before
	// the run fails.
	maxParseFailures = 3
	// maxErrorLen bounds the length of error strings surfaced as observations.
	maxErrorLen = 200
	// PricingSourceLink is the default source when the answer derives solely
	// from the pricing tool.
	PricingSourceLink = "[Amazon SageMaker Pricing](https://aws.amazon.com/sagemaker/pricing/)"
)

// State is the orchestrator's position in the step machine.
type State string

const (
	StateStart      State = "start"
	StateThinking   State = "thinking"
	StateActingTool State = "acting_tool"
	StateObserving  State = "observing"
	StateFinished   State = "finished"
	StateFailed     State = "failed"
)

// Step records one completed think/act/observe cycle. Steps exist only within
// a single run.
type Step struct {
	Thought     string
	Action      string
	ActionInput string
	Observation string
}

// Result is the outcome of one orchestrator run.
type Result struct {
	Answer answer.Answer
	State  State
	Steps  []Step
}

// Orchestrator drives the bounded tool-use loop.
type Orchestrator struct {
	generator     llm.Generator
	tools         []Tool
	toolsByName   map[string]Tool
	sessions      *session.Manager
	opts          llm.Options
	maxIterations int
	logger        *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given tools.
func NewOrchestrator(generator llm.Generator, tools []Tool, sessions *session.Manager, opts llm.Options, maxIterations int, logger *zap.Logger) *Orchestrator {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &Orchestrator{
		generator:     generator,
		tools:         tools,
		toolsByName:   byName,
		sessions:      sessions,
		opts:          opts,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run executes the loop for one question. The returned Result carries either
// a Finished state with a structured answer or a Failed state with a bounded
// error message in the answer text.
func (o *Orchestrator) Run(ctx context.Context, question, sessionID string) (*Result, error) {
	history, err := o.sessions.HistoryWindow(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	result := &Result{State: StateStart}
	var scratchpad strings.Builder
	parseFailures := 0
	usedTools := make(map[string]bool)

	for iteration := 0; iteration < o.maxIterations; iteration++ {
		result.State = StateThinking
		prompt := buildAgentPrompt(o.tools, o.maxIterations, history, question, scratchpad.String())

		raw, err := o.generator.Generate(ctx, []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		}, o.opts)
		if err != nil {
			result.State = StateFailed
			return result, fmt.Errorf("agent step generation failed: %w", err)
		}

		decision, err := ParseDecision(raw)
		if err != nil {
			parseFailures++
			errText := truncateError(err)
			o.logger.Warn("Agent step unparsable",
				zap.Int("iteration", iteration+1),
				zap.Int("parse_failures", parseFailures),
				zap.String("error", errText),
			)
			if parseFailures >= maxParseFailures {
				result.State = StateFailed
				result.Answer = answer.Answer{Answer: errText}
				return result, nil
			}
			fmt.Fprintf(&scratchpad, "Observation: %s\n", errText)
			continue
		}

		if decision.Kind == DecisionFinish {
			parsed := outparse.Parse(decision.Answer)
			if parsed.Text == "" {
				// Not every final answer arrives in the requested JSON shape;
				// keep the raw answer rather than losing it.
				parsed.Text = decision.Answer
			}
			if parsed.Source == "" && usedTools[PricingToolName] && !usedTools[DocGuideToolName] {
				parsed.Source = PricingSourceLink
			}
			result.State = StateFinished
			result.Answer = answer.Answer{Answer: parsed.Text, Source: parsed.Source}
			o.logger.Debug("Agent run finished",
				zap.Int("iterations", iteration+1),
				zap.Int("steps", len(result.Steps)),
			)
			return result, nil
		}

		result.State = StateActingTool
		step := Step{
			Thought:     decision.Thought,
			Action:      decision.Action,
			ActionInput: decision.ActionInput,
		}

		tool, ok := o.toolsByName[decision.Action]
		if !ok {
			step.Observation = truncateErrorString(fmt.Sprintf("unknown tool %q, available tools: %s, %s", decision.Action, DocGuideToolName, PricingToolName))
		} else {
			usedTools[tool.Name()] = true
			observation, err := tool.Run(ctx, decision.ActionInput)
			if err != nil {
				step.Observation = truncateError(err)
			} else {
				step.Observation = observation
			}
		}

		result.State = StateObserving
		result.Steps = append(result.Steps, step)
		fmt.Fprintf(&scratchpad, "Thought: %s\nAction: %s\nAction Input: %s\nObservation: %s\n",
			step.Thought, step.Action, step.ActionInput, step.Observation)
	}

	result.State = StateFailed
	result.Answer = answer.Answer{
		Answer: truncateErrorString(fmt.Sprintf("the agent could not reach a final answer within %d steps", o.maxIterations)),
	}
	return result, nil
}

func truncateError(err error) string {
	return truncateErrorString(err.Error())
}

func truncateErrorString(s string) string {
	if len(s) <= maxErrorLen {
		return s
	}
	return s[:maxErrorLen] + "..."
}
