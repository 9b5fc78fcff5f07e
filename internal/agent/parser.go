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

package agent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparsableStep is returned when the model output matches neither a tool
// action nor a final answer.
var ErrUnparsableStep = errors.New("unable to parse agent step")

// DecisionKind discriminates the parsed step variant.
type DecisionKind int

const (
	// DecisionContinue selects a tool and its input for the next action.
	DecisionContinue DecisionKind = iota
	// DecisionFinish carries the model's final answer.
	DecisionFinish
)

// Decision is the tagged result of parsing one model step: either
// Continue(action, input) or Finish(answer). Orchestration control flow
// depends only on this type, not on the raw text markers.
type Decision struct {
	Kind        DecisionKind
	Thought     string
	Action      string
	ActionInput string
	Answer      string
}

var (
	finalAnswerPattern = regexp.MustCompile(`(?s)Final Answer:\s*(.*)`)
	thoughtPattern     = regexp.MustCompile(`Thought:\s*(.*)`)
	actionPattern      = regexp.MustCompile(`Action:\s*(.*)`)
	actionInputPattern = regexp.MustCompile(`Action Input:\s*(.*)`)
)

// ParseDecision parses one model step. A final-answer marker wins over an
// action; an output with neither, or an action without input, is an
// ErrUnparsableStep.
func ParseDecision(output string) (Decision, error) {
	if m := finalAnswerPattern.FindStringSubmatch(output); m != nil {
		return Decision{
			Kind:   DecisionFinish,
			Answer: strings.TrimSpace(m[1]),
		}, nil
	}

	actionMatch := actionPattern.FindStringSubmatch(output)
	inputMatch := actionInputPattern.FindStringSubmatch(output)
	if actionMatch == nil || inputMatch == nil {
		return Decision{}, fmt.Errorf("%w: output has no Final Answer and no Action/Action Input pair", ErrUnparsableStep)
	}

	decision := Decision{
		Kind:        DecisionContinue,
		Action:      normalizeToolName(actionMatch[1]),
		ActionInput: strings.Trim(strings.TrimSpace(inputMatch[1]), `"`),
	}
	if m := thoughtPattern.FindStringSubmatch(output); m != nil {
		decision.Thought = strings.TrimSpace(m[1])
	}

	if decision.Action == "" {
		return Decision{}, fmt.Errorf("%w: empty action name", ErrUnparsableStep)
	}
	return decision, nil
}

// normalizeToolName trims quotes, brackets and surrounding whitespace from a
// model-emitted tool name.
func normalizeToolName(name string) string {
	return strings.Trim(name, " \t\"'[]")
}
