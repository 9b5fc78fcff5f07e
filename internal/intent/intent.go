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

// Package intent classifies a user question into one of four routing
// categories with a few-shot prompt. The label is parsed out of a tagged span
// of the model response; anything malformed maps to the Invalid sentinel,
// which callers treat exactly like Malicious.
package intent

import (
	"strings"
)

// Intent is the routing category assigned to a question.
type Intent string

const (
	// GuidanceRequest asks for a descriptive or qualitative answer.
	GuidanceRequest Intent = "GuidanceRequest"
	// DataRequest asks about tabular data such as pricing or memory.
	DataRequest Intent = "DataRequest"
	// ReasoningRequest combines guidance with quantitative data.
	ReasoningRequest Intent = "ReasoningRequest"
	// Malicious marks prompt-injection or out-of-scope manipulation attempts.
	Malicious Intent = "Malicious"
	// Invalid is the sentinel for a malformed or unrecognized label.
	Invalid Intent = "Invalid"
)

const (
	categoryStartTag = "<category>"
	categoryEndTag   = "</category>"
)

// ParseCategory extracts the intent label from a tagged span of model output.
// Both tags must be present and in order; the extracted label is stripped of
// whitespace and newlines before matching. Anything else is Invalid.
func ParseCategory(raw string) Intent {
	cleaned := strings.TrimSpace(raw)

	start := strings.Index(cleaned, categoryStartTag)
	end := strings.Index(cleaned, categoryEndTag)
	if start == -1 || end == -1 || start >= end {
		return Invalid
	}

	label := cleaned[start+len(categoryStartTag) : end]
	label = strings.TrimSpace(label)
	label = strings.ReplaceAll(label, "\n", "")
	label = strings.Join(strings.Fields(label), "")
	label = strings.Trim(label, `"`)

	switch Intent(label) {
	case GuidanceRequest, DataRequest, ReasoningRequest, Malicious:
		return Intent(label)
	default:
		return Invalid
	}
}
