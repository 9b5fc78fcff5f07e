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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/llm"
)

type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) Generate(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
	if len(messages) > 0 {
		f.prompt = messages[len(messages)-1].Content
	}
	return f.response, f.err
}

func TestParseCategory(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected Intent
	}{
		{
			name:     "Clean guidance label",
			raw:      "<category>GuidanceRequest</category>",
			expected: GuidanceRequest,
		},
		{
			name:     "Data label with surrounding prose",
			raw:      "Sure, here is the category: <category>DataRequest</category>. Let me know if you need anything else.",
			expected: DataRequest,
		},
		{
			name:     "Reasoning label with internal whitespace",
			raw:      "<category>\n  Reasoning Request \n</category>",
			expected: ReasoningRequest,
		},
		{
			name:     "Quoted malicious label",
			raw:      `<category>"Malicious"</category>`,
			expected: Malicious,
		},
		{
			name:     "Missing opening tag",
			raw:      "GuidanceRequest</category>",
			expected: Invalid,
		},
		{
			name:     "Missing closing tag",
			raw:      "<category>GuidanceRequest",
			expected: Invalid,
		},
		{
			name:     "Tags out of order",
			raw:      "</category>GuidanceRequest<category>",
			expected: Invalid,
		},
		{
			name:     "Unknown label",
			raw:      "<category>PricingRequest</category>",
			expected: Invalid,
		},
		{
			name:     "Label with trailing punctuation",
			raw:      "<category>GuidanceRequest.</category>",
			expected: Invalid,
		},
		{
			name:     "Empty output",
			raw:      "",
			expected: Invalid,
		},
		{
			name:     "Empty tag span",
			raw:      "<category></category>",
			expected: Invalid,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseCategory(tc.raw))
		})
	}
}

func TestClassify(t *testing.T) {
	gen := &fakeGenerator{response: "<category>DataRequest</category>"}
	classifier := NewClassifier(gen, llm.Options{Model: "gpt-4o-mini"}, zap.NewNop())

	result, err := classifier.Classify(context.Background(), "How much does ml.p3.2xlarge cost?")
	require.NoError(t, err)
	assert.Equal(t, DataRequest, result)

	// The question must be embedded in the few-shot prompt.
	assert.Contains(t, gen.prompt, "How much does ml.p3.2xlarge cost?")
	assert.Contains(t, gen.prompt, "<category>")
}

func TestClassifyMalformedLabelIsInvalidNotError(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot classify this question."}
	classifier := NewClassifier(gen, llm.Options{}, zap.NewNop())

	result, err := classifier.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, Invalid, result)
}

func TestClassifyGenerationFault(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	classifier := NewClassifier(gen, llm.Options{}, zap.NewNop())

	result, err := classifier.Classify(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, Invalid, result)
}

func TestClassifierPromptCoversAllCategories(t *testing.T) {
	prompt := buildClassifierPrompt("What is SageMaker?")

	for _, label := range []Intent{GuidanceRequest, DataRequest, ReasoningRequest, Malicious} {
		assert.True(t, strings.Contains(prompt, string(label)),
			"prompt should carry exemplars for %s", label)
	}
}
