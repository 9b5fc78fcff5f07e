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

package outparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name           string
		raw            string
		expectedText   string
		expectedSource string
	}{
		{
			name:           "Well formed JSON",
			raw:            `{"text": "SageMaker is a managed ML service.", "source": "[Developer Guide](https://docs.aws.amazon.com/sagemaker)"}`,
			expectedText:   "SageMaker is a managed ML service.",
			expectedSource: "[Developer Guide](https://docs.aws.amazon.com/sagemaker)",
		},
		{
			name:           "JSON embedded in prose",
			raw:            "Here is my final answer:\n{\"text\": \"Use real-time endpoints.\", \"source\": \"[Pricing](https://aws.amazon.com/sagemaker/pricing/)\"}\nHope this helps!",
			expectedText:   "Use real-time endpoints.",
			expectedSource: "[Pricing](https://aws.amazon.com/sagemaker/pricing/)",
		},
		{
			name:           "Source without markdown link stays raw",
			raw:            `{"text": "The price is 3.825 per hour.", "source": "pricing database"}`,
			expectedText:   "The price is 3.825 per hour.",
			expectedSource: "pricing database",
		},
		{
			name:           "Missing source defaults to empty",
			raw:            `{"text": "An endpoint serves predictions."}`,
			expectedText:   "An endpoint serves predictions.",
			expectedSource: "",
		},
		{
			name:           "Missing text defaults to empty",
			raw:            `{"source": "[Guide](https://example.com)"}`,
			expectedText:   "",
			expectedSource: "[Guide](https://example.com)",
		},
		{
			name:           "No recognizable fields",
			raw:            "The model refused to answer in the requested shape.",
			expectedText:   "",
			expectedSource: "",
		},
		{
			name:           "Unterminated source value is still captured",
			raw:            `{"text": "Truncated output.", "source": "[Guide](https://example.com)`,
			expectedText:   "Truncated output.",
			expectedSource: "[Guide](https://example.com)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := Parse(tc.raw)
			assert.Equal(t, tc.expectedText, parsed.Text)
			assert.Equal(t, tc.expectedSource, parsed.Source)
		})
	}
}

func TestSplitMarkdownLink(t *testing.T) {
	testCases := []struct {
		name          string
		source        string
		expectedTitle string
		expectedURL   string
	}{
		{
			name:          "Single link",
			source:        "[Developer Guide](https://docs.aws.amazon.com/sagemaker)",
			expectedTitle: "Developer Guide",
			expectedURL:   "https://docs.aws.amazon.com/sagemaker",
		},
		{
			name:          "Last link wins",
			source:        "[First](https://a.example.com) and [Second](https://b.example.com)",
			expectedTitle: "Second",
			expectedURL:   "https://b.example.com",
		},
		{
			name:          "No link pattern",
			source:        "https://docs.aws.amazon.com/sagemaker",
			expectedTitle: "https://docs.aws.amazon.com/sagemaker",
			expectedURL:   "https://docs.aws.amazon.com/sagemaker",
		},
		{
			name:          "Empty title",
			source:        "[](https://example.com)",
			expectedTitle: "",
			expectedURL:   "https://example.com",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			title, url := SplitMarkdownLink(tc.source)
			assert.Equal(t, tc.expectedTitle, title)
			assert.Equal(t, tc.expectedURL, url)
		})
	}
}
