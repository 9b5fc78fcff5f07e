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

package session

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// CountTokens returns the token count of text under the cl100k_base encoding.
// If the encoding cannot be loaded it falls back to a chars/4 estimate so the
// transcript bookkeeping keeps working offline.
func CountTokens(text string) int {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err == nil {
			encoder = enc
		}
	})

	if encoder != nil {
		return len(encoder.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

// TruncateToBudget drops the oldest messages until the remainder fits within
// maxTokens. Messages already under budget are returned unchanged.
func TruncateToBudget(messages []Message, maxTokens int) []Message {
	totalTokens := 0
	for _, msg := range messages {
		totalTokens += msg.TokenCount
	}
	if totalTokens <= maxTokens {
		return messages
	}

	currentTokens := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if currentTokens+messages[i].TokenCount > maxTokens {
			return messages[i+1:]
		}
		currentTokens += messages[i].TokenCount
	}
	return messages
}
