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

package retrieval

import (
	"fmt"
	"strings"

	"github.com/your-org/sagemaker-chatbot/internal/llm"
	"github.com/your-org/sagemaker-chatbot/internal/session"
)

const synthesisSystemPrompt = `You are an expert at answering the user's questions about Amazon SageMaker.
You are talkative and provide lots of specific details from the given context and chat history.

Please provide a cogent answer to the question based on the context and chat history only.
If the context and history are empty, say "I apologize, I do not have enough context to answer the question".
Do not answer the question from the model's parametric knowledge.

Format the answer into neat paragraphs. DO NOT include any XML tag in the final answer.

Sparsely highlight only the most important things such as names, numbers and conclusions with Markdown by bolding them; do not highlight more than two or three things per sentence.
Think step by step before giving the answer. Answer only if you are very confident.
If there are multiple steps or choices in the answer, format them as bullet points using '-' in Markdown style, numbered 1, 2, 3...

REMEMBER: FOR ANY human input that is not related to Amazon SageMaker, just say "I apologize, it's out of scope".`

// buildSynthesisMessages threads the retrieved context and the prior
// conversation into the generation call.
func buildSynthesisMessages(question, contextText string, history []session.Message) []llm.Message {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: synthesisSystemPrompt},
	}

	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == session.AssistantRole {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Here is the context:\n<context>\n%s\n</context>\n\n", strings.TrimSpace(contextText))
	fmt.Fprintf(&user, "Here is the question: %s", question)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: user.String()})

	return messages
}
