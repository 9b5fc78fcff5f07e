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
	"fmt"
	"strings"

	"github.com/your-org/sagemaker-chatbot/internal/session"
)

const agentTemplate = `Answer the following questions as best you can, speaking as an expert in AWS SageMaker services and EC2 pricing.
You have access to the following tools:

%s

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s].
    If you use the sagemaker_developer_guide tool, pass the source file to the final answer.
    If the question asks about pricing data such as the instance price, compute optimized, memory, accelerated computing, storage, instance features, instance performance etc., use the sagemaker_pricing_data_retrieval tool.
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat up to %d times)
Thought: I now know the final answer
Final Answer: the final answer should include the information from all the observations. The answer should be comprehensive and concise.

Begin! Remember to answer as an expert in AWS SageMaker services and pricing when giving your final answer.
You should always use EC2 instances with GPUs to train deep learning models.

Do not make up any answer!

Please format the final text answer in Markdown style, ADD '\' ahead of each $.
Please include the source file from the sagemaker_developer_guide tool in the final answer.
The final answer format should be in JSON format with the keys as "text" and "source".
If the final answer comes only from the "sagemaker_pricing_data_retrieval" tool, set "source" as "%s"

Previous conversation history:
%s

New question: %s
%s`

// buildAgentPrompt renders the step prompt with tool descriptions, bounded
// history and the running scratchpad of prior steps.
func buildAgentPrompt(tools []Tool, maxIterations int, history []session.Message, question, scratchpad string) string {
	var toolDescs []string
	var toolNames []string
	for _, t := range tools {
		toolDescs = append(toolDescs, fmt.Sprintf("%s: %s", t.Name(), t.Description()))
		toolNames = append(toolNames, t.Name())
	}

	var historyText strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&historyText, "%s: %s\n", turn.Role, turn.Content)
	}

	return fmt.Sprintf(agentTemplate,
		strings.Join(toolDescs, "\n"),
		strings.Join(toolNames, ", "),
		maxIterations,
		PricingSourceLink,
		historyText.String(),
		question,
		scratchpad,
	)
}
