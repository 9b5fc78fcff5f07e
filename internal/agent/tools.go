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
	"context"
	"fmt"

	"github.com/your-org/sagemaker-chatbot/internal/pricing"
	"github.com/your-org/sagemaker-chatbot/internal/retrieval"
)

// Tool names the agent can select. Exactly these two are available.
const (
	DocGuideToolName = "sagemaker_developer_guide"
	PricingToolName  = "sagemaker_pricing_data_retrieval"
)

// Tool is one capability the orchestrator can invoke during a step.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

// DocGuideTool exposes document retrieval to the agent.
type DocGuideTool struct {
	adapter *retrieval.Adapter
}

// NewDocGuideTool wraps a retrieval adapter as an agent tool.
func NewDocGuideTool(adapter *retrieval.Adapter) *DocGuideTool {
	return &DocGuideTool{adapter: adapter}
}

// Name implements Tool.
func (t *DocGuideTool) Name() string { return DocGuideToolName }

// Description implements Tool.
func (t *DocGuideTool) Description() string {
	return "Useful for when you need to query the SageMaker documentation index for more information. Input should be a question formatted as a string."
}

// Run retrieves and synthesizes an answer; the observation includes the
// reference list so the source can flow into the final answer.
func (t *DocGuideTool) Run(ctx context.Context, input string) (string, error) {
	res, err := t.adapter.Answer(ctx, input, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\nSource: %s", res.Answer, res.Source), nil
}

// PricingTool exposes the pricing table query engine to the agent.
type PricingTool struct {
	adapter *pricing.Adapter
}

// NewPricingTool wraps a pricing adapter as an agent tool.
func NewPricingTool(adapter *pricing.Adapter) *PricingTool {
	return &PricingTool{adapter: adapter}
}

// Name implements Tool.
func (t *PricingTool) Name() string { return PricingToolName }

// Description implements Tool.
func (t *PricingTool) Description() string {
	return "Useful for when you need access to pricing table data such as instance price, memory, compute optimized, accelerated computing, storage, instance features or instance performance. Input should be a question."
}

// Run answers the pricing question; only the synthesized text becomes the
// observation.
func (t *PricingTool) Run(ctx context.Context, input string) (string, error) {
	res, err := t.adapter.Query(ctx, input)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}
