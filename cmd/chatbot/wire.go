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

package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/agent"
	"github.com/your-org/sagemaker-chatbot/internal/config"
	"github.com/your-org/sagemaker-chatbot/internal/intent"
	"github.com/your-org/sagemaker-chatbot/internal/llm"
	"github.com/your-org/sagemaker-chatbot/internal/pipeline"
	"github.com/your-org/sagemaker-chatbot/internal/pricing"
	"github.com/your-org/sagemaker-chatbot/internal/retrieval"
	"github.com/your-org/sagemaker-chatbot/internal/search"
	"github.com/your-org/sagemaker-chatbot/internal/session"
)

// app bundles the wired pipeline with the resources it owns.
type app struct {
	controller *pipeline.Controller
	sessions   *session.Manager
	store      *pricing.Store
	index      *search.BleveIndex
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.index.Close()
}

// options converts config model settings into generation options.
func options(m config.ModelSettings) llm.Options {
	return llm.Options{
		Model:       m.Model,
		MaxTokens:   m.MaxTokens,
		Temperature: float32(m.Temperature),
	}
}

// buildApp wires every pipeline component from configuration.
func buildApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	client, err := llm.NewClient(cfg.OpenAI.APIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	index, err := search.NewBleveIndex(cfg.Search.IndexPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open document index: %w", err)
	}

	store, err := pricing.NewStore(cfg.Pricing.DBPath)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to open pricing store: %w", err)
	}

	sessions := session.NewManager(
		session.NewMemoryStorage(cfg.Session.MaxSessions),
		session.Config{
			DefaultTTL:         cfg.Session.TTL,
			MaxSessions:        cfg.Session.MaxSessions,
			HistoryWindow:      cfg.Session.HistoryWindow,
			HistoryTokenBudget: cfg.Session.HistoryTokenBudget,
		},
		logger,
	)

	resolver := search.NewHTTPResolver(cfg.Search.MetadataBaseURL, logger)

	classifier := intent.NewClassifier(client, options(cfg.Models.Classifier), logger)
	retriever := retrieval.NewAdapter(index, resolver, client, sessions, options(cfg.Models.Synthesis), cfg.Search.TopK, logger)
	selector := pricing.NewTableSelector(client, logger)
	pricer := pricing.NewAdapter(store, selector, client, options(cfg.Models.SQL), cfg.Pricing.TableTopK, logger)
	orchestrator := agent.NewOrchestrator(client, []agent.Tool{
		agent.NewDocGuideTool(retriever),
		agent.NewPricingTool(pricer),
	}, sessions, options(cfg.Models.Agent), cfg.Agent.MaxIterations, logger)

	controller := pipeline.NewController(classifier, retriever, pricer, orchestrator, sessions, logger)

	return &app{
		controller: controller,
		sessions:   sessions,
		store:      store,
		index:      index,
	}, nil
}
