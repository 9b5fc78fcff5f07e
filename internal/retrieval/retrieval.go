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

// Package retrieval answers guidance questions from the SageMaker developer
// guide index: ranked snippets in, a synthesized answer with a numbered
// reference list out. Synthesis is constrained to the retrieved context and
// the session transcript; out-of-domain questions are refused.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/answer"
	"github.com/your-org/sagemaker-chatbot/internal/llm"
	"github.com/your-org/sagemaker-chatbot/internal/search"
	"github.com/your-org/sagemaker-chatbot/internal/session"
)

// SourceLink is a resolved, user-facing reference.
type SourceLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RetrievedDocument is one search hit with its locator resolved.
type RetrievedDocument struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	URL     string `json:"url"`
}

// Adapter wraps the managed search capability and the synthesis call.
type Adapter struct {
	searcher  search.Searcher
	resolver  search.Resolver
	generator llm.Generator
	sessions  *session.Manager
	opts      llm.Options
	topK      int
	logger    *zap.Logger
}

// NewAdapter creates a retrieval adapter.
func NewAdapter(
	searcher search.Searcher,
	resolver search.Resolver,
	generator llm.Generator,
	sessions *session.Manager,
	opts llm.Options,
	topK int,
	logger *zap.Logger,
) *Adapter {
	return &Adapter{
		searcher:  searcher,
		resolver:  resolver,
		generator: generator,
		sessions:  sessions,
		opts:      opts,
		topK:      topK,
		logger:    logger,
	}
}

// Retrieve queries the document index and resolves each hit's locator to a
// public URL. Titles are whitespace-normalized. A hit whose locator cannot be
// resolved keeps its excerpt but carries an empty URL.
func (a *Adapter) Retrieve(ctx context.Context, question string, topK int) ([]RetrievedDocument, error) {
	hits, err := a.searcher.Search(ctx, question, topK)
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}

	docs := make([]RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		url, err := a.resolver.Resolve(ctx, hit.Locator)
		if err != nil {
			a.logger.Warn("Failed to resolve source locator",
				zap.String("locator", hit.Locator),
				zap.Error(err),
			)
			url = ""
		}
		docs = append(docs, RetrievedDocument{
			Title:   NormalizeTitle(hit.Title),
			Excerpt: hit.Excerpt,
			URL:     url,
		})
	}
	return docs, nil
}

// Answer retrieves context for the question and synthesizes a scoped answer
// with the session history threaded in. Source is the numbered reference list
// over the deduplicated sources.
func (a *Adapter) Answer(ctx context.Context, question, sessionID string) (answer.Answer, error) {
	docs, err := a.Retrieve(ctx, question, a.topK)
	if err != nil {
		return answer.Answer{}, err
	}

	sources := DedupeSources(docs)
	refs := FormatReferenceList(sources)

	var contextText strings.Builder
	for _, doc := range docs {
		contextText.WriteString(doc.Excerpt)
	}

	history, err := a.sessions.HistoryWindow(ctx, sessionID)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("failed to load session history: %w", err)
	}

	messages := buildSynthesisMessages(question, contextText.String(), history)
	text, err := a.generator.Generate(ctx, messages, a.opts)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("answer synthesis failed: %w", err)
	}

	a.logger.Debug("Document retrieval answered",
		zap.String("question", question),
		zap.Int("documents", len(docs)),
		zap.Int("unique_sources", len(sources)),
	)

	return answer.Answer{Answer: text, Source: refs}, nil
}

// NormalizeTitle removes newlines and collapses runs of whitespace.
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\n", "")
	return strings.Join(strings.Fields(title), " ")
}

// DedupeSources removes exact (title, url) duplicates preserving first-seen
// order.
func DedupeSources(docs []RetrievedDocument) []SourceLink {
	seen := make(map[SourceLink]struct{}, len(docs))
	unique := make([]SourceLink, 0, len(docs))
	for _, doc := range docs {
		link := SourceLink{Title: doc.Title, URL: doc.URL}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		unique = append(unique, link)
	}
	return unique
}

// FormatReferenceList renders sources as a 1-indexed markdown list.
func FormatReferenceList(sources []SourceLink) string {
	var b strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. [%s](%s)\n\n", i+1, s.Title, s.URL)
	}
	return b.String()
}
