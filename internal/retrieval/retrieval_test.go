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
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/llm"
	"github.com/your-org/sagemaker-chatbot/internal/search"
	"github.com/your-org/sagemaker-chatbot/internal/session"
)

type fakeSearcher struct {
	docs []search.Document
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]search.Document, error) {
	return f.docs, f.err
}

type fakeResolver struct {
	urls map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, locator string) (string, error) {
	if url, ok := f.urls[locator]; ok {
		return url, nil
	}
	return "", fmt.Errorf("no metadata for %s", locator)
}

type fakeGenerator struct {
	response string
	err      error
	messages []llm.Message
}

func (f *fakeGenerator) Generate(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
	f.messages = messages
	return f.response, f.err
}

func newTestSessions() *session.Manager {
	return session.NewManager(session.NewMemoryStorage(100), session.DefaultConfig(), zap.NewNop())
}

func TestNormalizeTitle(t *testing.T) {
	testCases := []struct {
		name     string
		title    string
		expected string
	}{
		{"Plain title", "Train a model", "Train a model"},
		{"Embedded newlines", "Train\na model", "Traina model"},
		{"Runs of spaces", "Train   a    model", "Train a model"},
		{"Leading and trailing whitespace", "  Train a model  ", "Train a model"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeTitle(tc.title))
		})
	}
}

func TestDedupeSources(t *testing.T) {
	docs := []RetrievedDocument{
		{Title: "Training", URL: "https://example.com/train"},
		{Title: "Inference", URL: "https://example.com/infer"},
		{Title: "Training", URL: "https://example.com/train"},
	}

	unique := DedupeSources(docs)
	require.Len(t, unique, 2)
	assert.Equal(t, "Training", unique[0].Title)
	assert.Equal(t, "Inference", unique[1].Title)
}

func TestDedupeSourcesKeepsDistinctURLs(t *testing.T) {
	// Same title from two different pages is not a duplicate.
	docs := []RetrievedDocument{
		{Title: "Training", URL: "https://example.com/a"},
		{Title: "Training", URL: "https://example.com/b"},
	}

	assert.Len(t, DedupeSources(docs), 2)
}

func TestFormatReferenceList(t *testing.T) {
	sources := []SourceLink{
		{Title: "Training", URL: "https://example.com/train"},
		{Title: "Inference", URL: "https://example.com/infer"},
	}

	refs := FormatReferenceList(sources)
	assert.Contains(t, refs, "1. [Training](https://example.com/train)")
	assert.Contains(t, refs, "2. [Inference](https://example.com/infer)")

	assert.Empty(t, FormatReferenceList(nil))
}

func TestRetrieve(t *testing.T) {
	searcher := &fakeSearcher{docs: []search.Document{
		{Title: "Train a\nmodel", Excerpt: "Training jobs run on managed infrastructure.", Locator: "docs/train.json"},
		{Title: "Deploy", Excerpt: "Endpoints serve predictions.", Locator: "docs/deploy.json"},
	}}
	resolver := &fakeResolver{urls: map[string]string{
		"docs/train.json": "https://example.com/train",
	}}

	adapter := NewAdapter(searcher, resolver, &fakeGenerator{}, newTestSessions(), llm.Options{}, 5, zap.NewNop())

	docs, err := adapter.Retrieve(context.Background(), "training", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Train amodel", docs[0].Title)
	assert.Equal(t, "https://example.com/train", docs[0].URL)

	// A failed locator resolution keeps the hit but drops the link.
	assert.Equal(t, "Deploy", docs[1].Title)
	assert.Empty(t, docs[1].URL)
}

func TestRetrieveSearchFault(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("index unavailable")}
	adapter := NewAdapter(searcher, &fakeResolver{}, &fakeGenerator{}, newTestSessions(), llm.Options{}, 5, zap.NewNop())

	_, err := adapter.Retrieve(context.Background(), "training", 5)
	assert.Error(t, err)
}

func TestAnswer(t *testing.T) {
	searcher := &fakeSearcher{docs: []search.Document{
		{Title: "Training", Excerpt: "Training jobs run on managed infrastructure.", Locator: "docs/train.json"},
		{Title: "Training", Excerpt: "Spot training reduces cost.", Locator: "docs/train.json"},
	}}
	resolver := &fakeResolver{urls: map[string]string{
		"docs/train.json": "https://example.com/train",
	}}
	gen := &fakeGenerator{response: "SageMaker training jobs run on managed infrastructure."}

	sessions := newTestSessions()
	require.NoError(t, sessions.AppendTurn(context.Background(), "s1", session.UserRole, "Tell me about SageMaker."))

	adapter := NewAdapter(searcher, resolver, gen, sessions, llm.Options{}, 5, zap.NewNop())

	res, err := adapter.Answer(context.Background(), "How does training work?", "s1")
	require.NoError(t, err)

	assert.Equal(t, "SageMaker training jobs run on managed infrastructure.", res.Answer)
	// Duplicate hits collapse into a single reference.
	assert.Equal(t, "1. [Training](https://example.com/train)\n\n", res.Source)

	// The generation call carries the system prompt, the prior turn and the
	// retrieved context.
	require.GreaterOrEqual(t, len(gen.messages), 3)
	assert.Equal(t, llm.RoleSystem, gen.messages[0].Role)
	assert.Equal(t, "Tell me about SageMaker.", gen.messages[1].Content)
	last := gen.messages[len(gen.messages)-1]
	assert.Contains(t, last.Content, "<context>")
	assert.Contains(t, last.Content, "Spot training reduces cost.")
	assert.Contains(t, last.Content, "How does training work?")
}

func TestAnswerSynthesisFault(t *testing.T) {
	searcher := &fakeSearcher{docs: []search.Document{
		{Title: "Training", Excerpt: "Training jobs.", Locator: "docs/train.json"},
	}}
	gen := &fakeGenerator{err: errors.New("model overloaded")}

	adapter := NewAdapter(searcher, &fakeResolver{}, gen, newTestSessions(), llm.Options{}, 5, zap.NewNop())

	_, err := adapter.Answer(context.Background(), "How does training work?", "s1")
	assert.Error(t, err)
}
