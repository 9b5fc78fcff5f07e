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

package pricing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/llm"
)

// tableCatalog annotates each pricing table with the natural-language
// description used for semantic table selection.
var tableCatalog = map[string]string{
	"real_time_inference_price":    "real time inference instance price data, includes instance name, price, memory. Use this as default table if none specified",
	"training_price":               "training instance price data, includes instance name, price, memory.",
	"asynchronous_inference_price": "asynchronous inference instance price data, includes instance name, price, memory",
	"inference_accelerator_price":  "inference accelerator instance price data, includes instance name, price, memory",
}

// tableOrder keeps selection output deterministic when scores tie.
var tableOrder = []string{
	"real_time_inference_price",
	"training_price",
	"asynchronous_inference_price",
	"inference_accelerator_price",
}

// TableNames returns the four pricing table names in stable order.
func TableNames() []string {
	names := make([]string, len(tableOrder))
	copy(names, tableOrder)
	return names
}

// IsKnownTable reports whether name is one of the pricing tables.
func IsKnownTable(name string) bool {
	_, ok := tableCatalog[name]
	return ok
}

// TableSelector ranks pricing tables against a question by cosine similarity
// of embeddings over the table descriptions.
type TableSelector struct {
	embedder llm.Embedder
	logger   *zap.Logger

	mu         sync.Mutex
	embeddings map[string][]float32 // description embedding per table, built lazily
}

// NewTableSelector creates a selector on top of the given embedder.
func NewTableSelector(embedder llm.Embedder, logger *zap.Logger) *TableSelector {
	return &TableSelector{
		embedder: embedder,
		logger:   logger,
	}
}

// SelectTables returns up to topK table names ranked by semantic similarity
// between the question and each table description.
func (t *TableSelector) SelectTables(ctx context.Context, question string, topK int) ([]string, error) {
	descriptions, err := t.ensureEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	queryEmbedding, err := t.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	type scored struct {
		table string
		score float64
	}
	ranked := make([]scored, 0, len(tableOrder))
	for _, table := range tableOrder {
		ranked = append(ranked, scored{
			table: table,
			score: cosineSimilarity(queryEmbedding, descriptions[table]),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	tables := make([]string, 0, topK)
	for _, r := range ranked[:topK] {
		tables = append(tables, r.table)
	}

	t.logger.Debug("Selected pricing tables",
		zap.String("question", question),
		zap.Strings("tables", tables),
	)
	return tables, nil
}

// ensureEmbeddings embeds the table descriptions once and returns the cached
// map. The cache is guarded because requests reach the selector concurrently;
// a failed build is not cached so a later call can complete it.
func (t *TableSelector) ensureEmbeddings(ctx context.Context) (map[string][]float32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.embeddings != nil {
		return t.embeddings, nil
	}
	embeddings := make(map[string][]float32, len(tableCatalog))
	for _, table := range tableOrder {
		emb, err := t.embedder.EmbedQuery(ctx, tableCatalog[table])
		if err != nil {
			return nil, fmt.Errorf("failed to embed description of %s: %w", table, err)
		}
		embeddings[table] = emb
	}
	t.embeddings = embeddings
	return t.embeddings, nil
}

// cosineSimilarity computes the cosine similarity of two vectors; mismatched
// or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
