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

package search

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"
)

// IndexedDocument is the shape stored in the bleve index.
type IndexedDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Locator string `json:"locator"`
}

// BleveIndex implements Searcher on a local bleve full-text index.
type BleveIndex struct {
	index  bleve.Index
	logger *zap.Logger
}

var _ Searcher = (*BleveIndex)(nil)

// newIndexMapping builds the document mapping shared by the on-disk and
// in-memory indexes so both analyze fields identically.
func newIndexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so exact terms like
	// instance names survive indexing.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	locatorFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("locator", locatorFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a bleve index at path. An existing index is
// opened and reused; remove the directory to force a full re-index after a
// mapping change.
func NewBleveIndex(path string, logger *zap.Logger) (*BleveIndex, error) {
	im := newIndexMapping()

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open bleve index: %w", openErr)
		}
		return &BleveIndex{index: index, logger: logger}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &BleveIndex{index: index, logger: logger}, nil
}

// NewMemoryBleveIndex creates an in-memory index, used by tests and seeding.
func NewMemoryBleveIndex(logger *zap.Logger) (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory bleve index: %w", err)
	}
	return &BleveIndex{index: index, logger: logger}, nil
}

// Index adds or replaces a document by id.
func (b *BleveIndex) Index(_ context.Context, id string, doc IndexedDocument) error {
	return b.index.Index(id, doc)
}

// Search runs a match query over title and content and returns up to topK
// ranked documents with their stored fields.
func (b *BleveIndex) Search(_ context.Context, query string, topK int) ([]Document, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = topK
	req.Fields = []string{"title", "content", "locator"}

	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	docs := make([]Document, 0, len(results.Hits))
	for _, hit := range results.Hits {
		docs = append(docs, Document{
			Title:   stringField(hit.Fields, "title"),
			Excerpt: stringField(hit.Fields, "content"),
			Locator: stringField(hit.Fields, "locator"),
		})
	}

	b.logger.Debug("Document search completed",
		zap.String("query", query),
		zap.Int("top_k", topK),
		zap.Int("hits", len(docs)),
	)
	return docs, nil
}

// DocCount returns the number of indexed documents, used by the readiness
// check.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the underlying index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
