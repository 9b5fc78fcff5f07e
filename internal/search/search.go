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

// Package search defines the document search capability consumed by the
// retrieval path. The index stores internal storage locators, not user-facing
// links; a Resolver turns a locator into the canonical public URL by fetching
// a small metadata object.
package search

import "context"

// Document is a single ranked hit from the document index.
type Document struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Locator string `json:"locator"`
}

// Searcher returns up to topK ranked documents for a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Document, error)
}

// Resolver resolves an opaque source locator to a public URL.
type Resolver interface {
	Resolve(ctx context.Context, locator string) (string, error)
}
