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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// metadataObject is the small JSON object stored next to each crawled page.
type metadataObject struct {
	URL string `json:"Url"`
}

// HTTPResolver resolves a locator by fetching its metadata object from the
// document store and reading the canonical URL out of it.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ Resolver = (*HTTPResolver)(nil)

// NewHTTPResolver creates a resolver rooted at baseURL.
func NewHTTPResolver(baseURL string, logger *zap.Logger) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Resolve fetches the metadata object for locator and returns its Url field.
func (r *HTTPResolver) Resolve(ctx context.Context, locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("locator cannot be empty")
	}

	target := r.baseURL + "/" + strings.TrimLeft(locator, "/")
	if _, err := url.Parse(target); err != nil {
		return "", fmt.Errorf("invalid locator %q: %w", locator, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch metadata for %q: %w", locator, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata fetch for %q returned status %d", locator, resp.StatusCode)
	}

	var meta metadataObject
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", fmt.Errorf("failed to decode metadata for %q: %w", locator, err)
	}
	if meta.URL == "" {
		return "", fmt.Errorf("metadata for %q has no Url field", locator)
	}

	r.logger.Debug("Resolved source locator",
		zap.String("locator", locator),
		zap.String("url", meta.URL),
	)
	return meta.URL, nil
}
