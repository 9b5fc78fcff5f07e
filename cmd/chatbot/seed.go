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
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/pricing"
	"github.com/your-org/sagemaker-chatbot/internal/search"
)

// seedDocument is one documentation page in the docs JSON file.
type seedDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Locator string `json:"locator"`
}

func newSeedCmd() *cobra.Command {
	var pricingDir string
	var docsFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load pricing CSV files and documentation into the local stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := context.Background()

			if pricingDir != "" {
				store, err := pricing.NewStore(cfg.Pricing.DBPath)
				if err != nil {
					return fmt.Errorf("failed to open pricing store: %w", err)
				}
				defer func() { _ = store.Close() }()

				if err := seedPricing(ctx, store, pricingDir, logger); err != nil {
					return err
				}
			}

			if docsFile != "" {
				index, err := search.NewBleveIndex(cfg.Search.IndexPath, logger)
				if err != nil {
					return fmt.Errorf("failed to open document index: %w", err)
				}
				defer func() { _ = index.Close() }()

				if err := seedDocuments(ctx, index, docsFile, logger); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&pricingDir, "pricing", "", "directory of <table>.csv pricing files")
	cmd.Flags().StringVar(&docsFile, "docs", "", "JSON file of documentation pages")
	return cmd
}

// seedPricing loads one CSV per pricing table. Each file is named after its
// table and carries an instance_type,price_per_hour,memory,vcpu header.
func seedPricing(ctx context.Context, store *pricing.Store, dir string, logger *zap.Logger) error {
	for _, table := range pricing.TableNames() {
		path := filepath.Join(dir, table+".csv")
		if _, err := os.Stat(path); err != nil {
			logger.Warn("Pricing file missing, skipping table",
				zap.String("table", table),
				zap.String("path", path),
			)
			continue
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}

		records, err := csv.NewReader(file).ReadAll()
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		inserted := 0
		for i, record := range records {
			if i == 0 || len(record) < 4 {
				// Header row or malformed line.
				continue
			}
			price, err := strconv.ParseFloat(record[1], 64)
			if err != nil {
				logger.Warn("Skipping row with bad price",
					zap.String("table", table),
					zap.String("instance_type", record[0]),
				)
				continue
			}
			if err := store.InsertRow(ctx, table, record[0], price, record[2], record[3]); err != nil {
				return err
			}
			inserted++
		}

		logger.Info("Seeded pricing table",
			zap.String("table", table),
			zap.Int("rows", inserted),
		)
	}
	return nil
}

// seedDocuments loads a JSON array of documentation pages into the index.
func seedDocuments(ctx context.Context, index *search.BleveIndex, path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var docs []seedDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, doc := range docs {
		err := index.Index(ctx, uuid.NewString(), search.IndexedDocument{
			Title:   doc.Title,
			Content: doc.Content,
			Locator: doc.Locator,
		})
		if err != nil {
			return fmt.Errorf("failed to index %q: %w", doc.Title, err)
		}
	}

	logger.Info("Seeded document index", zap.Int("documents", len(docs)))
	return nil
}
