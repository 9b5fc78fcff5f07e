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

// Package pricing answers data questions by generating a schema-constrained
// SQL query over the four SageMaker pricing tables, executing it, and
// synthesizing a natural-language answer from the result. The generated SQL
// text is returned as the answer's source.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/answer"
	"github.com/your-org/sagemaker-chatbot/internal/llm"
)

// NoDataMessage is returned when the generated query matches zero rows.
const NoDataMessage = "No data was found for the question. Please try rephrasing it or asking about a different instance type."

// Adapter wraps the tabular-query capability.
type Adapter struct {
	store     *Store
	selector  *TableSelector
	generator llm.Generator
	opts      llm.Options
	tableTopK int
	logger    *zap.Logger
}

// NewAdapter creates a pricing query adapter.
func NewAdapter(store *Store, selector *TableSelector, generator llm.Generator, opts llm.Options, tableTopK int, logger *zap.Logger) *Adapter {
	return &Adapter{
		store:     store,
		selector:  selector,
		generator: generator,
		opts:      opts,
		tableTopK: tableTopK,
		logger:    logger,
	}
}

// Query answers a natural-language pricing question. The returned source is
// the generated SQL text.
func (a *Adapter) Query(ctx context.Context, question string) (answer.Answer, error) {
	tables, err := a.selector.SelectTables(ctx, question, a.tableTopK)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("table selection failed: %w", err)
	}

	schema := a.store.SchemaDescription(tables)
	raw, err := a.generator.Generate(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: buildSQLPrompt(schema, question)},
	}, a.opts)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("SQL generation failed: %w", err)
	}

	sqlText, err := SanitizeSQL(raw)
	if err != nil {
		return answer.Answer{}, err
	}

	a.logger.Debug("Generated pricing query",
		zap.String("question", question),
		zap.String("sql", sqlText),
	)

	result, err := a.store.ExecuteQuery(ctx, sqlText)
	if err != nil {
		return answer.Answer{}, err
	}

	// Zero rows short-circuits synthesis so the no-data statement can never be
	// replaced by an invented figure.
	if result.Empty() {
		return answer.Answer{Answer: NoDataMessage, Source: sqlText}, nil
	}

	text, err := a.generator.Generate(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: buildResponsePrompt(question, sqlText, result.String())},
	}, a.opts)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("answer synthesis failed: %w", err)
	}

	return answer.Answer{Answer: EscapeDollars(text), Source: sqlText}, nil
}

// SanitizeSQL strips prompt scaffolding from generated SQL and enforces the
// query constraints: exactly one SELECT, never a wildcard column selection.
func SanitizeSQL(raw string) (string, error) {
	sqlText := strings.TrimSpace(raw)
	sqlText = strings.TrimPrefix(sqlText, "```sql")
	sqlText = strings.TrimPrefix(sqlText, "```")
	sqlText = strings.TrimSuffix(sqlText, "```")
	sqlText = strings.TrimSpace(sqlText)
	if after, ok := strings.CutPrefix(sqlText, "SQLQuery:"); ok {
		sqlText = strings.TrimSpace(after)
	}
	sqlText = strings.Trim(sqlText, `"`)
	sqlText = strings.TrimSpace(sqlText)

	if sqlText == "" {
		return "", fmt.Errorf("generated SQL is empty")
	}
	upper := strings.ToUpper(sqlText)
	if !strings.HasPrefix(upper, "SELECT") {
		return "", fmt.Errorf("generated query is not a SELECT: %q", sqlText)
	}
	// Token scan so the guard survives any run of whitespace between
	// SELECT and the column list.
	fields := strings.Fields(upper)
	for i := 0; i < len(fields)-1; i++ {
		if fields[i] == "SELECT" && strings.HasPrefix(fields[i+1], "*") {
			return "", fmt.Errorf("generated query uses a wildcard column selection")
		}
	}
	return sqlText, nil
}

// EscapeDollars escapes dollar signs for markdown rendering. Already escaped
// signs are normalized first so they are not escaped twice.
func EscapeDollars(text string) string {
	text = strings.ReplaceAll(text, `\$`, "$")
	return strings.ReplaceAll(text, "$", `\$`)
}
