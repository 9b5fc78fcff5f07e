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
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store handles queries to the SQLite pricing database
type Store struct {
	db *sql.DB
}

// NewStore opens the pricing database and ensures the four pricing tables
// exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection, used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// initSchema creates the pricing tables if they don't exist. All four share
// the same column layout.
func (s *Store) initSchema() error {
	for _, table := range TableNames() {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				instance_type TEXT PRIMARY KEY,
				price_per_hour REAL,
				memory TEXT,
				vcpu TEXT
			)
		`, table)
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// Row is one result row keyed by column name, in column order.
type Row []string

// ResultSet is the outcome of executing a generated query.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the query returned zero rows.
func (r *ResultSet) Empty() bool {
	return len(r.Rows) == 0
}

// String renders the result set as a compact text block for the synthesis
// prompt.
func (r *ResultSet) String() string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteString("\n")
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String()
}

// ExecuteQuery runs a generated SELECT against the pricing tables.
func (s *Store) ExecuteQuery(ctx context.Context, query string) (*ResultSet, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		row := make(Row, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate result rows: %w", err)
	}

	return result, nil
}

// InsertRow inserts one pricing row, used by the seed command and tests.
func (s *Store) InsertRow(ctx context.Context, table, instanceType string, pricePerHour float64, memory, vcpu string) error {
	if !IsKnownTable(table) {
		return fmt.Errorf("unknown pricing table: %s", table)
	}
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (instance_type, price_per_hour, memory, vcpu)
		VALUES (?, ?, ?, ?)
	`, table)
	if _, err := s.db.ExecContext(ctx, query, instanceType, pricePerHour, memory, vcpu); err != nil {
		return fmt.Errorf("failed to insert pricing row: %w", err)
	}
	return nil
}

// SchemaDescription returns a textual schema of the given tables for the SQL
// generation prompt.
func (s *Store) SchemaDescription(tables []string) string {
	var b strings.Builder
	for _, table := range tables {
		desc, ok := tableCatalog[table]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "Table %s: %s\n", table, desc)
		fmt.Fprintf(&b, "Columns: instance_type (TEXT), price_per_hour (REAL), memory (TEXT), vcpu (TEXT)\n\n")
	}
	return b.String()
}
