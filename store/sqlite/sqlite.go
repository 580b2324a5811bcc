/*
Package sqlite provides a SQLite-backed implementation of record.Client.

PURPOSE:
  Stands in for the hosted record store in real deployments and local dev.
  The hosted store is schemaless from the client's perspective (property
  collections differ per project), so rows are persisted as a JSON field
  payload with the hot filter columns extracted alongside it.

SCHEMA:
  records:
    id          TEXT PRIMARY KEY (uuid)
    collection  TEXT             which named collection the row lives in
    name        TEXT             extracted "Name" field (client/balance lookups)
    block, lot  TEXT             extracted identity fields (property/balance keys)
    fields_json TEXT             the full row
    created_at, updated_at TEXT  RFC3339

  Filters on Name/Block/Lot push down to SQL; any remaining filter fields
  (Project, Reference, ...) are matched in Go on the decoded rows. At
  back-office scale that split keeps the hot paths indexed without
  hardcoding every project's schema.

SEMANTICS:
  Matches record.Client exactly: last-write-wins updates, "" patch values
  clear fields, Delete of nothing is not an error. No multi-statement
  transactions are offered - the contract under test is the hosted store's.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/omniportal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - record: the contract this package implements
  - record/memstore: the in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Omniportal2025/omniportal-core/record"
)

// Extracted filter columns. These are the only fields the orchestrators
// ever key on; everything else matches in Go.
const (
	fieldName  = "Name"
	fieldBlock = "Block"
	fieldLot   = "Lot"
)

// Store implements record.Client on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		block TEXT NOT NULL DEFAULT '',
		lot TEXT NOT NULL DEFAULT '',
		fields_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_collection
		ON records(collection);

	-- Client and document lookups during Sell/Reopen
	CREATE INDEX IF NOT EXISTS idx_records_collection_name
		ON records(collection, name);

	-- Property and balance identity lookups (hot path)
	CREATE INDEX IF NOT EXISTS idx_records_collection_block_lot
		ON records(collection, block, lot);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD CLIENT (record.Client interface)
// =============================================================================

// Get returns the first row matching key.
func (s *Store) Get(ctx context.Context, collection string, key record.Filter) (record.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.selectRows(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, record.ErrNotFound
	}
	return rows[0].fields, nil
}

// List returns all rows matching filter, in insertion order.
func (s *Store) List(ctx context.Context, collection string, filter record.Filter) ([]record.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, err := s.selectRows(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	result := make([]record.Row, len(stored))
	for i, r := range stored {
		result[i] = r.fields
	}
	return result, nil
}

// Insert stores a new row, assigning an id when absent.
func (s *Store) Insert(ctx context.Context, collection string, row record.Row) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := row.Clone()
	if stored[record.FieldID] == "" {
		stored[record.FieldID] = uuid.NewString()
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, collection, name, block, lot, fields_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stored[record.FieldID], collection,
		stored[fieldName], stored[fieldBlock], stored[fieldLot],
		string(payload), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}
	return stored, nil
}

// Update applies patch to every matching row. A "" patch value clears the
// field. Returns the first updated row, or ErrNotFound.
func (s *Store) Update(ctx context.Context, collection string, key record.Filter, patch record.Row) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched, err := s.selectRows(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, record.ErrNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var first record.Row
	for _, m := range matched {
		for k, v := range patch {
			if v == "" {
				delete(m.fields, k)
				continue
			}
			m.fields[k] = v
		}
		payload, err := json.Marshal(m.fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
			UPDATE records SET name = ?, block = ?, lot = ?, fields_json = ?, updated_at = ?
			WHERE id = ?`,
			m.fields[fieldName], m.fields[fieldBlock], m.fields[fieldLot],
			string(payload), now, m.id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update record: %w", err)
		}
		if first == nil {
			first = m.fields.Clone()
		}
	}
	return first, nil
}

// Delete removes every matching row and returns the count.
func (s *Store) Delete(ctx context.Context, collection string, filter record.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched, err := s.selectRows(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	for _, m := range matched {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", m.id); err != nil {
			return 0, fmt.Errorf("failed to delete record: %w", err)
		}
	}
	return len(matched), nil
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

type storedRow struct {
	id     string
	fields record.Row
}

// selectRows loads matching rows for a collection. Name/Block/Lot filter
// fields push down to the indexed columns; leftover fields match in Go.
func (s *Store) selectRows(ctx context.Context, collection string, filter record.Filter) ([]storedRow, error) {
	query := "SELECT id, fields_json FROM records WHERE collection = ?"
	args := []any{collection}

	rest := record.Filter{}
	for k, v := range filter {
		switch k {
		case fieldName:
			query += " AND name = ?"
			args = append(args, v)
		case fieldBlock:
			query += " AND block = ?"
			args = append(args, v)
		case fieldLot:
			query += " AND lot = ?"
			args = append(args, v)
		default:
			rest[k] = v
		}
	}
	query += " ORDER BY rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var result []storedRow
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		fields := record.Row{}
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
		}
		if !rest.Matches(fields) {
			continue
		}
		result = append(result, storedRow{id: id, fields: fields})
	}
	return result, rows.Err()
}

// Reset clears all data (for dev/demo seeding).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM records")
	return err
}
