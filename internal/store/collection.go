package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// rowKeys are the indexed columns stored next to each JSON blob.
type rowKeys struct {
	id      string
	spaceID string
	refID   string
}

// Collection is a key-addressed set of records of one entity type, stored as
// JSON rows in a single SQLite table.
type Collection[T any] struct {
	db    *sql.DB
	table string
	keyOf func(T) rowKeys
}

func newCollection[T any](db *sql.DB, table string, keyOf func(T) rowKeys) *Collection[T] {
	return &Collection[T]{db: db, table: table, keyOf: keyOf}
}

func (c *Collection[T]) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + c.table + ` (
			id TEXT PRIMARY KEY,
			space_id TEXT NOT NULL,
			ref_id TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_` + c.table + `_space ON ` + c.table + `(space_id);`,
		`CREATE INDEX IF NOT EXISTS idx_` + c.table + `_ref ON ` + c.table + `(ref_id);`,
	}
	for _, st := range stmts {
		if _, err := c.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate %s: %w", c.table, err)
		}
	}
	return nil
}

// Get returns the record with the given id. ok is false when it does not exist.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, false, nil
	}
	var js string
	err := c.db.QueryRowContext(ctx, `SELECT json FROM `+c.table+` WHERE id = ?`, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal([]byte(js), &v); err != nil {
		return zero, false, fmt.Errorf("decode %s %s: %w", c.table, id, err)
	}
	return v, true, nil
}

// All returns every record in insertion order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	return c.query(ctx, `SELECT json FROM `+c.table+` ORDER BY rowid`)
}

func (c *Collection[T]) BySpace(ctx context.Context, spaceID string) ([]T, error) {
	return c.query(ctx, `SELECT json FROM `+c.table+` WHERE space_id = ? ORDER BY rowid`, spaceID)
}

// ByRef returns the records pointing at a parent entity (an action definition
// for logs and data entries).
func (c *Collection[T]) ByRef(ctx context.Context, refID string) ([]T, error) {
	return c.query(ctx, `SELECT json FROM `+c.table+` WHERE ref_id = ? ORDER BY rowid`, refID)
}

// Upsert inserts or replaces the record by id. Replacing keeps the original row
// position so insertion order stays stable.
func (c *Collection[T]) Upsert(ctx context.Context, v T) error {
	k := c.keyOf(v)
	if strings.TrimSpace(k.id) == "" {
		return fmt.Errorf("upsert %s: missing id", c.table)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO `+c.table+`(id, space_id, ref_id, json, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			space_id = excluded.space_id,
			ref_id = excluded.ref_id,
			json = excluded.json,
			updated_at_unixms = excluded.updated_at_unixms`,
		k.id, k.spaceID, k.refID, string(raw), time.Now().UTC().UnixMilli())
	return err
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM `+c.table+` WHERE id = ?`, id)
	return err
}

func (c *Collection[T]) DeleteBySpace(ctx context.Context, spaceID string) (int64, error) {
	return c.exec(ctx, `DELETE FROM `+c.table+` WHERE space_id = ?`, spaceID)
}

func (c *Collection[T]) DeleteByRef(ctx context.Context, refID string) (int64, error) {
	return c.exec(ctx, `DELETE FROM `+c.table+` WHERE ref_id = ?`, refID)
}

func (c *Collection[T]) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM `+c.table)
	return err
}

func (c *Collection[T]) Name() string { return c.table }

func (c *Collection[T]) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return rowsAffected(c.table, res)
}

func rowsAffected(table string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", table, err)
	}
	return n, nil
}

func (c *Collection[T]) query(ctx context.Context, q string, args ...any) ([]T, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", c.table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rawAll returns each stored JSON blob in insertion order without decoding.
func (c *Collection[T]) rawAll(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT json FROM `+c.table+` ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(js))
	}
	return out, rows.Err()
}

// decodeRaw checks that raw decodes as a record of this collection and
// returns it ready for Upsert.
func (c *Collection[T]) decodeRaw(raw json.RawMessage) (func(context.Context) error, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", c.table, err)
	}
	if strings.TrimSpace(c.keyOf(v).id) == "" {
		return nil, fmt.Errorf("decode %s record: missing id", c.table)
	}
	return func(ctx context.Context) error { return c.Upsert(ctx, v) }, nil
}
