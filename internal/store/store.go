package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"momentum-cli/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "momentum.sqlite"

// Store is one workspace: a single SQLite file holding every collection.
type Store struct {
	Dir string

	db     *sql.DB
	logger *slog.Logger

	Spaces      *Collection[model.Space]
	Actions     *Collection[model.ActionDefinition]
	ActionLogs  *Collection[model.ActionLog]
	DataEntries *Collection[model.DataEntryLog]
	Progress    *Collection[model.UserProgress]
	Problems    *Collection[model.Problem]
	Todos       *Collection[model.Todo]
}

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".momentum")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func WorkspaceDir(name string) (string, error) {
	name, err := NormalizeWorkspaceName(name)
	if err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workspaces", name), nil
}

// Open opens (creating if needed) the workspace store in dir.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store dir is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := openSQLite(ctx, filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, err
	}

	s := &Store{
		Dir:    dir,
		db:     db,
		logger: logger.With("component", "store"),

		Spaces: newCollection(db, "spaces", func(v model.Space) rowKeys {
			return rowKeys{id: v.ID}
		}),
		Actions: newCollection(db, "actions", func(v model.ActionDefinition) rowKeys {
			return rowKeys{id: v.ID, spaceID: v.SpaceID}
		}),
		ActionLogs: newCollection(db, "action_logs", func(v model.ActionLog) rowKeys {
			return rowKeys{id: v.ID, spaceID: v.SpaceID, refID: v.ActionDefinitionID}
		}),
		DataEntries: newCollection(db, "data_entries", func(v model.DataEntryLog) rowKeys {
			return rowKeys{id: v.ID, spaceID: v.SpaceID, refID: v.ActionDefinitionID}
		}),
		Progress: newCollection(db, "progress", func(v model.UserProgress) rowKeys {
			return rowKeys{id: v.UserID}
		}),
		Problems: newCollection(db, "problems", func(v model.Problem) rowKeys {
			return rowKeys{id: v.ID, spaceID: v.SpaceID}
		}),
		Todos: newCollection(db, "todos", func(v model.Todo) rowKeys {
			return rowKeys{id: v.ID, spaceID: v.SpaceID}
		}),
	}

	for _, m := range s.migrations() {
		if err := m(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SQLitePath() string { return filepath.Join(s.Dir, sqliteFileName) }

func (s *Store) migrations() []func(context.Context) error {
	return []func(context.Context) error{
		s.Spaces.migrate,
		s.Actions.migrate,
		s.ActionLogs.migrate,
		s.DataEntries.migrate,
		s.Progress.migrate,
		s.Problems.migrate,
		s.Todos.migrate,
		s.migrateEvents,
	}
}

type clearer interface {
	Name() string
	Clear(ctx context.Context) error
}

func (s *Store) clearers() []clearer {
	return []clearer{
		s.ActionLogs,
		s.DataEntries,
		s.Actions,
		s.Problems,
		s.Todos,
		s.Spaces,
		s.Progress,
	}
}

// ClearAll wipes every collection (full data reset). The first failing
// collection stops the reset; its failure is logged and returned.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, c := range s.clearers() {
		if err := c.Clear(ctx); err != nil {
			s.logger.ErrorContext(ctx, "clear collection failed", "collection", c.Name(), "error", err)
			return fmt.Errorf("clear %s: %w", c.Name(), err)
		}
		s.logger.DebugContext(ctx, "collection cleared", "collection", c.Name())
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events`); err != nil {
		s.logger.ErrorContext(ctx, "clear collection failed", "collection", "events", "error", err)
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}

// DeleteSpace removes a space and everything recorded in it.
func (s *Store) DeleteSpace(ctx context.Context, spaceID string) error {
	bySpace := []interface {
		DeleteBySpace(context.Context, string) (int64, error)
		Name() string
	}{s.ActionLogs, s.DataEntries, s.Actions, s.Problems, s.Todos}
	for _, c := range bySpace {
		n, err := c.DeleteBySpace(ctx, spaceID)
		if err != nil {
			return fmt.Errorf("delete %s for space %s: %w", c.Name(), spaceID, err)
		}
		s.logger.DebugContext(ctx, "space records deleted", "collection", c.Name(), "space", spaceID, "count", n)
	}
	return s.Spaces.Delete(ctx, spaceID)
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness
	// when the CLI and `momentum serve` share a workspace.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
