package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BackupLine is one record of a workspace backup. A backup is a JSONL stream
// with one line per stored record, tagged with its collection name.
type BackupLine struct {
	Collection string          `json:"collection"`
	Record     json.RawMessage `json:"record"`
}

type BackupSummary struct {
	Records     int            `json:"records"`
	Collections map[string]int `json:"collections"`
}

type backupCollection interface {
	Name() string
	rawAll(ctx context.Context) ([]json.RawMessage, error)
	decodeRaw(raw json.RawMessage) (func(context.Context) error, error)
}

// backupCollections lists collections parents first so a restore never
// writes a log before its action.
func (s *Store) backupCollections() []backupCollection {
	return []backupCollection{
		s.Spaces,
		s.Actions,
		s.ActionLogs,
		s.DataEntries,
		s.Problems,
		s.Todos,
		s.Progress,
	}
}

// WriteBackup streams every record of the workspace to w as JSONL.
func (s *Store) WriteBackup(ctx context.Context, w io.Writer) (BackupSummary, error) {
	sum := BackupSummary{Collections: map[string]int{}}
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, c := range s.backupCollections() {
		recs, err := c.rawAll(ctx)
		if err != nil {
			return BackupSummary{}, fmt.Errorf("read %s: %w", c.Name(), err)
		}
		for _, r := range recs {
			if err := enc.Encode(BackupLine{Collection: c.Name(), Record: r}); err != nil {
				return BackupSummary{}, err
			}
		}
		sum.Collections[c.Name()] = len(recs)
		sum.Records += len(recs)
	}
	if err := bw.Flush(); err != nil {
		return BackupSummary{}, err
	}
	return sum, nil
}

// WriteBackupFile writes the backup to path, replacing it atomically.
func (s *Store) WriteBackupFile(ctx context.Context, path string) (BackupSummary, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		return BackupSummary{}, errors.New("backup: missing path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BackupSummary{}, err
	}
	var b strings.Builder
	sum, err := s.WriteBackup(ctx, &b)
	if err != nil {
		return BackupSummary{}, err
	}
	if err := atomicWriteFile(dir, filepath.Base(path)+".*.tmp", path, []byte(b.String()), 0o644); err != nil {
		return BackupSummary{}, err
	}
	return sum, nil
}

// RestoreBackup replaces the whole workspace with the records read from r.
// The stream is fully decoded before anything is cleared, so a malformed
// backup leaves the workspace untouched.
func (s *Store) RestoreBackup(ctx context.Context, r io.Reader) (BackupSummary, error) {
	byName := map[string]backupCollection{}
	for _, c := range s.backupCollections() {
		byName[c.Name()] = c
	}

	sum := BackupSummary{Collections: map[string]int{}}
	var writes []func(context.Context) error
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var bl BackupLine
		if err := json.Unmarshal([]byte(line), &bl); err != nil {
			return BackupSummary{}, fmt.Errorf("backup line %d: %w", lineNo, err)
		}
		c, ok := byName[bl.Collection]
		if !ok {
			return BackupSummary{}, fmt.Errorf("backup line %d: unknown collection %q", lineNo, bl.Collection)
		}
		write, err := c.decodeRaw(bl.Record)
		if err != nil {
			return BackupSummary{}, fmt.Errorf("backup line %d: %w", lineNo, err)
		}
		writes = append(writes, write)
		sum.Collections[bl.Collection]++
		sum.Records++
	}
	if err := sc.Err(); err != nil {
		return BackupSummary{}, fmt.Errorf("read backup: %w", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		return BackupSummary{}, err
	}
	for _, w := range writes {
		if err := w(ctx); err != nil {
			return BackupSummary{}, err
		}
	}
	s.logger.InfoContext(ctx, "workspace restored", "records", sum.Records)
	return sum, nil
}

func (s *Store) RestoreBackupFile(ctx context.Context, path string) (BackupSummary, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return BackupSummary{}, err
	}
	defer f.Close()
	return s.RestoreBackup(ctx, f)
}
