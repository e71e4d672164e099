package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/ports"
)

// FileWriter writes each snapshot as three dated, indented JSON files.
type FileWriter struct {
	dir    string
	logger *slog.Logger
}

var _ ports.SnapshotWriter = (*FileWriter)(nil)

// NewFileWriter writes into dir, creating it on first use.
func NewFileWriter(dir string, log *slog.Logger) *FileWriter {
	return &FileWriter{dir: dir, logger: log}
}

// Paths returns the artifact paths for a snapshot date.
func (w *FileWriter) Paths(snapshot domain.Snapshot) (animals, organizations, enriched string) {
	date := snapshot.Date.Format(dateLayout)
	return filepath.Join(w.dir, fmt.Sprintf("data_%s.json", date)),
		filepath.Join(w.dir, fmt.Sprintf("organizations_%s.json", date)),
		filepath.Join(w.dir, fmt.Sprintf("data_with_orgs_%s.json", date))
}

// WriteSnapshot replaces the three files atomically, one after another.
func (w *FileWriter) WriteSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	animalsPath, orgsPath, enrichedPath := w.Paths(snapshot)

	artifacts := []struct {
		path  string
		value any
	}{
		{animalsPath, nonNil(snapshot.Animals)},
		{orgsPath, nonNil(snapshot.Organizations)},
		{enrichedPath, nonNil(snapshot.Enriched)},
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return &domain.PersistenceError{Artifact: w.dir, Err: fmt.Errorf("create output dir: %w", err)}
	}

	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			return &domain.PersistenceError{Artifact: artifact.path, Err: err}
		}

		payload, err := json.MarshalIndent(artifact.value, "", "  ")
		if err != nil {
			return &domain.PersistenceError{Artifact: artifact.path, Err: fmt.Errorf("marshal: %w", err)}
		}
		if err := renameio.WriteFile(artifact.path, append(payload, '\n'), 0o644); err != nil {
			return &domain.PersistenceError{Artifact: artifact.path, Err: err}
		}
		w.debug("snapshot file written", "path", artifact.path, "bytes", len(payload))
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (w *FileWriter) debug(msg string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}
