package storage

import (
	"context"
	"errors"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/ports"
)

// MultiWriter fans a snapshot out to several writers. Every writer is tried;
// failures are joined.
type MultiWriter struct {
	writers []ports.SnapshotWriter
}

var _ ports.SnapshotWriter = (*MultiWriter)(nil)

// NewMultiWriter skips nil writers.
func NewMultiWriter(writers ...ports.SnapshotWriter) *MultiWriter {
	m := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// WriteSnapshot calls each writer in order.
func (m *MultiWriter) WriteSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.WriteSnapshot(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
