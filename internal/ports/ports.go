package ports

import (
	"context"
	"iter"
	"time"

	"petsnapshot/internal/domain"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (domain.AccessToken, bool)
	Save(token domain.AccessToken) error
}

// TokenProvider hands out bearer tokens; Refresh bypasses any cache.
type TokenProvider interface {
	Token(ctx context.Context) (domain.AccessToken, error)
	Refresh(ctx context.Context) (domain.AccessToken, error)
}

// PageSource walks a paginated collection lazily.
type PageSource interface {
	FetchAll(ctx context.Context, kind domain.ResourceKind, pageSize int) iter.Seq2[domain.Page, error]
}

// SnapshotWriter persists the three output sets of a run.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snapshot domain.Snapshot) error
}

// RunRecorder keeps the history of run outcomes.
type RunRecorder interface {
	SaveRun(ctx context.Context, report domain.RunReport) error
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.RunReport) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
