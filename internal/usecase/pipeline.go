package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/enrich"
	"petsnapshot/internal/normalize"
	"petsnapshot/internal/ports"
)

const defaultPageSize = 100

// PipelineDeps wires all driven adapters into the collection pipeline.
type PipelineDeps struct {
	Source    ports.PageSource
	Writer    ports.SnapshotWriter
	Recorder  ports.RunRecorder
	Notifier  ports.Notifier
	PageSizes map[domain.ResourceKind]int
	Now       func() time.Time
	NewID     func() string
	Logger    *slog.Logger
}

// Pipeline fetches animals and organizations, cleans them, joins them and
// persists the snapshot.
type Pipeline struct {
	source    ports.PageSource
	writer    ports.SnapshotWriter
	recorder  ports.RunRecorder
	notifier  ports.Notifier
	pageSizes map[domain.ResourceKind]int
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Pipeline{
		source:    deps.Source,
		writer:    deps.Writer,
		recorder:  deps.Recorder,
		notifier:  deps.Notifier,
		pageSizes: deps.PageSizes,
		now:       now,
		newID:     newID,
		logger:    deps.Logger,
	}
}

// Run performs one collection for the given day. Quota exhaustion, upstream
// failures and interruption stop only the affected collection; whatever was
// gathered is still written and the run is reported as partial. Auth and
// client errors abort the run without writing a snapshot. The returned error
// is non-nil only for aborted runs.
func (p *Pipeline) Run(ctx context.Context, day time.Time) (domain.RunReport, error) {
	report := domain.RunReport{
		ID:        p.newID(),
		StartedAt: p.now(),
		Status:    domain.RunComplete,
	}
	if p.source == nil {
		return p.finish(ctx, report, fmt.Errorf("page source is not configured"))
	}

	p.info("run started", "run_id", report.ID, "day", day.Format("2006-01-02"))

	animals, animalsReport, err := collect(ctx, p, domain.KindAnimals, normalize.AnimalPage)
	report.Resources = append(report.Resources, animalsReport)
	if reason, fatal := domain.Classify(err); fatal {
		report.Status, report.Reason = domain.RunAborted, reason
		return p.finish(ctx, report, fmt.Errorf("fetch animals: %w", err))
	}

	orgs, orgsReport, err := collect(ctx, p, domain.KindOrganizations, normalize.OrganizationPage)
	report.Resources = append(report.Resources, orgsReport)
	if reason, fatal := domain.Classify(err); fatal {
		report.Status, report.Reason = domain.RunAborted, reason
		return p.finish(ctx, report, fmt.Errorf("fetch organizations: %w", err))
	}

	for _, res := range report.Resources {
		if !res.Complete {
			report.Status = domain.RunPartial
			report.Reason = res.Reason
			break
		}
	}

	enriched := enrich.Enrich(animals, orgs)
	report.Enriched = len(enriched)
	report.Unresolved = enrich.Unresolved(enriched)

	snapshot := domain.Snapshot{
		Date:          day,
		Animals:       animals,
		Organizations: orgs,
		Enriched:      enriched,
	}

	if p.writer != nil {
		// Persist even when the run was interrupted.
		if err := p.writer.WriteSnapshot(context.WithoutCancel(ctx), snapshot); err != nil {
			reason, _ := domain.Classify(err)
			report.Status, report.Reason = domain.RunAborted, reason
			return p.finish(ctx, report, fmt.Errorf("write snapshot: %w", err))
		}
	}

	return p.finish(ctx, report, nil)
}

// collect drains one collection, normalizing page by page. On error the
// records gathered so far are returned with the report.
func collect[T any](
	ctx context.Context,
	p *Pipeline,
	kind domain.ResourceKind,
	normalizePage func([]domain.RawRecord) ([]T, []error),
) ([]T, domain.ResourceReport, error) {
	res := domain.ResourceReport{Kind: kind}
	items := make([]T, 0)

	for page, err := range p.source.FetchAll(ctx, kind, p.pageSize(kind)) {
		if err != nil {
			res.Reason, _ = domain.Classify(err)
			res.Error = err.Error()
			p.warn("fetch stopped", "kind", kind, "pages", res.Pages, "reason", res.Reason, "error", err)
			return items, res, err
		}

		cleaned, skipped := normalizePage(page.Records)
		for _, skipErr := range skipped {
			p.warn("skip malformed record", "kind", kind, "page", page.Number, "error", skipErr)
		}

		items = append(items, cleaned...)
		res.Pages++
		res.Records += len(cleaned)
		res.Skipped += len(skipped)
	}

	res.Complete = true
	p.debug("fetch complete", "kind", kind, "pages", res.Pages, "records", res.Records, "skipped", res.Skipped)
	return items, res, nil
}

// finish stamps the report, records it and sends the notification. Neither
// bookkeeping step can change the run status.
func (p *Pipeline) finish(ctx context.Context, report domain.RunReport, runErr error) (domain.RunReport, error) {
	if runErr != nil && report.Status != domain.RunAborted {
		report.Status, report.Reason = domain.RunAborted, domain.ReasonUnknown
	}
	report.FinishedAt = p.now()

	persistCtx := context.WithoutCancel(ctx)
	if p.recorder != nil {
		if err := p.recorder.SaveRun(persistCtx, report); err != nil {
			p.warn("save run report", "run_id", report.ID, "error", err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.PublishReport(persistCtx, report); err != nil {
			p.warn("publish run report", "run_id", report.ID, "error", err)
		}
	}

	p.info("run finished",
		"run_id", report.ID,
		"status", report.Status,
		"reason", report.Reason,
		"enriched", report.Enriched,
		"unresolved", report.Unresolved,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	if runErr != nil {
		return report, fmt.Errorf("run %s aborted: %w", report.ID, runErr)
	}
	return report, nil
}

func (p *Pipeline) pageSize(kind domain.ResourceKind) int {
	if size := p.pageSizes[kind]; size > 0 {
		return size
	}
	return defaultPageSize
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
