package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"petsnapshot/internal/config"
	"petsnapshot/internal/domain"
	"petsnapshot/internal/infrastructure/petfinder"
	"petsnapshot/internal/infrastructure/scheduler"
	"petsnapshot/internal/infrastructure/storage"
	"petsnapshot/internal/infrastructure/telegram"
	"petsnapshot/internal/infrastructure/tokencache"
	"petsnapshot/internal/logging"
	"petsnapshot/internal/ports"
	"petsnapshot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	auth     *petfinder.Authenticator
	pipeline *usecase.Pipeline
	repo     *storage.SQLRepository
}

// New builds the runnable application. The database is opened eagerly so
// connection problems surface before any API call.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	pf := cfg.Petfinder
	auth := petfinder.NewAuthenticator(petfinder.AuthenticatorDeps{
		Config: petfinder.AuthConfig{
			TokenURL:     pf.TokenURL,
			ClientID:     pf.APIKey,
			ClientSecret: pf.APISecret,
			SafetyMargin: pf.TokenSafetyMargin,
			Retry:        pf.AuthRetry,
		},
		Store:  tokencache.NewFileCache(pf.TokenCachePath, baseLogger.With("component", "tokencache")),
		Logger: baseLogger.With("component", "authenticator"),
	})

	resources := map[domain.ResourceKind]petfinder.ResourceConfig{}
	pageSizes := map[domain.ResourceKind]int{}
	for _, kind := range []domain.ResourceKind{domain.KindAnimals, domain.KindOrganizations} {
		res := cfg.Resource(kind)
		resources[kind] = petfinder.ResourceConfig{Params: res.Params, MaxPages: res.MaxPages}
		pageSizes[kind] = res.PageSize
	}

	fetcher := petfinder.NewFetcher(petfinder.FetcherDeps{
		Config: petfinder.FetcherConfig{
			BaseURL:           pf.BaseURL,
			UserAgent:         pf.UserAgent,
			Timeout:           pf.Timeout,
			RequestsPerSecond: pf.RequestsPerSecond,
			RateLimit:         pf.RateLimitRetry,
			ServerError:       pf.ServerErrorRetry,
			Resources:         resources,
		},
		Tokens: auth,
		Logger: baseLogger.With("component", "fetcher"),
	})

	var (
		writers  []ports.SnapshotWriter
		recorder ports.RunRecorder
		repo     *storage.SQLRepository
	)
	if cfg.Output.Dir != "" {
		writers = append(writers, storage.NewFileWriter(cfg.Output.Dir, baseLogger.With("component", "files")))
	}
	if cfg.Database.DSN != "" {
		var err error
		repo, err = storage.OpenSQL(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		writers = append(writers, repo)
		recorder = repo
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		notifier = telegram.NewNotifier(telegram.Config{
			BotToken:     tg.BotToken,
			ChatID:       tg.ChatID,
			APIURL:       tg.APIURL,
			OnlyProblems: tg.OnlyProblems,
		})
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    fetcher,
		Writer:    storage.NewMultiWriter(writers...),
		Recorder:  recorder,
		Notifier:  notifier,
		PageSizes: pageSizes,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, logger: baseLogger, auth: auth, pipeline: pipeline, repo: repo}, nil
}

// Run performs a single collection for today in the scheduler timezone.
func (a *Application) Run(ctx context.Context) (domain.RunReport, error) {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// Schedule runs the pipeline on the configured cron expression until ctx
// ends, then waits for a running collection to finish.
func (a *Application) Schedule(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.cfg.Scheduler.RunOnStart,
		a.logger.With("component", "cron"),
	)
	if err := driver.Validate(); err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if next, err := driver.NextRun(time.Now()); err == nil {
		a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "next_run", next)
	}

	<-ctx.Done()
	a.logger.Info("scheduler stopping")
	return sched.Stop(context.Background())
}

// Token returns the current bearer token, forcing a new one when refresh is set.
func (a *Application) Token(ctx context.Context, refresh bool) (domain.AccessToken, error) {
	if refresh {
		return a.auth.Refresh(ctx)
	}
	return a.auth.Token(ctx)
}

// History returns the latest recorded runs, newest first.
func (a *Application) History(ctx context.Context, limit uint64) ([]domain.RunReport, error) {
	if a.repo == nil {
		return nil, errors.New("run history needs a database: set database.dsn")
	}
	return a.repo.RecentRuns(ctx, limit)
}

// Close releases the database connection.
func (a *Application) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}
