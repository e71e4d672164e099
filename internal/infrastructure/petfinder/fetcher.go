// Package petfinder talks to the Petfinder v2 API: token acquisition and the
// paginated, rate-limited walk over animals and organizations.
package petfinder

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/ports"
	"petsnapshot/internal/retry"
)

const maxErrorBody = 512

// ResourceConfig tunes the walk over one collection.
type ResourceConfig struct {
	// Params are extra query parameters such as location or sort.
	Params map[string]string
	// MaxPages caps the walk; zero means no cap.
	MaxPages int
}

// FetcherConfig holds the HTTP and retry settings of the fetcher.
type FetcherConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	RateLimit         retry.Policy
	ServerError       retry.Policy
	Resources         map[domain.ResourceKind]ResourceConfig
}

// FetcherDeps groups collaborators of the Fetcher.
type FetcherDeps struct {
	Config     FetcherConfig
	Tokens     ports.TokenProvider
	HTTPClient *http.Client
	Sleeper    retry.Sleeper
	Now        func() time.Time
	Logger     *slog.Logger
}

// Fetcher pages through Petfinder collections one request at a time.
type Fetcher struct {
	cfg     FetcherConfig
	client  *resty.Client
	tokens  ports.TokenProvider
	limiter *rate.Limiter
	sleeper retry.Sleeper
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.PageSource = (*Fetcher)(nil)

// NewFetcher builds a resty client bound to the API base URL.
func NewFetcher(deps FetcherDeps) *Fetcher {
	cfg := deps.Config

	var client *resty.Client
	if deps.HTTPClient != nil {
		client = resty.NewWithClient(deps.HTTPClient)
	} else {
		client = resty.New()
	}
	client.SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = retry.TimerSleeper{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Fetcher{
		cfg:     cfg,
		client:  client,
		tokens:  deps.Tokens,
		limiter: rate.NewLimiter(limit, 1),
		sleeper: sleeper,
		now:     now,
		logger:  deps.Logger,
	}
}

// FetchAll returns the pages of a collection in order. The sequence requests
// pages lazily, stops after the first error and can be ranged only once.
func (f *Fetcher) FetchAll(ctx context.Context, kind domain.ResourceKind, pageSize int) iter.Seq2[domain.Page, error] {
	var consumed atomic.Bool

	return func(yield func(domain.Page, error) bool) {
		if consumed.Swap(true) {
			yield(domain.Page{Kind: kind}, domain.ErrSequenceConsumed)
			return
		}
		f.walk(ctx, kind, pageSize, yield)
	}
}

func (f *Fetcher) walk(ctx context.Context, kind domain.ResourceKind, pageSize int, yield func(domain.Page, error) bool) {
	res := f.cfg.Resources[kind]

	for number := 1; res.MaxPages <= 0 || number <= res.MaxPages; number++ {
		page, err := f.fetchPage(ctx, kind, number, pageSize, res.Params)
		if err != nil {
			yield(domain.Page{Kind: kind, Number: number}, err)
			return
		}

		if len(page.Records) == 0 {
			f.debug("empty page ends walk", "kind", kind, "page", number)
			return
		}

		f.debug("page fetched", "kind", kind, "page", number, "records", len(page.Records), "has_more", page.HasMore)
		if !yield(page, nil) || !page.HasMore {
			return
		}
	}

	f.debug("page cap reached", "kind", kind, "max_pages", res.MaxPages)
}

// fetchPage runs the retry state machine for a single page. Every retry
// re-issues the same page number, so pages are neither skipped nor repeated.
func (f *Fetcher) fetchPage(ctx context.Context, kind domain.ResourceKind, number, pageSize int, params map[string]string) (domain.Page, error) {
	quota := retry.NewBudget(f.cfg.RateLimit)
	upstream := retry.NewBudget(f.cfg.ServerError)
	refreshed := false

	for {
		if err := ctx.Err(); err != nil {
			return domain.Page{}, interrupted(kind, number, err)
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return domain.Page{}, interrupted(kind, number, err)
		}

		token, err := f.tokens.Token(ctx)
		if err != nil {
			return domain.Page{}, err
		}

		resp, err := f.client.R().
			SetContext(context.WithoutCancel(ctx)).
			SetAuthToken(token.Value).
			SetQueryParams(params).
			SetQueryParam("page", strconv.Itoa(number)).
			SetQueryParam("limit", strconv.Itoa(pageSize)).
			Get("/" + string(kind))
		if err != nil {
			delay, ok := upstream.Next(0)
			if !ok {
				return domain.Page{}, &domain.UpstreamError{Kind: kind, Page: number, Err: fmt.Errorf("request page: %w", err)}
			}
			f.warn("request failed, retrying", "kind", kind, "page", number, "attempt", upstream.Retries(), "delay", delay, "error", err)
			if err := f.sleeper.Sleep(ctx, delay); err != nil {
				return domain.Page{}, interrupted(kind, number, err)
			}
			continue
		}

		status := resp.StatusCode()
		switch {
		case status >= 200 && status < 300:
			page, err := decodePage(kind, number, pageSize, resp.Body())
			if err != nil {
				return domain.Page{}, &domain.UpstreamError{Kind: kind, Page: number, Status: status, Err: err}
			}
			return page, nil

		case status == http.StatusUnauthorized:
			if refreshed {
				return domain.Page{}, &domain.AuthError{
					Kind: domain.AuthRejected,
					Err:  fmt.Errorf("%s page %d: token rejected after refresh", kind, number),
				}
			}
			refreshed = true
			f.warn("token rejected, refreshing", "kind", kind, "page", number)
			if _, err := f.tokens.Refresh(ctx); err != nil {
				return domain.Page{}, err
			}

		case status == http.StatusTooManyRequests:
			hint := retryAfter(resp.Header().Get("Retry-After"), f.now())
			delay, ok := quota.Next(hint)
			if !ok {
				return domain.Page{}, &domain.QuotaExhaustedError{Kind: kind, Page: number, Attempts: quota.Retries()}
			}
			f.warn("rate limited, backing off", "kind", kind, "page", number, "attempt", quota.Retries(), "delay", delay)
			if err := f.sleeper.Sleep(ctx, delay); err != nil {
				return domain.Page{}, interrupted(kind, number, err)
			}

		case status >= http.StatusInternalServerError:
			delay, ok := upstream.Next(0)
			if !ok {
				return domain.Page{}, &domain.UpstreamError{
					Kind: kind, Page: number, Status: status,
					Err: fmt.Errorf("%s", truncate(resp.String(), maxErrorBody)),
				}
			}
			f.warn("server error, retrying", "kind", kind, "page", number, "status", status, "attempt", upstream.Retries(), "delay", delay)
			if err := f.sleeper.Sleep(ctx, delay); err != nil {
				return domain.Page{}, interrupted(kind, number, err)
			}

		default:
			return domain.Page{}, &domain.ClientError{Kind: kind, Page: number, Status: status, Body: truncate(resp.String(), maxErrorBody)}
		}
	}
}

// maxRetryAfterSeconds keeps huge Retry-After values from overflowing a
// time.Duration. Retry policies cap the wait far below this anyway.
const maxRetryAfterSeconds = 7 * 24 * 60 * 60

func interrupted(kind domain.ResourceKind, number int, cause error) error {
	return fmt.Errorf("%s page %d: %w: %w", kind, number, domain.ErrInterrupted, cause)
}

// retryAfter parses a Retry-After header given either in seconds or as an
// HTTP date. Missing or past values return zero.
func retryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds <= 0 {
			return 0
		}
		if seconds > maxRetryAfterSeconds {
			seconds = maxRetryAfterSeconds
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func (f *Fetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
