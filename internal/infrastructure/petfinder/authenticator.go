package petfinder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/ports"
	"petsnapshot/internal/retry"
)

const defaultTokenLifetime = time.Hour

// AuthConfig holds the client-credentials settings for the identity endpoint.
type AuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	// SafetyMargin is subtracted from the reported lifetime so a token never
	// expires in the middle of a request.
	SafetyMargin time.Duration
	Retry        retry.Policy
}

// AuthenticatorDeps groups collaborators of the Authenticator.
type AuthenticatorDeps struct {
	Config     AuthConfig
	Store      ports.TokenStore
	HTTPClient *http.Client
	Sleeper    retry.Sleeper
	Now        func() time.Time
	Logger     *slog.Logger
}

// Authenticator hands out Petfinder bearer tokens. The cache is consulted once
// per Authenticator; after that the in-memory token is reused until it expires.
type Authenticator struct {
	cfg     AuthConfig
	oauth   *clientcredentials.Config
	store   ports.TokenStore
	client  *http.Client
	sleeper retry.Sleeper
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	loaded  bool
	current domain.AccessToken
}

var _ ports.TokenProvider = (*Authenticator)(nil)

// NewAuthenticator wires the oauth2 client-credentials flow to a token store.
func NewAuthenticator(deps AuthenticatorDeps) *Authenticator {
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = retry.TimerSleeper{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Authenticator{
		cfg: deps.Config,
		oauth: &clientcredentials.Config{
			ClientID:     deps.Config.ClientID,
			ClientSecret: deps.Config.ClientSecret,
			TokenURL:     deps.Config.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		store:   deps.Store,
		client:  client,
		sleeper: sleeper,
		now:     now,
		logger:  deps.Logger,
	}
}

// Token returns a usable token, requesting a new one only when neither the
// cache nor memory holds a valid token.
func (a *Authenticator) Token(ctx context.Context) (domain.AccessToken, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		a.loaded = true
		if a.store != nil {
			if cached, ok := a.store.Load(); ok {
				a.debug("using cached token", "expires_at", cached.ExpiresAt)
				a.current = cached
			}
		}
	}

	if a.current.Valid(a.now()) {
		return a.current, nil
	}
	return a.acquire(ctx)
}

// Refresh discards the current token and requests a new one.
func (a *Authenticator) Refresh(ctx context.Context) (domain.AccessToken, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loaded = true
	a.current = domain.AccessToken{}
	return a.acquire(ctx)
}

func (a *Authenticator) acquire(ctx context.Context) (domain.AccessToken, error) {
	budget := retry.NewBudget(a.cfg.Retry)
	reqCtx := context.WithValue(ctx, oauth2.HTTPClient, a.client)

	for {
		issuedAt := a.now()
		tok, err := a.oauth.Token(reqCtx)
		if err == nil {
			token := domain.AccessToken{
				Value:     tok.AccessToken,
				ExpiresAt: a.expiresAt(tok, issuedAt),
			}
			a.current = token
			if a.store != nil {
				if err := a.store.Save(token); err != nil {
					a.warn("save token cache", "error", err)
				}
			}
			a.debug("token acquired", "expires_at", token.ExpiresAt)
			return token, nil
		}

		if !retryableAuthError(err) {
			return domain.AccessToken{}, &domain.AuthError{Kind: domain.AuthInvalidCredentials, Err: err}
		}

		delay, ok := budget.Next(0)
		if !ok {
			return domain.AccessToken{}, &domain.AuthError{Kind: domain.AuthUnreachable, Err: err}
		}

		a.warn("identity endpoint unavailable, retrying", "attempt", budget.Retries(), "delay", delay, "error", err)
		if err := a.sleeper.Sleep(ctx, delay); err != nil {
			return domain.AccessToken{}, fmt.Errorf("wait for identity endpoint: %w: %w", domain.ErrInterrupted, err)
		}
	}
}

// expiresAt derives the usable lifetime of a token and subtracts the safety
// margin. Lifetimes shorter than the margin keep half of their length.
func (a *Authenticator) expiresAt(tok *oauth2.Token, issuedAt time.Time) time.Time {
	lifetime, ok := expiresIn(tok.Extra("expires_in"))
	if !ok {
		if !tok.Expiry.IsZero() {
			lifetime = tok.Expiry.Sub(issuedAt)
		} else {
			lifetime = defaultTokenLifetime
		}
	}

	margin := a.cfg.SafetyMargin
	if lifetime <= margin {
		margin = lifetime / 2
	}
	return issuedAt.Add(lifetime - margin)
}

func expiresIn(value any) (time.Duration, bool) {
	var seconds float64
	switch v := value.(type) {
	case float64:
		seconds = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		seconds = f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		seconds = f
	default:
		return 0, false
	}
	if seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// retryableAuthError reports whether the identity endpoint failure is
// transient. Rejected credentials and other client errors are not.
func retryableAuthError(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.Response == nil {
		return true
	}

	status := retrieveErr.Response.StatusCode
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

func (a *Authenticator) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Authenticator) warn(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
