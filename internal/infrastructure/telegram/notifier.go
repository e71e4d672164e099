package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/ports"
)

const defaultAPIURL = "https://api.telegram.org"

// Config configures the bot. OnlyProblems suppresses messages for complete runs.
type Config struct {
	BotToken     string
	ChatID       string
	APIURL       string
	OnlyProblems bool
}

// Notifier sends run summaries to a Telegram chat via bot API.
type Notifier struct {
	cfg    Config
	client *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg Config) *Notifier {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.APIURL, "/")).
		SetTimeout(5 * time.Second)

	return &Notifier{cfg: cfg, client: client}
}

// PublishReport posts a plain-text summary of the run.
func (n *Notifier) PublishReport(ctx context.Context, report domain.RunReport) error {
	if n.cfg.BotToken == "" || n.cfg.ChatID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	if n.cfg.OnlyProblems && report.Status == domain.RunComplete {
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": n.cfg.ChatID,
			"text":    FormatReport(report),
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.cfg.BotToken))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram error: %s", resp.Status())
	}
	return nil
}

// FormatReport renders the message body for a run.
func FormatReport(report domain.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "petsnapshot run %s: %s", report.ID, report.Status)
	if report.Reason != domain.ReasonNone {
		fmt.Fprintf(&b, " (%s)", report.Reason)
	}
	b.WriteString("\n")

	for _, res := range report.Resources {
		state := "complete"
		if !res.Complete {
			state = "incomplete: " + string(res.Reason)
		}
		fmt.Fprintf(&b, "- %s: %d records from %d pages, %d skipped, %s\n",
			res.Kind, res.Records, res.Pages, res.Skipped, state)
	}

	fmt.Fprintf(&b, "enriched: %d (unresolved organizations: %d)\n", report.Enriched, report.Unresolved)
	fmt.Fprintf(&b, "took %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	return b.String()
}
