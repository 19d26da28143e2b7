// Package notify sends customer-facing emails through the Mailgun HTTP API.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"washwise/pkg/config"
)

type Mailer struct {
	domain string
	apiKey string
	from   string

	httpClient *http.Client
}

func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{
		domain:     cfg.Domain,
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether the mailer is configured. An unconfigured mailer
// silently drops messages so local dev needs no Mailgun account.
func (m *Mailer) Enabled() bool {
	return m.domain != "" && m.apiKey != ""
}

func (m *Mailer) Send(ctx context.Context, to, subject, html string) error {
	if !m.Enabled() {
		return nil
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("%s <mailgun@%s>", m.from, m.domain))
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("html", html)

	endpoint := fmt.Sprintf("https://api.mailgun.net/v3/%s/messages", m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mailgun: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
