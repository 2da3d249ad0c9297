package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// HTTPMailer posts to a hosted email API: POST {base}/emails with a bearer key.
type HTTPMailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
	limiter *rate.Limiter
}

type MailerConfig struct {
	BaseURL       string
	APIKey        string
	From          string
	RatePerSecond float64
	Burst         int
}

func NewHTTPMailer(cfg MailerConfig) *HTTPMailer {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPMailer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (m *HTTPMailer) Send(ctx context.Context, e Email) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(sendEmailRequest{From: m.from, To: []string{e.To}, Subject: e.Subject, Text: e.Body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("email api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
