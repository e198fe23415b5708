// Package mail implements the outbound notification gateway over the Brevo
// transactional email HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gadgetghar/account-service/internal/api/metrics"
)

const defaultAPIURL = "https://api.brevo.com/v3/smtp/email"

// Gateway sends verification and password-reset emails. When no API key is
// configured it degrades to logging the would-be sends, which keeps local
// development working without a mail account.
type Gateway struct {
	apiKey    string
	fromEmail string
	fromName  string
	apiURL    string
	client    *http.Client
	log       zerolog.Logger
}

type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
	Timeout   time.Duration
	// APIURL overrides the Brevo endpoint, for tests.
	APIURL string
}

func NewGateway(cfg Config, log zerolog.Logger) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	url := cfg.APIURL
	if url == "" {
		url = defaultAPIURL
	}
	return &Gateway{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		apiURL:    url,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

// Configured reports whether real delivery is possible.
func (g *Gateway) Configured() bool {
	return g.apiKey != "" && g.fromEmail != ""
}

func (g *Gateway) SendVerification(ctx context.Context, to, link string) error {
	body := fmt.Sprintf(`<p>Click <a href="%s">here</a> to verify your email.</p>`, link)
	err := g.send(ctx, to, "Verify your email - Gadget Ghar", body)
	g.count("verification", err)
	return err
}

func (g *Gateway) SendPasswordReset(ctx context.Context, to, link string) error {
	body := fmt.Sprintf(`<p>Click <a href="%s">here</a> to reset your password.</p>`, link)
	err := g.send(ctx, to, "Password Reset Request - Gadget Ghar", body)
	g.count("password_reset", err)
	return err
}

type sendEmailRequest struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func (g *Gateway) send(ctx context.Context, to, subject, html string) error {
	if !g.Configured() {
		g.log.Warn().Str("to", to).Str("subject", subject).Msg("mail gateway not configured, skipping send")
		return nil
	}

	payload, err := json.Marshal(sendEmailRequest{
		Sender:      map[string]string{"email": g.fromEmail, "name": g.fromName},
		To:          []map[string]string{{"email": to}},
		Subject:     subject,
		HTMLContent: html,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mail provider responded %d", resp.StatusCode)
	}
	return nil
}

func (g *Gateway) count(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.EmailsSentTotal.WithLabelValues(kind, result).Inc()
}
