package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/metrics"
)

const maxResponseBody = 4 << 10

var messageIDPaths = [][]string{
	{"messageId"},
	{"message_id"},
	{"zaapId"},
	{"key", "id"},
	{"id"},
}

type Config struct {
	Provider string
	BaseURL  string
	Token    string
	Timeout  time.Duration
}

func (c Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: url is empty", domain.ErrGatewayNotConfigured)
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("%w: token is empty", domain.ErrGatewayNotConfigured)
	}
	return nil
}

// IsInconclusive reports whether a status says nothing about the request
// shape being right, only that the route does not exist.
func IsInconclusive(status int) bool {
	return status == http.StatusNotFound || status == http.StatusMethodNotAllowed
}

func isSuccess(status int) bool {
	return status >= 200 && status < 400
}

// transport performs single gateway requests. It never returns an error:
// every outcome is recorded on the dispatch.
type transport struct {
	cfg        Config
	httpClient *http.Client
}

func newTransport(cfg Config) transport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return transport{
		cfg:        cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (t transport) url(path string) string {
	return strings.TrimRight(t.cfg.BaseURL, "/") + path
}

// attempt sends one candidate and fills status, body and variant on d.
// A transport failure is reported through the returned error.
func (t transport) attempt(ctx context.Context, c Candidate, d *domain.Dispatch) error {
	log := logging.FromContext(ctx)

	payload, err := json.Marshal(map[string]string{
		c.Body.Phone:   d.Phone,
		c.Body.Message: d.Message,
	})
	if err != nil {
		return fmt.Errorf("attempt: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url(c.Path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("attempt: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.Auth.Header, c.Auth.value(t.cfg.Token))

	d.Attempts++
	d.Variant = &domain.Variant{
		Path:         c.Path,
		AuthHeader:   c.Auth.Header,
		PhoneField:   c.Body.Phone,
		MessageField: c.Body.Message,
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	elapsed := time.Since(start)
	metrics.GatewayRequestDuration.WithLabelValues(t.cfg.Provider).Observe(elapsed.Seconds())
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(t.cfg.Provider, "error").Inc()
		log.Warn("gateway request failed",
			"provider", t.cfg.Provider,
			"path", c.Path,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	d.Status = resp.StatusCode
	body, readErr := readBody(resp.Body)
	d.Body = body
	d.BodyError = ""
	if readErr != nil {
		d.BodyError = readErr.Error()
		log.Debug("gateway response body incomplete",
			"provider", t.cfg.Provider,
			"path", c.Path,
			"error", readErr,
		)
	}
	d.MessageID = messageID(d.Body)

	metrics.GatewayRequestsTotal.WithLabelValues(t.cfg.Provider, outcome(resp.StatusCode)).Inc()
	log.Info("gateway response received",
		"provider", t.cfg.Provider,
		"path", c.Path,
		"auth_header", c.Auth.Header,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

func outcome(status int) string {
	switch {
	case isSuccess(status):
		return "success"
	case IsInconclusive(status):
		return "inconclusive"
	default:
		return "rejected"
	}
}

// readBody keeps JSON responses as-is and stores anything else as a
// JSON string. Whatever arrived before a read error is still returned.
func readBody(r io.Reader) (json.RawMessage, error) {
	raw, readErr := io.ReadAll(io.LimitReader(r, maxResponseBody))
	if readErr != nil {
		readErr = fmt.Errorf("readBody: %w", readErr)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, readErr
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed), readErr
	}
	encoded, err := json.Marshal(string(raw))
	if err != nil {
		return nil, readErr
	}
	return encoded, readErr
}

// messageID finds the gateway's id for the sent message, if the response
// carries one under a known key.
func messageID(body json.RawMessage) string {
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	for _, path := range messageIDPaths {
		if id, err := jsonparser.GetString(body, path...); err == nil && id != "" {
			return id
		}
	}
	return ""
}

// settle derives OK and Error from the recorded status.
func settle(d *domain.Dispatch) {
	if isSuccess(d.Status) {
		d.OK = true
		d.Error = ""
		return
	}
	d.Fail(fmt.Errorf("%w: status %d", domain.ErrGatewayRejected, d.Status))
}
