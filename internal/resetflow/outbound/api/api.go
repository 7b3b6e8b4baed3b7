// Package api is the HTTP gateway of the reset flow.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/resetflow"
)

const (
	pathForgotPassword = "/api/users/forgot-password"
	pathResetPassword  = "/api/users/reset-password"

	headerCorrelationID = "X-Correlation-ID"
	maxResponseBytes    = 1 << 20
)

var ErrNoMessage = errors.New("api: response has no message")

type Config struct {
	BaseURL string
	Timeout time.Duration
	UUID    uid.StringID
	// Transport defaults to http.DefaultTransport. It is wrapped with otelhttp.
	Transport http.RoundTripper
}

// API talks to the dinebook users endpoints. It never retries.
type API struct {
	base   string
	client *http.Client
	uuid   uid.StringID
}

func New(cfg Config) *API {
	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &API{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(rt)},
		uuid:   cfg.UUID,
	}
}

type forgotPasswordBody struct {
	Email string `json:"email"`
}

type messageBody struct {
	Message *string `json:"message"`
}

func (a *API) ForgotPassword(ctx context.Context, email string) (resetflow.Reply, error) {
	return a.post(ctx, pathForgotPassword, forgotPasswordBody{Email: email})
}

func (a *API) ResetPassword(ctx context.Context, req resetflow.ResetRequest) (resetflow.Reply, error) {
	return a.post(ctx, pathResetPassword, req)
}

func (a *API) correlationID(ctx context.Context) string {
	if cid := instrument.GetCorrelationID(ctx); cid != "" {
		return cid
	}
	if a.uuid != nil {
		return a.uuid.Generate()
	}
	return ""
}

func (a *API) post(ctx context.Context, path string, body any) (resetflow.Reply, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return resetflow.Reply{}, fmt.Errorf("api: encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+path, bytes.NewReader(payload))
	if err != nil {
		return resetflow.Reply{}, fmt.Errorf("api: build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	cid := a.correlationID(ctx)
	if cid != "" {
		req.Header.Set(headerCorrelationID, cid)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return resetflow.Reply{}, fmt.Errorf("api: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resetflow.Reply{}, fmt.Errorf("api: read %s: %w", path, err)
	}

	var mb messageBody
	if err := json.Unmarshal(raw, &mb); err != nil {
		return resetflow.Reply{}, fmt.Errorf("api: decode %s (status %d): %w", path, resp.StatusCode, err)
	}
	if mb.Message == nil {
		return resetflow.Reply{}, fmt.Errorf("%w: %s (status %d)", ErrNoMessage, path, resp.StatusCode)
	}

	slog.DebugContext(ctx, "api response", "path", path, "status", resp.StatusCode, "correlation_id", cid)
	return resetflow.Reply{Message: *mb.Message, StatusCode: resp.StatusCode}, nil
}
