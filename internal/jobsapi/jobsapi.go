// Package jobsapi is the Dapr Jobs API sidecar client the reminder engine
// uses to schedule and cancel one-time due-date callbacks.
//
// Reference: https://docs.dapr.io/reference/api/jobs_api/
package jobsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/backoff"
	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

// retryAttempts bounds retries for transient failures talking to the local
// sidecar (connection refused while it's restarting, etc). This is a
// different concern from the event bus façade's deliberate no-retry stance:
// scheduling a job is a direct request/response call to a process on the
// same host, not a publish into a broker with its own delivery guarantees.
const retryAttempts = 3

// jobPayload is the Dapr Jobs API schedule request body.
type jobPayload struct {
	Data    json.RawMessage `json:"data"`
	DueTime string          `json:"dueTime"`
	Repeats int             `json:"repeats"`
	TTL     string          `json:"ttl"`
}

// Client talks to a Dapr daprd sidecar's Jobs API HTTP surface.
type Client struct {
	cfg        config.JobsConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Client from the reminder engine's jobs configuration.
func New(cfg config.JobsConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.With("component", "jobsapi"),
	}
}

// IsAvailable checks the sidecar's health endpoint.
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SidecarURL+"/v1.0/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Info("jobs sidecar not available", "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ScheduleJob schedules a one-time job named jobName to fire at dueTime,
// carrying data as the callback payload. The job expires an hour after it
// fires if somehow never cleaned up.
func (c *Client) ScheduleJob(ctx context.Context, jobName string, dueTime time.Time, data any) error {
	if !c.IsAvailable(ctx) {
		return fmt.Errorf("jobsapi: sidecar unavailable, cannot schedule job %q", jobName)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("jobsapi: marshal job data: %w", err)
	}

	payload := jobPayload{
		Data:    raw,
		DueTime: dueTime.UTC().Format(time.RFC3339),
		Repeats: 0,
		TTL:     "1h",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("jobsapi: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1.0-alpha1/jobs/%s", c.cfg.SidecarURL, jobName)

	status, err := backoff.RetryFunc(ctx, retryAttempts, func(attempt int) (int, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return 0, fmt.Errorf("jobsapi: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("schedule job attempt failed", "job_name", jobName, "attempt", attempt, "error", err)
			return 0, err
		}
		defer resp.Body.Close()
		return resp.StatusCode, nil
	})
	if err != nil {
		return fmt.Errorf("jobsapi: schedule job %q: %w", jobName, err)
	}

	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		c.logger.Info("scheduled job", "job_name", jobName, "due_time", payload.DueTime)
		return nil
	default:
		return fmt.Errorf("jobsapi: schedule job %q: sidecar returned status %d", jobName, status)
	}
}

// CancelJob cancels a previously scheduled job. A 404 from the sidecar means
// the job no longer exists (already fired or never existed) and is reported
// as found=false with a nil error rather than a failure.
func (c *Client) CancelJob(ctx context.Context, jobName string) (found bool, err error) {
	if !c.IsAvailable(ctx) {
		return false, fmt.Errorf("jobsapi: sidecar unavailable, cannot cancel job %q", jobName)
	}

	url := fmt.Sprintf("%s/v1.0-alpha1/jobs/%s", c.cfg.SidecarURL, jobName)

	status, err := backoff.RetryFunc(ctx, retryAttempts, func(attempt int) (int, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodDelete, url, nil)
		if err != nil {
			return 0, fmt.Errorf("jobsapi: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("cancel job attempt failed", "job_name", jobName, "attempt", attempt, "error", err)
			return 0, err
		}
		defer resp.Body.Close()
		return resp.StatusCode, nil
	})
	if err != nil {
		return false, fmt.Errorf("jobsapi: cancel job %q: %w", jobName, err)
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		c.logger.Info("cancelled job", "job_name", jobName)
		return true, nil
	case http.StatusNotFound:
		c.logger.Warn("job not found, may have already fired", "job_name", jobName)
		return false, nil
	default:
		return false, fmt.Errorf("jobsapi: cancel job %q: sidecar returned status %d", jobName, status)
	}
}
