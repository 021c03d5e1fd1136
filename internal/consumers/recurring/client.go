package recurring

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

// retryAttempts bounds retries for transient failures calling the REST API
// (a sibling process, not a broker) -- mirrors the Jobs API client's stance.
const retryAttempts = 3

// createTaskRequest is the REST write API's POST /api/tasks body.
type createTaskRequest struct {
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	Priority          string  `json:"priority,omitempty"`
	DueDate           *string `json:"due_date,omitempty"`
	TagIDs            []int64 `json:"tag_ids,omitempty"`
	RecurrencePattern string  `json:"recurrence_pattern,omitempty"`
	RecurrenceEvery   int     `json:"recurrence_every,omitempty"`
	NextOccurrence    *string `json:"next_occurrence,omitempty"`
}

// createTaskResult is the subset of the REST write API's response this
// client cares about.
type createTaskResult struct {
	status int
	taskID int64
}

// TaskAPIClient creates tasks through the REST write surface rather than
// touching storage directly, so a materialized occurrence goes through the
// same validation and event emission a human-issued POST /api/tasks would.
type TaskAPIClient struct {
	cfg        config.RestAPIConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTaskAPIClient builds a TaskAPIClient from its REST API configuration.
func NewTaskAPIClient(cfg config.RestAPIConfig, logger *slog.Logger) *TaskAPIClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskAPIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.With("component", "recurring-consumer-client"),
	}
}

// CreateTask issues an authenticated POST /api/tasks call on behalf of
// ownerID and returns the newly created task's id.
func (c *TaskAPIClient) CreateTask(ctx context.Context, ownerID string, req createTaskRequest) (int64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("recurring-consumer: marshal create-task request: %w", err)
	}

	url := c.cfg.BaseURL + "/api/tasks"

	result, err := backoff.RetryFunc(ctx, retryAttempts, func(attempt int) (createTaskResult, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return createTaskResult{}, fmt.Errorf("recurring-consumer: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.ServiceToken)
		httpReq.Header.Set("X-Acting-User", ownerID)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("create-task attempt failed", "attempt", attempt, "error", err)
			return createTaskResult{}, err
		}
		defer resp.Body.Close()

		var decoded struct {
			ID int64 `json:"id"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
		return createTaskResult{status: resp.StatusCode, taskID: decoded.ID}, nil
	})
	if err != nil {
		return 0, fmt.Errorf("recurring-consumer: create task: %w", err)
	}

	if result.status != http.StatusOK && result.status != http.StatusCreated {
		return 0, fmt.Errorf("recurring-consumer: REST API returned status %d", result.status)
	}
	return result.taskID, nil
}

func formatTime(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339)
	return &s
}
