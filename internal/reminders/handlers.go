package reminders

import (
	"encoding/json"
	"net/http"
)

// jobCallbackRequest mirrors the Dapr Jobs API's trigger payload shape:
// {"data": {"reminder_id": ..., "task_id": ..., "user_id": ...}}.
type jobCallbackRequest struct {
	Data struct {
		ReminderID int64  `json:"reminder_id"`
		TaskID     int64  `json:"task_id"`
		UserID     string `json:"user_id"`
	} `json:"data"`
}

type jobCallbackResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	ReminderID int64  `json:"reminder_id,omitempty"`
}

// CallbackHandler implements POST /dapr/jobs/reminder, the route the Jobs
// API sidecar calls when a scheduled reminder job fires.
func (e *Engine) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jobCallbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeCallbackResponse(w, http.StatusBadRequest, jobCallbackResponse{
				Status: "error", Message: "invalid job data",
			})
			return
		}

		if req.Data.ReminderID == 0 || req.Data.TaskID == 0 || req.Data.UserID == "" {
			writeCallbackResponse(w, http.StatusBadRequest, jobCallbackResponse{
				Status: "error", Message: "invalid job data",
			})
			return
		}

		if err := e.HandleCallback(r.Context(), req.Data.ReminderID); err != nil {
			e.logger.Error("reminder callback failed", "reminder_id", req.Data.ReminderID, "error", err)
			writeCallbackResponse(w, http.StatusOK, jobCallbackResponse{
				Status: "failed", ReminderID: req.Data.ReminderID, Message: err.Error(),
			})
			return
		}

		writeCallbackResponse(w, http.StatusOK, jobCallbackResponse{
			Status: "success", ReminderID: req.Data.ReminderID,
		})
	}
}

func writeCallbackResponse(w http.ResponseWriter, status int, body jobCallbackResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
