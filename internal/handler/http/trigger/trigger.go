// Package trigger implements the pipeline's single invocation entry point
// (spec §6): optional bearer authentication, then one full orchestrator run.
package trigger

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"trendpulse/internal/handler/http/respond"
	"trendpulse/internal/orchestrator"
)

// Runner is the orchestrator capability this handler depends on.
type Runner interface {
	Run(ctx context.Context, schedule orchestrator.NextUpdater) (orchestrator.Summary, error)
}

// Handler serves the trigger endpoint. CronSecret empty disables auth.
type Handler struct {
	Runner     Runner
	Schedule   orchestrator.NextUpdater
	CronSecret string
	Logger     *slog.Logger
}

type successResponse struct {
	OK           bool   `json:"ok"`
	SnapshotID   string `json:"snapshotId"`
	KeywordCount int    `json:"keywordCount"`
	ReusedCount  int    `json:"reusedCount"`
	NewCount     int    `json:"newCount"`
	DurationMs   int64  `json:"durationMs"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// ServeHTTP runs the pipeline once.
// @Summary      Trigger a pipeline run
// @Description  Runs one full collect-extract-match-score-enrich-persist pass
// @Tags         pipeline
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} successResponse
// @Failure      401 {string} string "missing or invalid bearer token"
// @Failure      500 {object} errorResponse
// @Router       /trigger [post]
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !h.authorized(r) {
		respond.JSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Detail: "missing or invalid bearer token"})
		return
	}

	summary, err := h.Runner.Run(r.Context(), h.Schedule)
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		respond.JSON(w, http.StatusInternalServerError, errorResponse{Error: "pipeline run failed", Detail: err.Error()})
		return
	}

	respond.JSON(w, http.StatusOK, successResponse{
		OK:           true,
		SnapshotID:   summary.SnapshotID,
		KeywordCount: summary.KeywordCount,
		ReusedCount:  summary.ReusedCount,
		NewCount:     summary.NewCount,
		DurationMs:   summary.ElapsedMs,
	})
}

// authorized reports whether the request may trigger a run. When CronSecret
// is empty, authentication is disabled and every request is allowed.
func (h Handler) authorized(r *http.Request) bool {
	if h.CronSecret == "" {
		return true
	}
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	token := header[len(prefix):]
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.CronSecret)) == 1
}
