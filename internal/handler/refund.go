package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
)

const defaultRefundLimit = 100

type RefundHandler struct {
	refunds *challenge.Refunds
	logger  *slog.Logger
}

func NewRefundHandler(r *challenge.Refunds, logger *slog.Logger) *RefundHandler {
	return &RefundHandler{refunds: r, logger: logger}
}

func limitParam(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultRefundLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Pending lists refunds still waiting for a successful transfer.
func (h *RefundHandler) Pending(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid limit")
		return
	}
	pending, err := h.refunds.Pending(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *RefundHandler) Retry(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid limit")
		return
	}
	done, failed, err := h.refunds.RetryPending(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"done": done, "failed": failed})
}
