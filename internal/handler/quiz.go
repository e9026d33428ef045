package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/websocket"
	"github.com/google/uuid"
)

type QuizHandler struct {
	quizzes *challenge.Quizzes
	now     challenge.Clock
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewQuizHandler(q *challenge.Quizzes, now challenge.Clock, hub *websocket.Hub, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{quizzes: q, now: now, hub: hub, logger: logger}
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		Answer   bool   `json:"answer"`
	}
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	q, err := h.quizzes.Create(r.Context(), req.Question, req.Answer)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *QuizHandler) Random(w http.ResponseWriter, r *http.Request) {
	q, err := h.quizzes.Random(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type solveRequest struct {
	MemberID uuid.UUID `json:"member_id"`
	Answer   bool      `json:"answer"`
}

func (h *QuizHandler) Solve(w http.ResponseWriter, r *http.Request) {
	quizID, err := parseIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid quiz id")
		return
	}
	var req solveRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MemberID == uuid.Nil {
		writeMessage(w, http.StatusBadRequest, "member_id is required")
		return
	}

	res, err := h.quizzes.Solve(r.Context(), req.MemberID, quizID, req.Answer)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if h.hub != nil && len(res.Credited) > 0 {
		h.hub.Broadcast(websocket.NewMessage("score", "credited", uuid.Nil, req.MemberID.String(), map[string]any{
			"label":                challenge.QuizScoreLabel,
			"member_challenge_ids": res.Credited,
		}))
	}
	writeJSON(w, http.StatusOK, res)
}

// Status reports whether the member already answered today.
func (h *QuizHandler) Status(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseUUIDParam(r, "member_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid member id")
		return
	}
	solved, err := h.quizzes.SolvedToday(r.Context(), memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"solved_today": solved})
}

// MonthlyStats takes ?year= and ?month=, defaulting to the current month.
func (h *QuizHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseUUIDParam(r, "member_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid member id")
		return
	}

	now := h.now()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid year")
			return
		}
	}
	if v := r.URL.Query().Get("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid month")
			return
		}
	}

	stats, err := h.quizzes.MonthlyStats(r.Context(), memberID, year, time.Month(month))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
