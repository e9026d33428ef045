package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/websocket"
	"github.com/google/uuid"
)

type ScoreHandler struct {
	scoring *challenge.Scoring
	ranking *challenge.Ranking
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewScoreHandler(s *challenge.Scoring, rk *challenge.Ranking, hub *websocket.Hub, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scoring: s, ranking: rk, hub: hub, logger: logger}
}

// dailyParams reads the membership id and date path values.
func dailyParams(r *http.Request) (int64, time.Time, bool) {
	mcID, err := parseIDParam(r, "id")
	if err != nil {
		return 0, time.Time{}, false
	}
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		return 0, time.Time{}, false
	}
	return mcID, date, true
}

// GetOrCreateDaily returns the membership's score for a date, creating it
// with the daily participation bonus on first access.
func (h *ScoreHandler) GetOrCreateDaily(w http.ResponseWriter, r *http.Request) {
	mcID, date, ok := dailyParams(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid membership id or date")
		return
	}
	ds, err := h.scoring.GetOrCreateDailyScore(r.Context(), mcID, date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type scoreDetailRequest struct {
	Description string `json:"description"`
	Score       int    `json:"score"`
}

func (h *ScoreHandler) UpdateDaily(w http.ResponseWriter, r *http.Request) {
	mcID, date, ok := dailyParams(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid membership id or date")
		return
	}
	var req scoreDetailRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ds, applied, err := h.scoring.UpdateDailyScore(r.Context(), mcID, date, req.Description, req.Score)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "daily_score": ds})
}

func (h *ScoreHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	id, memberID, ok := challengeMemberParams(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid challenge or member id")
		return
	}
	b, err := h.scoring.ScoreBreakdown(r.Context(), id, memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *ScoreHandler) ChallengeRank(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	rank, err := h.ranking.ChallengeRank(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}

func (h *ScoreHandler) MemberRank(w http.ResponseWriter, r *http.Request) {
	id, memberID, ok := challengeMemberParams(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid challenge or member id")
		return
	}
	rank, err := h.ranking.MemberRank(r.Context(), id, memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}

func (h *ScoreHandler) EstimatedReward(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	est, err := h.ranking.EstimatedReward(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// Sweep runs the fever-time sweep for the challenge type in the path. The
// transfer type defaults to the one matching the challenge type and can be
// overridden with ?transfer_type=.
func (h *ScoreHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	ctype := model.ChallengeType(strings.ToUpper(r.PathValue("type")))
	transferType := bank.TransferType(strings.ToUpper(r.URL.Query().Get("transfer_type")))

	res, err := h.scoring.RewardNonConsumptionDuringFeverTime(r.Context(), ctype, transferType)
	if res != nil && h.hub != nil {
		h.hub.PublishSweep(res)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("sweep triggered", "challenge_type", ctype, "credits", len(res.Credits))
	writeJSON(w, http.StatusOK, res)
}

func challengeMemberParams(r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	memberID, err := parseUUIDParam(r, "member_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return id, memberID, true
}
