package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/websocket"
	"github.com/google/uuid"
)

type MembershipHandler struct {
	membership *challenge.Membership
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewMembershipHandler(m *challenge.Membership, hub *websocket.Hub, logger *slog.Logger) *MembershipHandler {
	return &MembershipHandler{membership: m, hub: hub, logger: logger}
}

func (h *MembershipHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type joinRequest struct {
	MemberID uuid.UUID `json:"member_id"`
	Deposit  int64     `json:"deposit"`
}

func (h *MembershipHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req joinRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MemberID == uuid.Nil {
		writeMessage(w, http.StatusBadRequest, "member_id is required")
		return
	}

	mc, err := h.membership.Join(r.Context(), id, req.MemberID, req.Deposit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage("membership", "joined", id, req.MemberID.String(), map[string]any{
		"member_challenge_id": mc.ID,
		"deposit":             mc.Deposit,
	}))
	writeJSON(w, http.StatusCreated, mc)
}

func (h *MembershipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.leave(w, r, "cancelled", h.membership.Cancel)
}

func (h *MembershipHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.leave(w, r, "withdrawn", h.membership.Withdraw)
}

// leave runs cancel or withdraw. The membership is gone once a refund is
// returned; a failed transfer only means the refund is still queued, which
// is reported as 202.
func (h *MembershipHandler) leave(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, challengeID, memberID uuid.UUID) (*model.RefundTransfer, error)) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	memberID, err := parseUUIDParam(r, "member_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid member id")
		return
	}

	rt, err := fn(r.Context(), id, memberID)
	if err != nil && rt == nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage("membership", action, id, memberID.String(), map[string]any{
		"member_challenge_id": rt.MemberChallengeID,
		"refund":              rt.Amount,
	}))

	if err != nil {
		h.logger.Warn("refund queued for retry", "refund_id", rt.ID, "member_challenge_id", rt.MemberChallengeID, "error", err)
		writeJSON(w, http.StatusAccepted, map[string]any{"refund": rt, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refund": rt})
}
