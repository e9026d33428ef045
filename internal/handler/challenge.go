package handler

import (
	"log/slog"
	"net/http"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/websocket"
)

type ChallengeHandler struct {
	svc    *challenge.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewChallengeHandler(svc *challenge.Service, hub *websocket.Hub, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{svc: svc, hub: hub, logger: logger}
}

func (h *ChallengeHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *ChallengeHandler) withStatus(cs []model.Challenge) []model.ChallengeWithStatus {
	now := h.svc.Now()
	out := make([]model.ChallengeWithStatus, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.WithStatus(now))
	}
	return out
}

type createChallengeRequest struct {
	Type        model.ChallengeType `json:"type"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	StartDate   Date                `json:"start_date"`
	EndDate     Date                `json:"end_date"`
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		writeMessage(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}

	c, err := h.svc.Create(r.Context(), challenge.CreateInput{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.Time,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage("challenge", "created", c.ID, c.ID.String(), nil))
	writeJSON(w, http.StatusCreated, c.WithStatus(h.svc.Now()))
}

// List returns every challenge, optionally filtered by ?status=.
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		cs  []model.Challenge
		err error
	)
	if status, ok := parseStatus(r); ok {
		cs, err = h.svc.ListByStatus(r.Context(), status)
	} else {
		cs, err = h.svc.List(r.Context())
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.withStatus(cs))
}

func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c.WithStatus(h.svc.Now()))
}

type patchChallengeRequest struct {
	Type        *model.ChallengeType `json:"type"`
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Image       *string              `json:"image"`
	StartDate   *Date                `json:"start_date"`
	EndDate     *Date                `json:"end_date"`
}

func (h *ChallengeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req patchChallengeRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, err := h.svc.Update(r.Context(), id, challenge.Patch{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		StartDate:   req.StartDate.ptr(),
		EndDate:     req.EndDate.ptr(),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage("challenge", "updated", c.ID, c.ID.String(), nil))
	writeJSON(w, http.StatusOK, c.WithStatus(h.svc.Now()))
}

func (h *ChallengeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage("challenge", "deleted", id, id.String(), nil))
	w.WriteHeader(http.StatusNoContent)
}

// ListByMember returns the challenges a member has joined, optionally
// filtered by ?status=.
func (h *ChallengeHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseUUIDParam(r, "member_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid member id")
		return
	}
	var cs []model.Challenge
	if status, ok := parseStatus(r); ok {
		cs, err = h.svc.ListByMemberAndStatus(r.Context(), memberID, status)
	} else {
		cs, err = h.svc.ListByMember(r.Context(), memberID)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.withStatus(cs))
}

func (h *ChallengeHandler) Participants(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	mcs, err := h.svc.Participants(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mcs)
}

func (h *ChallengeHandler) MemberChallenge(w http.ResponseWriter, r *http.Request) {
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
	mc, err := h.svc.MemberChallenge(r.Context(), id, memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mc)
}
