package handler

import (
	"log/slog"
	"net/http"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
)

type MemberHandler struct {
	svc    *challenge.Service
	logger *slog.Logger
}

func NewMemberHandler(svc *challenge.Service, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type memberRequest struct {
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	ChallengeAccountNo *string `json:"challenge_account_no"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	m, err := h.svc.RegisterMember(r.Context(), req.Name, req.Email, req.ChallengeAccountNo)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "member_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid member id")
		return
	}
	m, err := h.svc.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) AssignAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "member_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid member id")
		return
	}
	var req struct {
		AccountNo string `json:"account_no"`
	}
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	m, err := h.svc.AssignChallengeAccount(r.Context(), id, req.AccountNo)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
