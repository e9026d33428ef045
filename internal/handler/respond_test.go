package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/logging"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{challenge.ErrChallengeNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", challenge.ErrMemberChallengeNotFound), http.StatusNotFound},
		{challenge.ErrChallengeAlreadyStarted, http.StatusConflict},
		{challenge.ErrAlreadyJoined, http.StatusConflict},
		{challenge.ErrMemberNotEligible, http.StatusBadRequest},
		{fmt.Errorf("transfer: %w: %w", challenge.ErrExternal, errors.New("timeout")), http.StatusBadGateway},
		{challenge.ErrDegenerateInput, http.StatusUnprocessableEntity},
		{challenge.ErrInvalidChallengeType, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorHidesUnknownErrors(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/challenges", nil)
	rec := httptest.NewRecorder()
	writeError(rec, req, logging.Discard(), errors.New("sqlite: disk I/O error"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal error" {
		t.Errorf("error = %q, want %q", body["error"], "internal error")
	}
}

func TestWriteErrorIncludesKind(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/challenges/x/members", nil)
	rec := httptest.NewRecorder()
	writeError(rec, req, logging.Discard(), challenge.ErrAlreadyJoined)

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["kind"] != "conflict" {
		t.Errorf("kind = %q, want conflict", body["kind"])
	}
}

func TestDateUnmarshal(t *testing.T) {
	var req struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}
	if err := json.Unmarshal([]byte(`{"start":"2024-08-13"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := time.Date(2024, 8, 13, 0, 0, 0, 0, time.UTC); !req.Start.Equal(want) {
		t.Errorf("start = %v, want %v", req.Start.Time, want)
	}
	if req.End.ptr() != nil {
		t.Error("missing end should stay nil")
	}

	if err := json.Unmarshal([]byte(`{"start":"13/08/2024"}`), &req); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
