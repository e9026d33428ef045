// Package handler exposes the challenge engine over JSON HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	switch challenge.Kind(err) {
	case challenge.KindNotFound:
		return http.StatusNotFound
	case challenge.KindInvalidState, challenge.KindConflict:
		return http.StatusConflict
	case challenge.KindEligibility, challenge.KindInvalid:
		return http.StatusBadRequest
	case challenge.KindExternal:
		return http.StatusBadGateway
	case challenge.KindDegenerate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the status for err. Unclassified errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
	case http.StatusBadGateway:
		logger.WarnContext(r.Context(), "bank call failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error(), "kind": challenge.Kind(err).String()})
	default:
		writeJSON(w, status, map[string]string{"error": err.Error(), "kind": challenge.Kind(err).String()})
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// parseStatus reads the optional ?status= filter.
func parseStatus(r *http.Request) (model.ChallengeStatus, bool) {
	s := r.URL.Query().Get("status")
	if s == "" {
		return "", false
	}
	return model.ChallengeStatus(s), true
}

// Date is a calendar date on the wire ("2006-01-02").
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}
