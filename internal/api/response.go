package api

import (
	"encoding/json"
	"net/http"

	"github.com/jaam8/poll_profiles/internal/models"
	"go.uber.org/zap"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

var statusByKind = map[string]int{
	"PasswordMismatch": http.StatusBadRequest,
	"MissingEmail":     http.StatusBadRequest,
	"InvalidEmail":     http.StatusBadRequest,
	"WeakPassword":     http.StatusBadRequest,
	"InvalidChoice":    http.StatusBadRequest,
	"WrongPassword":    http.StatusUnauthorized,
	"Unauthenticated":  http.StatusUnauthorized,
	"SignUpDisabled":   http.StatusForbidden,
	"SignInDisabled":   http.StatusForbidden,
	"NotFound":         http.StatusNotFound,
	"EmailInUse":       http.StatusConflict,
	"CreateConflict":   http.StatusConflict,
	"UpdateConflict":   http.StatusConflict,
	"FollowConflict":   http.StatusConflict,
	"UnfollowConflict": http.StatusConflict,
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
		h.l.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.l.Debug("request rejected", zap.String("path", r.URL.Path), zap.String("code", kind), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: kind, Error: models.Reason(err)})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "BadRequest", Error: message})
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
