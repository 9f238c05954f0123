package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/server/config"
	"github.com/dmitrijs2005/walletauth/internal/server/rola"
	"github.com/dmitrijs2005/walletauth/internal/server/services"
)

const maxBodyBytes = 64 << 10

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

type invalidResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type directResponse struct {
	Valid    bool   `json:"valid"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type typedResponse struct {
	Valid                bool   `json:"valid"`
	Type                 string `json:"type"`
	Username             string `json:"username,omitempty"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *HTTPServer) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	token, err := s.auth.CreateChallenge(r.Context())
	if err != nil {
		status, _ := statusFor(err)
		writeJSON(w, status, invalidResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse{Challenge: token})
}

func (s *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	var b rola.Bundle
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&b); err != nil {
		if errors.Is(err, common.ErrMalformedBundle) {
			s.logger.Info(r.Context(), "bundle rejected", "reason", err)
			writeJSON(w, http.StatusOK, invalidResponse{Valid: false})
			return
		}
		s.logger.Info(r.Context(), "bad request body", "error", err)
		writeJSON(w, http.StatusBadRequest, invalidResponse{Valid: false})
		return
	}

	out, err := s.auth.Verify(r.Context(), &b, r.Header.Get("Accept-Language"))
	if err != nil {
		status, msg := statusFor(err)
		writeJSON(w, status, invalidResponse{Valid: false, Error: msg})
		return
	}

	if s.variant == config.VariantTyped {
		resp := typedResponse{Valid: true, Type: string(out.Flow), Email: out.Email, Password: out.Password}
		if out.Flow == services.FlowSignUp {
			resp.Username = out.Username
			resp.PasswordConfirmation = out.Password
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, directResponse{Valid: true, Email: out.Email, Password: out.Password})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Health(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// statusFor maps a service error to an HTTP status and a fixed public
// message. Internal error text never reaches the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrMalformedBundle),
		errors.Is(err, common.ErrChallengeInvalid),
		errors.Is(err, common.ErrSignatureInvalid):
		return http.StatusOK, ""
	case errors.Is(err, common.ErrAccountCreationFailed):
		return http.StatusUnauthorized, "Failed to create account"
	case errors.Is(err, common.ErrRecordWriteFailed):
		return http.StatusUnauthorized, "Failed to store identity record"
	case errors.Is(err, common.ErrRecordMissingOnSignIn):
		return http.StatusUnauthorized, "No identity record found"
	case errors.Is(err, common.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ""
	default:
		return http.StatusInternalServerError, ""
	}
}
