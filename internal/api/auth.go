package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/temporal-nexus/nexus-api/internal/auth"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var c credentialsPayload
	if !decodeBody(w, r, &c) {
		return
	}
	if c.Email == "" || c.Password == "" {
		respondError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	account, token, err := s.auth.Signup(r.Context(), c.Email, c.Password, c.Name)
	if errors.Is(err, auth.ErrEmailTaken) {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		zap.L().Error("signup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"userId": account.ID, "token": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentialsPayload
	if !decodeBody(w, r, &c) {
		return
	}
	if c.Email == "" || c.Password == "" {
		respondError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	account, token, err := s.auth.Login(r.Context(), c.Email, c.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		zap.L().Error("login failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"userId": account.ID, "token": token})
}
