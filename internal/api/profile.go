package api

import (
	"net/http"

	"github.com/temporal-nexus/nexus-api/internal/model"
)

type profilePayload struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	IsGuest     bool           `json:"is_guest"`
	ProfileData map[string]any `json:"profile_data"`
}

// handleUpsertProfile creates or replaces a profile. Callers supply the
// id so guest profiles minted client-side survive signup.
func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var p profilePayload
	if !decodeBody(w, r, &p) {
		return
	}
	if p.ID == "" || p.Name == "" {
		respondError(w, http.StatusBadRequest, "missing id or name")
		return
	}

	profile, err := s.store.UpsertProfile(r.Context(), model.UserProfile{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		IsGuest:     p.IsGuest,
		ProfileData: p.ProfileData,
	})
	if err != nil {
		respondStoreError(w, "upsert profile failed", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing id")
		return
	}

	profile, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		respondStoreError(w, "get profile failed", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

type profileUpdatePayload struct {
	ID          string         `json:"id"`
	Name        *string        `json:"name"`
	Email       *string        `json:"email"`
	IsGuest     *bool          `json:"is_guest"`
	ProfileData map[string]any `json:"profile_data"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p profileUpdatePayload
	if !decodeBody(w, r, &p) {
		return
	}
	if p.ID == "" {
		respondError(w, http.StatusBadRequest, "missing id")
		return
	}

	profile, err := s.store.UpdateProfile(r.Context(), p.ID, model.ProfileUpdate{
		Name:        p.Name,
		Email:       p.Email,
		IsGuest:     p.IsGuest,
		ProfileData: p.ProfileData,
	})
	if err != nil {
		respondStoreError(w, "update profile failed", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
