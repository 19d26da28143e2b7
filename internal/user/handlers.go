package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"washwise/internal/api"
	"washwise/internal/plan"
)

// planDuration is how long a paid subscription runs from the moment it is set.
const planDuration = 365 * 24 * time.Hour

type Handlers struct {
	Users *Repository
}

func (h Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	u, err := h.Users.GetByID(r.Context(), id.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, u)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if users == nil {
		users = []User{}
	}
	api.WriteJSON(w, http.StatusOK, users)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	targetID := chi.URLParam(r, "id")
	if targetID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	if id != nil && id.ID == targetID {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "cannot delete yourself")
		return
	}

	if err := h.Users.Delete(r.Context(), targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SubscribeRequest struct {
	Plan string `json:"plan"`
}

// Subscribe sets another user's membership plan (serviceman only).
func (h Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	if targetID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	h.subscribe(w, r, targetID)
}

// SelfSubscribe lets a customer change their own plan.
func (h Handlers) SelfSubscribe(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	h.subscribe(w, r, id.ID)
}

func (h Handlers) subscribe(w http.ResponseWriter, r *http.Request, targetID string) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	p, err := plan.ParsePlan(req.Plan)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid plan")
		return
	}

	var expiresAt *time.Time
	if p != plan.PlanNone {
		t := time.Now().Add(planDuration)
		expiresAt = &t
	}

	u, err := h.Users.Subscribe(r.Context(), targetID, string(p), expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, u)
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if len(req.NewPassword) < 8 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "new password must be at least 8 characters")
		return
	}

	u, err := h.Users.GetByID(r.Context(), id.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		api.WriteError(w, http.StatusBadRequest, "PASSWORD_INCORRECT", "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if err := h.Users.UpdatePassword(r.Context(), id.ID, string(hash)); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
