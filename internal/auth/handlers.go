package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"washwise/internal/api"
	"washwise/internal/plan"
	"washwise/internal/user"
)

const resetTokenTTL = time.Hour

// Mailer sends a single email. The notify package provides the real one.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Handlers struct {
	Users  *user.Repository
	Tokens *TokenManager
	Mail   Mailer
	Log    *zap.Logger
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "username is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "password must be at least 8 characters")
		return
	}
	if req.Role != api.RoleCustomer && req.Role != api.RoleServiceman {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "role must be customer or serviceman")
		return
	}

	if _, err := h.Users.FindByUsername(r.Context(), req.Username); err == nil {
		api.WriteError(w, http.StatusConflict, "USERNAME_TAKEN", "username is already taken")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if _, err := h.Users.FindByEmail(r.Context(), req.Email); err == nil {
		api.WriteError(w, http.StatusConflict, "EMAIL_TAKEN", "an account with this email already exists")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Plan:         plan.PlanNone,
	}
	if err := h.Users.Create(r.Context(), u); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusCreated, u)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	UserID      string `json:"user_id"`
}

func (h Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	u, err := h.Users.FindByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
		return
	}

	token, err := h.Tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, LoginResponse{AccessToken: token, Role: u.Role, UserID: u.ID})
}

type ResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset always answers 202 so the endpoint cannot be used to
// probe which emails have accounts.
func (h Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	u, err := h.Users.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err == nil {
		token := randomHex(32)
		if err := h.Users.SetResetToken(r.Context(), u.ID, token, time.Now().Add(resetTokenTTL)); err == nil {
			h.sendResetEmail(u.Email, u.Username, token)
		} else {
			h.Log.Error("store reset token", zap.Error(err))
		}
	}

	api.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "if the email exists, a reset link has been sent"})
}

type PasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if len(req.NewPassword) < 8 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "password must be at least 8 characters")
		return
	}

	u, err := h.Users.ConsumeResetToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusBadRequest, "RESET_TOKEN_INVALID", "reset token is invalid or expired")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if err := h.Users.UpdatePassword(r.Context(), u.ID, string(hash)); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h Handlers) sendResetEmail(to, username, token string) {
	if h.Mail == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		subject := "WashWise password reset"
		body := fmt.Sprintf("Hi %s,<br>Your password reset code is: <b>%s</b><br>It expires in one hour.", username, token)
		if err := h.Mail.Send(ctx, to, subject, body); err != nil {
			h.Log.Error("send reset email", zap.Error(err))
		}
	}()
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
