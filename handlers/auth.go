package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/pwojcik/flashgen-api/auth"
	"github.com/pwojcik/flashgen-api/errs"
	"github.com/pwojcik/flashgen-api/store"
	"go.uber.org/zap"
)

// AuthHandler serves registration, login, logout and password reset.
type AuthHandler struct {
	Users  *store.UserStore
	Tokens *auth.Tokens
	Log    *zap.Logger
}

type userResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Register creates an account and opens a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}

	details := map[string]string{}
	if !validEmail(req.Email) {
		details["email"] = "Invalid email format"
	}
	if len(req.Password) < 6 {
		details["password"] = "Password must be at least 6 characters"
	}
	if req.Password != req.ConfirmPassword {
		details["confirmPassword"] = "Passwords don't match"
	}
	if len(details) > 0 {
		writeValidation(w, details)
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	hash := auth.HashPassword(req.Password, salt)

	user, err := h.Users.Create(r.Context(), req.Email, hash, salt)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			writeError(w, http.StatusBadRequest, "An account with this email already exists")
			return
		}
		writeServiceError(w, h.Log, err)
		return
	}

	token, err := h.Tokens.CreateSessionToken(user.ID, user.Email)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	h.Tokens.SetSessionCookie(w, token)

	h.Log.Info("user registered", zap.Uint("user_id", user.ID))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": userResponse{ID: user.ID, Email: user.Email},
	})
}

// Login verifies credentials and opens a session. Bad credentials return the
// same message whether the account exists or not.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}
	if !validEmail(req.Email) {
		writeValidation(w, map[string]string{"email": "Invalid email format"})
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid email or password")
			return
		}
		writeServiceError(w, h.Log, err)
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordSalt, user.PasswordHash) {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	token, err := h.Tokens.CreateSessionToken(user.ID, user.Email)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	h.Tokens.SetSessionCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": userResponse{ID: user.ID, Email: user.Email},
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Tokens.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// PasswordRecovery mints a reset token for the account. The response is 200
// whether or not the account exists, so the endpoint cannot be used to probe
// for registered emails.
func (h *AuthHandler) PasswordRecovery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}
	if !validEmail(req.Email) {
		writeValidation(w, map[string]string{"email": "Invalid email format"})
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), req.Email)
	if err == nil {
		token, tokenErr := h.Tokens.CreateResetToken(user.ID, user.Email)
		if tokenErr != nil {
			h.Log.Error("failed to mint reset token", zap.Error(tokenErr))
		} else {
			// Mail delivery is out of scope; the token is handed to the
			// dispatch log the way the hosted provider would email it.
			h.Log.Info("password reset requested",
				zap.Uint("user_id", user.ID),
				zap.String("reset_token", token))
		}
	} else if !errors.Is(err, errs.ErrNotFound) {
		h.Log.Error("password recovery lookup failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent successfully"})
}

// PasswordReset sets a new password for the holder of a valid reset token.
func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "Missing or invalid authorization token")
		return
	}
	claims, err := h.Tokens.VerifyResetToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired reset token")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}
	if len(req.Password) < 8 {
		writeValidation(w, map[string]string{"password": "Password must be at least 8 characters"})
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	hash := auth.HashPassword(req.Password, salt)

	if err := h.Users.UpdatePassword(r.Context(), claims.UserID, hash, salt); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired reset token")
			return
		}
		writeServiceError(w, h.Log, err)
		return
	}

	h.Log.Info("password reset completed", zap.Uint("user_id", claims.UserID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}
