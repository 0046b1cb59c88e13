package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/models"
)

// --- JWT helpers ---

// signJWT creates a signed HMAC-SHA256 JWT for the given user.
func signJWT(user *models.InternalUser, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.UserID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"iss":   "fintra-server",
		"iat":   now.Unix(),
		"exp":   now.Add(config.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// validateJWT parses and validates a JWT token string using the given secret.
func validateJWT(tokenString string, secret []byte) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return token, claims, nil
}

// hashPassword bcrypt-hashes a password, truncated to bcrypt's 72-byte limit.
func hashPassword(password string) (string, error) {
	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(passwordBytes, 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes) == nil
}

// validateEmail performs a light sanity check on a registration email.
func validateEmail(email string) string {
	if email == "" {
		return "email is required"
	}
	if len(email) > 254 || !strings.Contains(email, "@") {
		return "email is invalid"
	}
	for _, c := range email {
		if c < 0x21 || c == 0x7f {
			return "email contains invalid characters"
		}
	}
	return ""
}

// userResponse builds a safe response from an InternalUser.
func userResponse(user *models.InternalUser) map[string]interface{} {
	return map[string]interface{}{
		"user_id":    user.UserID,
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	}
}

// handleUserRegister handles POST /api/users — register a new user.
func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if errMsg := validateEmail(req.Email); errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx := r.Context()
	store := s.app.Storage.InternalStore()

	if _, err := store.GetUserByEmail(ctx, req.Email); err == nil {
		WriteError(w, http.StatusConflict, "a user with this email already exists")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := &models.InternalUser{
		UserID:       uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := store.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save user")
		WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign JWT for registration")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  userResponse(user),
	})
}

// handleAuthLogin handles POST /api/auth/login — authenticate a user.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	store := s.app.Storage.InternalStore()

	user, err := store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !checkPassword(user.PasswordHash, req.Password) {
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign JWT for login")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  userResponse(user),
	})
}

// handleAuthValidate handles GET /api/auth/validate — check a bearer token.
func (s *Server) handleAuthValidate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	// The bearer middleware already rejected invalid tokens; if a user
	// context is present, the token is good.
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	user, err := s.app.Storage.InternalStore().GetUser(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "user not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"user":   userResponse(user),
	})
}
