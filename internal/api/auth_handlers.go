package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridianfc/meridian/internal/auth"
	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
)

// LoginRateLimiter throttles login attempts per IP/email pair: 5 attempts
// within a 5 minute window, then a 15 minute block.
type LoginRateLimiter struct {
	attempts map[string]*loginAttempt
	mu       sync.RWMutex
}

type loginAttempt struct {
	count     int
	firstTry  time.Time
	blockedAt *time.Time
}

// NewLoginRateLimiter creates a rate limiter with a background sweeper
func NewLoginRateLimiter() *LoginRateLimiter {
	rl := &LoginRateLimiter{
		attempts: make(map[string]*loginAttempt),
	}
	go rl.cleanup()
	return rl
}

// Allow checks if a login attempt is allowed
func (rl *LoginRateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	attempt, exists := rl.attempts[key]

	if !exists {
		rl.attempts[key] = &loginAttempt{count: 1, firstTry: now}
		return true, 4, 0
	}

	if attempt.blockedAt != nil {
		blockDuration := 15 * time.Minute
		if now.Sub(*attempt.blockedAt) < blockDuration {
			remaining := blockDuration - now.Sub(*attempt.blockedAt)
			return false, 0, remaining
		}
		attempt.count = 1
		attempt.firstTry = now
		attempt.blockedAt = nil
		return true, 4, 0
	}

	if now.Sub(attempt.firstTry) > 5*time.Minute {
		attempt.count = 1
		attempt.firstTry = now
		return true, 4, 0
	}

	attempt.count++
	if attempt.count > 5 {
		attempt.blockedAt = &now
		return false, 0, 15 * time.Minute
	}

	return true, 5 - attempt.count, 0
}

// Reset clears the attempts for a key after a successful login
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

func (rl *LoginRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, attempt := range rl.attempts {
			if now.Sub(attempt.firstTry) > 30*time.Minute {
				delete(rl.attempts, key)
			}
		}
		rl.mu.Unlock()
	}
}

var loginLimiter = NewLoginRateLimiter()

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse represents user data in responses (without password)
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	RoleID    *uuid.UUID `json:"role_id,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// Login authenticates a user and returns tokens
// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rateLimitKey := c.ClientIP() + ":" + req.Email
	allowed, remaining, retryAfter := loginLimiter.Allow(rateLimitKey)
	if !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"retry_after": retryAfter.Seconds(),
		})
		return
	}

	user, err := h.stores.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "attempts_remaining": remaining})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is disabled"})
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "attempts_remaining": remaining})
		return
	}

	loginLimiter.Reset(rateLimitKey)

	tokens, err := h.jwt.GenerateTokenPair(user.ID, user.Email, user.RoleID)
	if err != nil {
		h.respondError(c, errors.NewInternalError(err))
		return
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := h.stores.Users.Update(c.Request.Context(), user); err != nil {
		h.log.Warn().Err(err).Msg("failed to record last login")
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   toUserResponse(user),
		"tokens": tokens,
	})
}

// RefreshToken generates new tokens using a refresh token
// POST /auth/refresh
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	user, err := h.stores.Users.Get(c.Request.Context(), claims.UserID)
	if err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or disabled"})
		return
	}

	tokens, err := h.jwt.GenerateTokenPair(user.ID, user.Email, user.RoleID)
	if err != nil {
		h.respondError(c, errors.NewInternalError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// GetMe returns the current authenticated user with the effective
// permission set of its role
// GET /auth/me
func (h *Handler) GetMe(c *gin.Context) {
	userID := actorID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.stores.Users.Get(c.Request.Context(), *userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	permissions := []string{}
	if user.RoleID != nil {
		set, err := h.roles.Permissions(c.Request.Context(), *user.RoleID)
		if err == nil {
			permissions = set.Sorted()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        toUserResponse(user),
		"permissions": permissions,
	})
}

// ChangePassword changes the authenticated user's password
// POST /auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	userID := actorID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.stores.Users.Get(c.Request.Context(), *userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.respondError(c, errors.NewInternalError(err))
		return
	}

	user.PasswordHash = hash
	if err := h.stores.Users.Update(c.Request.Context(), user); err != nil {
		h.respondError(c, errors.NewInternalError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

// Logout ends the session. Tokens are stateless, so the client discards
// them; nothing is kept server-side.
// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if actorID(c) == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RoleID:    user.RoleID,
		IsActive:  user.IsActive,
	}
}
