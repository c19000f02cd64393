package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/task-service/internal/api/domain"
	"github.com/cuongbtq/task-service/internal/api/dto"
	"github.com/cuongbtq/task-service/internal/api/model"
	"github.com/cuongbtq/task-service/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if _, err := h.storage.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrUserExists.Error(),
		})
		return
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		h.logger.Error("Failed to check existing user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register user",
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register user",
		})
		return
	}

	now := time.Now()
	user := model.User{
		UserID:       uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.storage.CreateUser(c.Request.Context(), &user); err != nil {
		h.logger.Error("Failed to create user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register user",
		})
		return
	}

	h.logger.Info("User registered",
		slog.String("user_id", user.UserID),
		slog.String("username", user.Username),
	)

	c.JSON(http.StatusCreated, dto.RegisterResponse{
		UserID:   user.UserID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Token handles POST /api/v1/auth/token
// Exchanges email+password for an access/refresh token pair.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user, err := h.storage.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}
		h.logger.Error("Failed to load user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to issue token",
		})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid credentials",
		})
		return
	}

	access, refresh, err := h.tokens.IssuePair(user.UserID, user.Username)
	if err != nil {
		h.logger.Error("Failed to issue tokens", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		Access:  access,
		Refresh: refresh,
	})
}

// TokenRefresh handles POST /api/v1/auth/token/refresh
func (h *AuthHandler) TokenRefresh(c *gin.Context) {
	var req dto.TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, dto.TokenRefreshResponse{
		Access: access,
	})
}
