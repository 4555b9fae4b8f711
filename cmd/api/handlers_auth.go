package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ecom-backend/internal/identity"
	"ecom-backend/internal/user"
)

// registerHandler creates a new account.
// @Summary Register a user
// @Accept json
// @Produce json
// @Success 201 {object} user.User
// @Router /api/users/register [post]
func registerHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		hash, err := user.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash error"})
			return
		}
		u := &user.User{
			ID:           uuid.NewString(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
		}
		if err := users.Create(c.Request.Context(), u); err != nil {
			if err == user.ErrAlreadyExist {
				c.JSON(http.StatusConflict, gin.H{"error": "user exists (username/email)"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create error"})
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func getProfileHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.GetByID(c.Request.Context(), identity.FromContext(c).UserID())
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func updateProfileHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		id := identity.FromContext(c).UserID()
		u := &user.User{
			ID:        id,
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Address:   req.Address,
			Phone:     req.Phone,
		}
		if err := users.Update(ctx, u); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update error"})
			return
		}
		out, err := users.GetByID(ctx, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

type tokenRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// obtainTokenHandler exchanges email+password for an access/refresh pair.
func obtainTokenHandler(users user.Repository, tokens *user.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u, err := users.GetByEmail(c.Request.Context(), req.Email)
		if err != nil || !user.CheckPassword(u.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		pair, err := tokens.Issue(u)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access":  pair.Access,
			"refresh": pair.Refresh,
			"user_id": u.ID,
			"email":   u.Email,
		})
	}
}

func refreshTokenHandler(users user.Repository, tokens *user.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Refresh string `json:"refresh" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pair, err := tokens.Refresh(req.Refresh, func(id string) (*user.User, error) {
			return users.GetByID(c.Request.Context(), id)
		})
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.JSON(http.StatusOK, pair)
	}
}
