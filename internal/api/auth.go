package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/store"
	"whatsapp-console/internal/upstream"
)

type AuthHandler struct {
	Store *store.Store
}

func NewAuthHandler(st *store.Store) *AuthHandler {
	return &AuthHandler{Store: st}
}

// Login performs the credential exchange. When the account has OTP
// enabled the response carries requiresOTP and the session stays
// unauthenticated until VerifyOTP.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Auth.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Auth.Snapshot())
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		OTP string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Auth.VerifyOTP(c.Request.Context(), req.OTP); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Auth.Snapshot())
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req upstream.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	if err := h.Store.Auth.Register(c.Request.Context(), req); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, h.Store.Auth.Snapshot())
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Store.Auth.Logout(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Logged out"})
}

// Session returns the auth snapshot the UI renders on page load.
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Auth.Snapshot())
}

func (h *AuthHandler) Profile(c *gin.Context) {
	if err := h.Store.Auth.FetchProfile(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Auth.Snapshot())
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req models.User
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Auth.UpdateProfile(c.Request.Context(), req); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Auth.Snapshot())
}

// statusFor maps the one fatal session error to 401 so the UI can force
// a redirect to login; everything else stays a scoped 502 whose message
// is surfaced verbatim.
func statusFor(err error) int {
	if errors.Is(err, upstream.ErrSessionExpired) {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}
