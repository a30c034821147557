package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Handler issues admin tokens. There is no user system here: the only
// credential is the bcrypt-hashed admin password from config, and the only
// thing a token unlocks is the admin cache surface (invalidate).
type Handler struct {
	Tokens       TokenService
	PasswordHash string
}

func NewHandler(tokens TokenService, passwordHash string) *Handler {
	return &Handler{Tokens: tokens, PasswordHash: passwordHash}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.token)
}

func (h *Handler) token(c *gin.Context) {
	if h.PasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.Tokens.Sign()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp})
}
