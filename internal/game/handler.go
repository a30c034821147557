package game

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gamehub/internal/unify"
	"gamehub/pkg/models"
)

type Handler struct {
	Service *unify.Service
	Repo    *Repo
	Search  unify.PrimaryProvider
}

func NewHandler(svc *unify.Service, repo *Repo, search unify.PrimaryProvider) *Handler {
	return &Handler{Service: svc, Repo: repo, Search: search}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/popular", h.popular)     // GET /games/popular
	rg.GET("/:slug", h.resolve)       // GET /games/:slug
	rg.GET("/:slug/cached", h.peek)   // GET /games/:slug/cached
	rg.POST("/:slug/view", h.view)    // POST /games/:slug/view
	rg.POST("/:slug/vote", h.vote)    // POST /games/:slug/vote
}

// GameResponse is a canonical record plus its live counters, read fresh on
// every call.
type GameResponse struct {
	*models.GameCanonical
	Counters
}

func (h *Handler) resolve(c *gin.Context) {
	slug := c.Param("slug")

	rec, err := h.Service.Resolve(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, unify.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		if errors.Is(err, unify.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game data unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
		return
	}

	counters, err := h.Repo.Counters(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "counters failed"})
		return
	}

	c.JSON(http.StatusOK, GameResponse{GameCanonical: rec, Counters: counters})
}

// peek serves whatever is cached, stale included, and never regenerates.
func (h *Handler) peek(c *gin.Context) {
	slug := c.Param("slug")

	rec, err := h.Service.Peek(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "peek failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not cached"})
		return
	}

	counters, err := h.Repo.Counters(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "counters failed"})
		return
	}

	c.JSON(http.StatusOK, GameResponse{GameCanonical: rec, Counters: counters})
}

func (h *Handler) view(c *gin.Context) {
	if err := h.Repo.IncrementViews(c.Request.Context(), c.Param("slug")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "view failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) vote(c *gin.Context) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	switch strings.ToLower(req.Direction) {
	case "up", "down":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be up or down"})
		return
	}

	if err := h.Repo.Vote(c.Request.Context(), c.Param("slug"), req.Direction == "up"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vote failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) popular(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 20)

	items, err := h.Repo.Popular(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "popular failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SearchHandler proxies the primary catalog's ranked free-text search.
func (h *Handler) SearchHandler(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"results": []any{}, "count": 0})
		return
	}

	page, err := h.Search.Search(c.Request.Context(), query, parseInt(c.Query("page"), 1))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": page.Results,
		"count":   page.Count,
		"next":    page.Next,
	})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
