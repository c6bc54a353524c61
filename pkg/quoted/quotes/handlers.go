package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quotehub/quoted/pkg/quoted/auth"
	"github.com/quotehub/quoted/pkg/quoted/store"
)

// Handler handles quote-related requests
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler creates a new quotes handler
func NewHandler(s *store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: s, logger: logger}
}

// CreateQuoteRequest represents the request to create a quote
type CreateQuoteRequest struct {
	Quote  string   `json:"quote" binding:"required"`
	Source string   `json:"source" binding:"required"`
	Tags   []string `json:"tags"`
}

// UpdateQuoteRequest represents the request to update a quote. The tag
// list replaces the quote's existing tags entirely.
type UpdateQuoteRequest struct {
	Quote  string   `json:"quote" binding:"required"`
	Source string   `json:"source" binding:"required"`
	Tags   []string `json:"tags"`
}

// validate rejects quote text or source that is empty after trimming.
// Binding catches absent fields; this catches whitespace-only ones.
func validate(quote, source string) (string, bool) {
	if strings.TrimSpace(quote) == "" {
		return "Quote text cannot be empty", false
	}
	if strings.TrimSpace(source) == "" {
		return "Quote source cannot be empty", false
	}
	return "", true
}

// audit records who performed a successful mutation. The subject is set
// by the token middleware, so it is always present on mutating routes.
func (h *Handler) audit(c *gin.Context, action string, id uint) {
	subject, _ := auth.GetSubject(c)
	h.logger.Info(action,
		slog.Uint64("quote_id", uint64(id)),
		slog.String("subject", subject),
	)
}

func (h *Handler) storageFault(c *gin.Context, msg string, err error) {
	h.logger.Error("database error",
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// List returns all quotes, optionally filtered
// @Summary List quotes
// @Description Get all quotes with their tags, optionally filtered by quote text, source, or tag name substring
// @Tags quotes
// @Produce json
// @Param quote query string false "Search within quote text"
// @Param source query string false "Search within source/author"
// @Param tag query string false "Search within tag names"
// @Success 200 {array} store.QuoteWithTags
// @Failure 500 {object} map[string]string "Storage fault"
// @Router /quotes [get]
func (h *Handler) List(c *gin.Context) {
	filter := store.Filter{
		Quote:  c.Query("quote"),
		Source: c.Query("source"),
		Tag:    c.Query("tag"),
	}

	quotes, err := h.store.GetAll(filter)
	if err != nil {
		h.storageFault(c, "Failed to retrieve quotes", err)
		return
	}

	c.JSON(http.StatusOK, quotes)
}

// Get returns a single quote by ID
// @Summary Get a quote
// @Description Get a quote with its tags by database ID
// @Tags quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} store.QuoteWithTags
// @Failure 400 {object} map[string]string "Invalid quote ID"
// @Failure 404 {object} map[string]string "Quote not found"
// @Router /quotes/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
		return
	}

	quote, err := h.store.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
			return
		}
		h.storageFault(c, "Failed to retrieve quote", err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Random returns one uniformly selected quote
// @Summary Get a random quote
// @Description Get a single random quote with its tags, or null when no quotes exist
// @Tags quotes
// @Produce json
// @Success 200 {object} store.QuoteWithTags
// @Failure 500 {object} map[string]string "Storage fault"
// @Router /quotes/random [get]
func (h *Handler) Random(c *gin.Context) {
	quote, err := h.store.GetRandom()
	if err != nil {
		h.storageFault(c, "Failed to retrieve random quote", err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Create creates a new quote
// @Summary Create a quote
// @Description Create a new quote with optional tags
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body CreateQuoteRequest true "Quote details"
// @Success 201 {object} store.QuoteWithTags
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /quotes [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg, ok := validate(req.Quote, req.Source); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	quote, err := h.store.Create(req.Quote, req.Source, req.Tags)
	if err != nil {
		h.storageFault(c, "Failed to create quote", err)
		return
	}

	h.audit(c, "quote created", quote.ID)
	c.JSON(http.StatusCreated, quote)
}

// Update updates an existing quote and replaces its tags
// @Summary Update a quote
// @Description Update a quote's text, source, and tags; the previous tag set is fully replaced
// @Tags quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body UpdateQuoteRequest true "Updated quote details"
// @Success 200 {object} store.QuoteWithTags
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Quote not found"
// @Security BearerAuth
// @Router /quotes/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
		return
	}

	var req UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg, ok := validate(req.Quote, req.Source); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	quote, err := h.store.Update(uint(id), req.Quote, req.Source, req.Tags)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
			return
		}
		h.storageFault(c, "Failed to update quote", err)
		return
	}

	h.audit(c, "quote updated", quote.ID)
	c.JSON(http.StatusOK, quote)
}

// Delete deletes a quote and its tags
// @Summary Delete a quote
// @Description Permanently remove a quote and all of its tags
// @Tags quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 204 "Quote deleted"
// @Failure 400 {object} map[string]string "Invalid quote ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Quote not found"
// @Security BearerAuth
// @Router /quotes/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
		return
	}

	deleted, err := h.store.Delete(uint(id))
	if err != nil {
		h.storageFault(c, "Failed to delete quote", err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
		return
	}

	h.audit(c, "quote deleted", uint(id))
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers quote routes. Reads go on the public group;
// mutations go on the token-gated group.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/quotes", h.List)
	public.GET("/quotes/random", h.Random)
	public.GET("/quotes/:id", h.Get)

	protected.POST("/quotes", h.Create)
	protected.PUT("/quotes/:id", h.Update)
	protected.DELETE("/quotes/:id", h.Delete)
}
