package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler handles token issuance requests
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register issues a bearer token for valid registration credentials
// @Summary Register and receive a bearer token
// @Description Validate the shared registration secret and issue a signed, time-limited token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body Registration true "Registration details"
// @Success 200 {object} AuthBody
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Wrong credentials"
// @Router /auth [post]
func (h *Handler) Register(c *gin.Context) {
	var reg Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body, err := h.svc.Issue(reg)
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wrong credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}

	c.JSON(http.StatusOK, body)
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Register)
}
