package platformconfig

import (
	"errors"
	"net/http"

	"storefront-app/internal/domain/platform"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store *platform.Store
}

func NewHandler(store *platform.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) ReadConfig(c *gin.Context) {
	cfg, err := h.store.Read()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var body struct {
		ServiceCut *float64 `json:"service_cut" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body does not meet the config specification"})
		return
	}

	if err := h.store.Update(*body.ServiceCut); err != nil {
		if errors.Is(err, platform.ErrInvalidServiceCut) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update config"})
		return
	}
	c.JSON(http.StatusOK, "Success")
}
