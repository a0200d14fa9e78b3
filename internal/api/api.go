// Package api exposes the derived artifacts over HTTP for the presentation
// layer. Raw snapshots are intentionally not served; consumers read only the
// regenerated artifact set.
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"car-intel/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var artifactNames = map[string]bool{
	"events":       true,
	"insights":     true,
	"gaps":         true,
	"ladders":      true,
	"lifecycle":    true,
	"latest":       true,
	"search_index": true,
	"stats":        true,
	"promos":       true,
}

type Handler struct {
	store        store.Store
	artifactsDir string
	logger       *zap.Logger
}

// SetupRoutes mounts the read-only artifact routes.
func SetupRoutes(r *gin.RouterGroup, st store.Store, artifactsDir string, logger *zap.Logger) *Handler {
	h := &Handler{store: st, artifactsDir: artifactsDir, logger: logger}

	r.GET("/index", h.BrandIndex)
	r.GET("/artifacts/:name", h.Artifact)
	return h
}

// BrandIndex serves the store's brand directory.
func (h *Handler) BrandIndex(c *gin.Context) {
	idx, err := h.store.Index(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "index unavailable"})
		return
	}
	c.JSON(http.StatusOK, idx)
}

// Artifact serves one pre-generated artifact document verbatim.
func (h *Handler) Artifact(c *gin.Context) {
	name := c.Param("name")
	if !artifactNames[name] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown artifact"})
		return
	}
	path := filepath.Join(h.artifactsDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		h.logger.Warn("artifact not readable",
			zap.String("artifact", name), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not generated yet"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
