package proxy

import (
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/sleepstars/kland/internal/objectstore"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"strings"
)

type Handler struct {
	Store   objectstore.Store
	Logger  *zap.Logger
	Metrics *Metrics
}

func NewHandler(store objectstore.Store, logger *zap.Logger, metrics *Metrics) *Handler {
	return &Handler{Store: store, Logger: logger, Metrics: metrics}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Image 按名称取对象，名称可含子目录，取不到一律 404
func (h *Handler) Image(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")

	data, err := h.Store.Get(c.Request.Context(), name)
	if err != nil {
		if !errors.Is(err, objectstore.ErrNotFound) {
			h.Logger.Warn("fetch image failed", zap.String("name", name), zap.Error(err))
		}
		c.String(http.StatusNotFound, "not found")
		return
	}

	h.Metrics.BytesServed.Add(float64(len(data)))
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
