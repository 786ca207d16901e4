package proxy

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"strconv"
	"time"
)

// Observe 按路由模板记录请求数和耗时
func Observe(m *Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		m.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		m.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("elapsed", elapsed))
	}
}
