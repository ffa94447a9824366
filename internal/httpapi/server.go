// Package httpapi exposes the import pipeline over HTTP.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jask/hrportal/internal/database/repository"
	"github.com/jask/hrportal/internal/logging"
	"github.com/jask/hrportal/internal/service"
)

const defaultMaxUpload = 10 << 20

// Handler serves upload and import-run endpoints.
type Handler struct {
	Ingest         *service.IngestService
	Runs           *repository.ImportRunRepo
	MaxUploadBytes int64
	Log            *logrus.Entry
}

// NewHandler returns a handler over svc and runs.
func NewHandler(svc *service.IngestService, runs *repository.ImportRunRepo, maxUpload int64, log *logrus.Entry) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Handler{Ingest: svc, Runs: runs, MaxUploadBytes: maxUpload, Log: logging.OrDiscard(log)}
}

// NewRouter registers every route on a fresh engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.Log))
	r.MaxMultipartMemory = h.MaxUploadBytes

	r.GET("/health", Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/attendance/upload", h.UploadAttendance)
	api.POST("/productivity/upload", h.UploadProductivity)
	api.GET("/import-runs", h.ListRuns)
	api.GET("/import-runs/:id", h.GetRun)
	return r
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"message": "hrportal import api is running",
	})
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}
