package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/hrportal/internal/database/repository"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

type runView struct {
	ID               string     `json:"id"`
	FileName         string     `json:"fileName"`
	FileType         string     `json:"fileType"`
	Status           string     `json:"status"`
	TotalRecords     int        `json:"totalRecords"`
	ProcessedRecords int        `json:"processedRecords"`
	ErrorRecords     int        `json:"errorRecords"`
	BatchID          string     `json:"batchId"`
	Errors           []string   `json:"errors"`
	Warnings         []string   `json:"warnings"`
	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

func toRunView(r repository.ImportRun) runView {
	v := runView{
		ID:               r.ID,
		FileName:         r.FileName,
		FileType:         r.FileType,
		Status:           r.Status,
		TotalRecords:     r.TotalRecords,
		ProcessedRecords: r.ProcessedRecords,
		ErrorRecords:     r.ErrorRecords,
		BatchID:          r.BatchID,
		Errors:           r.Errors,
		Warnings:         r.Warnings,
		StartedAt:        r.StartedAt,
		CompletedAt:      r.CompletedAt,
	}
	if v.Errors == nil {
		v.Errors = []string{}
	}
	if v.Warnings == nil {
		v.Warnings = []string{}
	}
	return v
}

// ListRuns returns the newest import runs; ?limit= caps the count.
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abort(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}
	runs, err := h.Runs.List(c.Request.Context(), limit)
	if err != nil {
		h.Log.WithError(err).Error("list import runs")
		abort(c, http.StatusInternalServerError, codeInternal, "load failed")
		return
	}
	out := make([]runView, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunView(r))
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// GetRun returns one import run.
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.Runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Log.WithError(err).Error("get import run")
		abort(c, http.StatusInternalServerError, codeInternal, "load failed")
		return
	}
	if run == nil {
		abort(c, http.StatusNotFound, codeNotFound, "import run not found")
		return
	}
	c.JSON(http.StatusOK, toRunView(*run))
}
