package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/hrportal/internal/ingest"
	"github.com/jask/hrportal/internal/service"
)

// Error codes produced by the HTTP layer itself.
const (
	codeMissingFile = "MISSING_FILE"
	codeTooLarge    = "FILE_TOO_LARGE"
	codeNotFound    = "NOT_FOUND"
	codeInternal    = "INTERNAL"
)

type uploadResponse struct {
	Accepted int      `json:"accepted"`
	Total    int      `json:"total"`
	Errors   int      `json:"errors"`
	BatchID  string   `json:"batchId"`
	RunID    string   `json:"runId"`
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings"`
}

// UploadAttendance accepts a multipart "file" plus a required "date"
// (YYYY-MM-DD).
func (h *Handler) UploadAttendance(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	// A missing date is rejected by the import itself so the run is recorded.
	if raw := strings.TrimSpace(c.PostForm("date")); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			abort(c, http.StatusBadRequest, ingest.CodeInvalidDate, "date must be YYYY-MM-DD")
			return
		}
		up.Date = date
	}
	res, err := h.Ingest.ImportAttendance(c.Request.Context(), up)
	h.respond(c, res, err)
}

// UploadProductivity accepts a multipart "file" and an optional fallback
// "date" for rows without one.
func (h *Handler) UploadProductivity(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	if raw := strings.TrimSpace(c.PostForm("date")); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			abort(c, http.StatusBadRequest, ingest.CodeInvalidDate, "date must be YYYY-MM-DD")
			return
		}
		up.Date = date
	}
	res, err := h.Ingest.ImportProductivity(c.Request.Context(), up)
	h.respond(c, res, err)
}

func (h *Handler) readUpload(c *gin.Context) (service.Upload, bool) {
	if c.Request.ContentLength > h.MaxUploadBytes {
		abort(c, http.StatusRequestEntityTooLarge, codeTooLarge, "upload exceeds the size limit")
		return service.Upload{}, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			abort(c, http.StatusRequestEntityTooLarge, codeTooLarge, "upload exceeds the size limit")
			return service.Upload{}, false
		}
		abort(c, http.StatusBadRequest, codeMissingFile, "multipart field \"file\" is required")
		return service.Upload{}, false
	}
	f, err := fh.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, codeMissingFile, "uploaded file could not be read")
		return service.Upload{}, false
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, h.MaxUploadBytes+1))
	if err != nil {
		abort(c, http.StatusBadRequest, codeMissingFile, "uploaded file could not be read")
		return service.Upload{}, false
	}
	if int64(len(content)) > h.MaxUploadBytes {
		abort(c, http.StatusRequestEntityTooLarge, codeTooLarge, "upload exceeds the size limit")
		return service.Upload{}, false
	}
	return service.Upload{FileName: fh.Filename, Content: content}, true
}

func (h *Handler) respond(c *gin.Context, res service.Result, err error) {
	if err != nil {
		var ie *ingest.Error
		if !errors.As(err, &ie) {
			h.Log.WithError(err).Error("import failed")
			abort(c, http.StatusInternalServerError, codeInternal, "import failed")
			return
		}
		status := http.StatusBadRequest
		if !service.IsInputError(err) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": ie.Code, "message": ie.Message, "runId": res.RunID})
		return
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, uploadResponse{
		Accepted: res.Accepted,
		Total:    res.Total,
		Errors:   res.Errors,
		BatchID:  res.BatchID,
		RunID:    res.RunID,
		Status:   res.Status,
		Message:  res.Message,
		Warnings: warnings,
	})
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": msg})
}
