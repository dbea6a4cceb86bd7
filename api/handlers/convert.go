package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbforge/kbforge/internal/service/conversion"
	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/queue"
)

type ConvertHandler struct {
	service *conversion.Service
	queue   queue.Queue
	logger  logger.Logger
}

type ConvertRequest struct {
	Input string `json:"input" binding:"required"`
}

type BatchRequest struct {
	Inputs []string `json:"inputs" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func NewConvertHandler(svc *conversion.Service, q queue.Queue, log logger.Logger) *ConvertHandler {
	return &ConvertHandler{
		service: svc,
		queue:   q,
		logger:  log,
	}
}

// ConvertDocument converts one reference synchronously and returns its
// terminal result. Per-item conversion failures are reported in the body
// with 200, not as HTTP errors.
func (h *ConvertHandler) ConvertDocument(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.ConvertSingle(c.Request.Context(), req.Input)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Conversion engine failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateBatch enqueues a batch conversion job and returns its ID.
func (h *ConvertHandler) CreateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Inputs) == 0 {
		h.handleError(c, http.StatusBadRequest, "No inputs provided", nil)
		return
	}

	job := &queue.BatchJob{
		ID:        uuid.New().String(),
		Inputs:    req.Inputs,
		CreatedAt: time.Now(),
	}
	if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to enqueue batch", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":  job.ID,
		"state":  string(queue.JobStatePending),
		"inputs": len(job.Inputs),
	})
}

// GetBatch returns the status of a batch job, including its summary once
// the job has completed.
func (h *ConvertHandler) GetBatch(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		h.handleError(c, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	status, err := h.queue.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		h.handleError(c, http.StatusNotFound, "Job not found", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *ConvertHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
