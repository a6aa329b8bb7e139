package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/legalops/docverify/backend/agent"
	"github.com/legalops/docverify/backend/middleware"
	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
	"github.com/legalops/docverify/backend/service"
)

// extractionTimeout bounds the background extract-then-verify flow
const extractionTimeout = 10 * time.Minute

// VerifyHandler exposes the verification pipeline over HTTP
type VerifyHandler struct {
	minioService   *service.MinioService
	extractService *service.ExtractService
	verifier       *agent.Service
	store          service.CheckpointStore
}

func NewVerifyHandler(minioSvc *service.MinioService, extractSvc *service.ExtractService, verifier *agent.Service, store service.CheckpointStore) *VerifyHandler {
	return &VerifyHandler{
		minioService:   minioSvc,
		extractService: extractSvc,
		verifier:       verifier,
		store:          store,
	}
}

// Upload accepts a PDF/DOCX, stores it, and kicks off extraction and
// verification in the background. Clients poll the status endpoint.
func (h *VerifyHandler) Upload(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	username := middleware.GetUsername(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".docx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrUnsupportedFormat.Error() + ": only PDF and DOCX files are allowed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if ext == ".pdf" {
			contentType = "application/pdf"
		} else {
			contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		}
	}

	sessionID := uuid.New().String()
	objectName := h.minioService.ObjectName(tenant, sessionID, header.Filename)

	if err := h.minioService.UploadDocument(c.Request.Context(), objectName, file, header.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file: " + err.Error()})
		return
	}

	documentURL, err := h.minioService.GetPresignedURL(c.Request.Context(), objectName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate URL: " + err.Error()})
		return
	}

	// Seed a pending state so status polling works while extraction runs
	now := time.Now()
	state := &model.VerificationState{
		SessionID:    sessionID,
		Tenant:       tenant,
		UserID:       username,
		DocumentFile: header.Filename,
		DocumentType: "unknown",
		CurrentStep:  "upload",
		Status:       model.StatusProcessing,
		Messages:     []string{"Document uploaded successfully"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.Save(c.Request.Context(), state); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session: " + err.Error()})
		return
	}

	go h.extractAndVerify(sessionID, tenant, username, header.Filename, documentURL)

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": sessionID,
		"filename":   header.Filename,
		"status":     model.StatusProcessing,
	})
}

// extractAndVerify runs the background extract-then-verify flow for an
// uploaded document
func (h *VerifyHandler) extractAndVerify(sessionID, tenant, username, filename, documentURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, logger.TenantKey, tenant)
	ctx = context.WithValue(ctx, logger.SessionIDKey, sessionID)

	task, err := h.extractService.CreateTask(ctx, documentURL, sessionID)
	if err != nil {
		h.failSession(ctx, sessionID, "extraction", "Document extraction failed: "+err.Error())
		return
	}

	logger.Info(ctx, "extraction task created", "task_id", task.Data.TaskID)

	text, err := h.extractService.WaitForText(ctx, task.Data.TaskID)
	if err != nil {
		h.failSession(ctx, sessionID, "extraction", "Document extraction failed: "+err.Error())
		return
	}

	h.runVerification(ctx, sessionID, tenant, username, filename, text)
}

// runVerification starts the pipeline with extracted text, converting
// pre-pipeline validation failures into an error state on the session
func (h *VerifyHandler) runVerification(ctx context.Context, sessionID, tenant, username, filename, text string) {
	_, err := h.verifier.Start(ctx, agent.StartRequest{
		SessionID:    sessionID,
		Tenant:       tenant,
		UserID:       username,
		DocumentFile: filename,
		RawText:      text,
	})
	switch {
	case errors.Is(err, agent.ErrEmptyDocument), errors.Is(err, agent.ErrTextTooShort):
		h.failSession(ctx, sessionID, "ingestion", "Document verification rejected: "+err.Error())
	case err != nil:
		h.failSession(ctx, sessionID, "ingestion", "Verification failed: "+err.Error())
	}
}

// failSession records a terminal error on the session state
func (h *VerifyHandler) failSession(ctx context.Context, sessionID, step, message string) {
	logger.Error(ctx, "session failed", "step", step, "error_message", message)

	state, err := h.store.Load(ctx, sessionID)
	if err != nil {
		logger.Error(ctx, "failed to load session for error update", "error", err)
		return
	}
	if state.Terminal() {
		return
	}
	state.Status = model.StatusError
	state.ErrorMessage = message
	state.CurrentStep = step
	state.UpdatedAt = time.Now()
	if err := h.store.Save(ctx, state); err != nil {
		logger.Error(ctx, "failed to persist error state", "error", err)
	}
}

// VerifyTextRequest verifies already-extracted text without an upload
type VerifyTextRequest struct {
	Text         string `json:"text" binding:"required"`
	DocumentType string `json:"document_type"`
	Filename     string `json:"filename"`
}

// VerifyText runs the pipeline synchronously on raw text
func (h *VerifyHandler) VerifyText(c *gin.Context) {
	var req VerifyTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sessionID := uuid.New().String()
	state, err := h.verifier.Start(c.Request.Context(), agent.StartRequest{
		SessionID:    sessionID,
		Tenant:       middleware.GetTenant(c),
		UserID:       middleware.GetUsername(c),
		DocumentFile: req.Filename,
		DocumentType: req.DocumentType,
		RawText:      req.Text,
	})
	if err != nil {
		if errors.Is(err, agent.ErrEmptyDocument) || errors.Is(err, agent.ErrTextTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, state)
}

// loadTenantSession fetches a session and enforces tenant ownership
func (h *VerifyHandler) loadTenantSession(c *gin.Context) *model.VerificationState {
	state, err := h.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil || state.Tenant != middleware.GetTenant(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	return state
}

// Get returns the full session state
func (h *VerifyHandler) Get(c *gin.Context) {
	state := h.loadTenantSession(c)
	if state == nil {
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetStatus returns the processing status of a session
func (h *VerifyHandler) GetStatus(c *gin.Context) {
	state := h.loadTenantSession(c)
	if state == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":          state.SessionID,
		"status":              state.Status,
		"current_step":        state.CurrentStep,
		"progress_percentage": state.ProgressPercentage,
		"requires_review":     state.RequiresReview,
		"risk_level":          state.RiskLevel,
		"overall_risk_score":  state.OverallRiskScore,
		"error_msg":           state.ErrorMessage,
	})
}

// GetReport returns the final verification report
func (h *VerifyHandler) GetReport(c *gin.Context) {
	state := h.loadTenantSession(c)
	if state == nil {
		return
	}
	if state.VerificationReport == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Report not available", "status": state.Status})
		return
	}
	c.JSON(http.StatusOK, state.VerificationReport)
}

// GetReviewSummary returns the reviewer digest for a suspended session
func (h *VerifyHandler) GetReviewSummary(c *gin.Context) {
	state := h.loadTenantSession(c)
	if state == nil {
		return
	}
	if state.Status != model.StatusReviewRequired {
		c.JSON(http.StatusConflict, gin.H{"error": "Session is not awaiting review", "status": state.Status})
		return
	}
	c.JSON(http.StatusOK, agent.BuildReviewSummary(state))
}

// FeedbackRequest carries the reviewer's decision
type FeedbackRequest struct {
	Action        string               `json:"action" binding:"required"`
	Comments      string               `json:"comments"`
	Modifications *model.Modifications `json:"modifications"`
}

// SubmitFeedback resumes a suspended session with reviewer feedback
func (h *VerifyHandler) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	switch req.Action {
	case model.FeedbackApproved, model.FeedbackRevised, model.FeedbackRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action must be approved, revised, or rejected"})
		return
	}

	state := h.loadTenantSession(c)
	if state == nil {
		return
	}

	result, err := h.verifier.Resume(c.Request.Context(), state.SessionID, model.HumanFeedback{
		Timestamp:     time.Now(),
		Action:        req.Action,
		Comments:      req.Comments,
		Modifications: req.Modifications,
	})
	if err != nil {
		if errors.Is(err, agent.ErrInvalidSessionState) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// List returns all sessions for the current tenant, without heavy fields
func (h *VerifyHandler) List(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	states, err := h.store.ListByTenant(c.Request.Context(), tenant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]gin.H, len(states))
	for i, state := range states {
		result[i] = gin.H{
			"session_id":          state.SessionID,
			"document_file":       state.DocumentFile,
			"document_type":       state.DocumentType,
			"status":              state.Status,
			"risk_level":          state.RiskLevel,
			"overall_risk_score":  state.OverallRiskScore,
			"progress_percentage": state.ProgressPercentage,
			"created_at":          state.CreatedAt.Format(time.RFC3339),
			"updated_at":          state.UpdatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"sessions": result})
}

// Delete removes a session and its checkpoint
func (h *VerifyHandler) Delete(c *gin.Context) {
	state := h.loadTenantSession(c)
	if state == nil {
		return
	}

	if err := h.store.Delete(c.Request.Context(), state.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}
