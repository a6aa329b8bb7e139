package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalops/docverify/backend/agent"
	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
	"github.com/legalops/docverify/backend/service"
)

// CallbackHandler receives completion callbacks from the extraction API,
// as an alternative to status polling
type CallbackHandler struct {
	extractService *service.ExtractService
	verifier       *agent.Service
	store          service.CheckpointStore
}

func NewCallbackHandler(extractSvc *service.ExtractService, verifier *agent.Service, store service.CheckpointStore) *CallbackHandler {
	return &CallbackHandler{
		extractService: extractSvc,
		verifier:       verifier,
		store:          store,
	}
}

type CallbackRequest struct {
	Checksum string `json:"checksum"`
	Content  string `json:"content"`
}

type CallbackContent struct {
	TaskID     string `json:"task_id"`
	DataID     string `json:"data_id"`
	State      string `json:"state"`
	FullZipURL string `json:"full_zip_url"`
	ErrorMsg   string `json:"err_msg"`
}

// HandleCallback verifies the callback signature, fetches the extracted
// text, and starts the verification pipeline
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var content CallbackContent
	if err := json.Unmarshal([]byte(req.Content), &content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
		return
	}

	if !h.extractService.VerifyCallback(req.Checksum, req.Content, content.DataID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid checksum"})
		return
	}

	// DataID is our session ID
	state, err := h.store.Load(c.Request.Context(), content.DataID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	switch content.State {
	case "done":
		text, err := h.extractService.FetchResultText(c.Request.Context(), content.FullZipURL)
		if err != nil {
			h.fail(c, state, "Failed to fetch extracted text: "+err.Error())
			break
		}
		go h.startVerification(state, text)
	case "failed":
		h.fail(c, state, "Document extraction failed: "+content.ErrorMsg)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Callback received"})
}

func contextForSession(state *model.VerificationState) context.Context {
	ctx := context.WithValue(context.Background(), logger.TenantKey, state.Tenant)
	return context.WithValue(ctx, logger.SessionIDKey, state.SessionID)
}

func (h *CallbackHandler) startVerification(state *model.VerificationState, text string) {
	ctx := contextForSession(state)
	_, err := h.verifier.Start(ctx, agent.StartRequest{
		SessionID:    state.SessionID,
		Tenant:       state.Tenant,
		UserID:       state.UserID,
		DocumentFile: state.DocumentFile,
		RawText:      text,
	})
	if err != nil {
		logger.Error(ctx, "verification start failed after callback", "error", err)
		state.Status = model.StatusError
		state.ErrorMessage = "Document verification rejected: " + err.Error()
		state.CurrentStep = "ingestion"
		if saveErr := h.store.Save(ctx, state); saveErr != nil {
			logger.Error(ctx, "failed to persist error state", "error", saveErr)
		}
	}
}

func (h *CallbackHandler) fail(c *gin.Context, state *model.VerificationState, message string) {
	logger.Error(c.Request.Context(), "extraction callback reported failure",
		"session_id", state.SessionID,
		"error_message", message,
	)
	if state.Terminal() {
		return
	}
	state.Status = model.StatusError
	state.ErrorMessage = message
	state.CurrentStep = "extraction"
	if err := h.store.Save(c.Request.Context(), state); err != nil {
		logger.Error(c.Request.Context(), "failed to persist error state", "error", err)
	}
}
