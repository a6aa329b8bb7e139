package agent

import (
	"context"
	"strings"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// DefaultMinTextLength is the shortest document text the service accepts
const DefaultMinTextLength = 100

// StartRequest carries the inputs for a new verification session
type StartRequest struct {
	SessionID    string
	Tenant       string
	UserID       string
	DocumentFile string
	DocumentType string
	RawText      string
}

// Service is the verification surface exposed to handlers. Start runs a
// session until completion, error, or suspension; Resume continues a
// suspended one; GetState returns a snapshot.
type Service struct {
	pipeline      *Pipeline
	store         CheckpointStore
	minTextLength int
}

// NewService wires the pipeline to a checkpoint store
func NewService(pipeline *Pipeline, store CheckpointStore, minTextLength int) *Service {
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Service{
		pipeline:      pipeline,
		store:         store,
		minTextLength: minTextLength,
	}
}

// Start creates the session state and runs the pipeline from ingestion.
// It rejects empty or too-short text before any stage runs; after that,
// failures are recorded in the returned state, never thrown.
func (s *Service) Start(ctx context.Context, req StartRequest) (*model.VerificationState, error) {
	text := strings.TrimSpace(req.RawText)
	if text == "" {
		return nil, ErrEmptyDocument
	}
	if len(text) < s.minTextLength {
		return nil, ErrTextTooShort
	}

	docType := req.DocumentType
	if docType == "" {
		docType = "unknown"
	}

	now := s.pipeline.now()
	state := &model.VerificationState{
		DocumentFile: req.DocumentFile,
		DocumentType: docType,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		Tenant:       req.Tenant,
		RawText:      req.RawText,
		CurrentStep:  "initialized",
		Messages:     []string{"Document uploaded successfully"},
		Status:       model.StatusProcessing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	logger.Info(ctx, "verification started",
		"session_id", req.SessionID,
		"document_type", docType,
		"text_length", len(req.RawText),
	)

	return s.pipeline.Run(ctx, s.store, state, StageIngestion), nil
}

// Resume continues a session suspended at the review gate. The feedback is
// attached to the reloaded state and the review gate re-entered; earlier
// stages are never replayed. Calling Resume on a session that is not
// awaiting review fails with ErrInvalidSessionState.
func (s *Service) Resume(ctx context.Context, sessionID string, feedback model.HumanFeedback) (*model.VerificationState, error) {
	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Status != model.StatusReviewRequired {
		return nil, ErrInvalidSessionState
	}

	if feedback.Timestamp.IsZero() {
		feedback.Timestamp = s.pipeline.now()
	}
	state.HumanFeedback = &feedback

	logger.Info(ctx, "verification resumed",
		"session_id", sessionID,
		"action", feedback.Action,
	)

	return s.pipeline.Run(ctx, s.store, state, StageReviewGate), nil
}

// GetState returns a read-only snapshot of the session
func (s *Service) GetState(ctx context.Context, sessionID string) (*model.VerificationState, error) {
	return s.store.Load(ctx, sessionID)
}
