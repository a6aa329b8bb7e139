package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// Stage identifies one node of the verification pipeline
type Stage string

const (
	StageIngestion      Stage = "ingestion"
	StageClassification Stage = "classification"
	StageExtraction     Stage = "extraction"
	StageCompliance     Stage = "compliance"
	StageRiskAssessment Stage = "risk_assessment"
	StageReviewGate     Stage = "review_gate"
	StageReport         Stage = "report"

	stageEnd Stage = "end"
)

// transitions is the unconditional part of the stage graph. The edge out of
// risk_assessment is decided by shouldReview.
var transitions = map[Stage]Stage{
	StageIngestion:      StageClassification,
	StageClassification: StageExtraction,
	StageExtraction:     StageCompliance,
	StageCompliance:     StageRiskAssessment,
	StageReviewGate:     StageReport,
	StageReport:         stageEnd,
}

// SemanticExtractor is the optional language-model-backed collaborator.
// The pipeline falls back to deterministic placeholder data when absent.
type SemanticExtractor interface {
	Classify(ctx context.Context, text string) (string, error)
	ExtractRenewalDates(ctx context.Context, text, documentType string) ([]model.RenewalDate, error)
	ExtractObligations(ctx context.Context, text, documentType string) ([]model.Obligation, error)
	ExtractComplianceItems(ctx context.Context, text, documentType string) ([]model.ComplianceItem, error)
}

// CheckpointStore persists session state between stages and across the
// review-gate suspension
type CheckpointStore interface {
	Save(ctx context.Context, state *model.VerificationState) error
	Load(ctx context.Context, sessionID string) (*model.VerificationState, error)
}

// Pipeline drives a verification session through the stage graph
type Pipeline struct {
	extractor      SemanticExtractor
	scoreThreshold float64
	now            func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSemanticExtractor wires a language-model-backed extractor
func WithSemanticExtractor(e SemanticExtractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithClock overrides the time source, used in tests
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline. Without options it uses the placeholder
// semantic extractor and a review score threshold of 75.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:      PlaceholderExtractor{},
		scoreThreshold: reviewScoreThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// reviewScoreThreshold routes sessions scoring above it into human review
const reviewScoreThreshold = 75

// shouldReview decides the single conditional edge after risk assessment
func (p *Pipeline) shouldReview(state *model.VerificationState) bool {
	if state.RequiresReview {
		return true
	}
	return state.OverallRiskScore > p.scoreThreshold
}

// next returns the stage after cur for the given state
func (p *Pipeline) next(cur Stage, state *model.VerificationState) Stage {
	if cur == StageRiskAssessment {
		if p.shouldReview(state) {
			return StageReviewGate
		}
		return StageReport
	}
	return transitions[cur]
}

// invoke runs one stage and returns its partial update
func (p *Pipeline) invoke(ctx context.Context, stage Stage, state *model.VerificationState) (Update, error) {
	switch stage {
	case StageIngestion:
		return p.ingest(ctx, state)
	case StageClassification:
		return p.classify(ctx, state)
	case StageExtraction:
		return p.extract(ctx, state)
	case StageCompliance:
		return p.evaluateCompliance(ctx, state)
	case StageRiskAssessment:
		return p.assessRisks(ctx, state)
	case StageReviewGate:
		return p.reviewGate(ctx, state)
	case StageReport:
		return p.buildReport(ctx, state)
	default:
		return Update{}, fmt.Errorf("unknown stage %q", stage)
	}
}

// Run executes the pipeline from the given stage until completion, error,
// or suspension at the review gate. After every stage the partial update is
// merged and the state checkpointed. A stage failure is recorded into the
// state (soft fail) and halts execution; the caller always receives a
// well-formed state.
func (p *Pipeline) Run(ctx context.Context, store CheckpointStore, state *model.VerificationState, from Stage) *model.VerificationState {
	cur := from
	for cur != stageEnd {
		select {
		case <-ctx.Done():
			Apply(state, Update{
				Status:       strPtr(model.StatusError),
				ErrorMessage: strPtr("verification cancelled: " + ctx.Err().Error()),
				CurrentStep:  strPtr(string(cur)),
			})
			p.checkpoint(ctx, store, state)
			return state
		default:
		}

		upd, err := p.invoke(ctx, cur, state)
		if err != nil {
			logger.Error(ctx, "stage failed",
				"session_id", state.SessionID,
				"stage", string(cur),
				"error", err,
			)
			upd = Update{
				Status:       strPtr(model.StatusError),
				ErrorMessage: strPtr(fmt.Sprintf("%s failed: %v", cur, err)),
				CurrentStep:  strPtr(string(cur)),
			}
		}
		Apply(state, upd)
		p.checkpoint(ctx, store, state)

		if state.Status == model.StatusError {
			return state
		}
		if cur == StageReviewGate && state.Status == model.StatusReviewRequired {
			// Suspended; an external resume call re-enters the review gate
			logger.Info(ctx, "pipeline suspended for review", "session_id", state.SessionID)
			return state
		}

		cur = p.next(cur, state)
	}
	return state
}

func (p *Pipeline) checkpoint(ctx context.Context, store CheckpointStore, state *model.VerificationState) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, state); err != nil {
		logger.Error(ctx, "failed to persist checkpoint",
			"session_id", state.SessionID,
			"error", err,
		)
	}
}
