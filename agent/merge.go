package agent

import (
	"time"

	"github.com/legalops/docverify/backend/model"
)

// Update is the partial state update a stage returns. Scalar fields use
// pointers: nil means "leave unchanged". List fields are deltas that the
// orchestrator appends onto the existing lists; a stage must never hand
// back entries that are already in the state.
//
// The Replace* fields are the one exception to append semantics: the review
// gate uses them to install patched copies of the lists after applying
// reviewer modifications. Normal stages leave them nil.
type Update struct {
	DocumentType     *string
	RawText          *string
	DocumentMetadata *model.DocumentMetadata

	ParsedSections  []model.Section
	RenewalDates    []model.RenewalDate
	Obligations     []model.Obligation
	ComplianceItems []model.ComplianceItem
	Risks           []model.Risk
	ReviewItems     []string
	Messages        []string
	Recommendations []string

	OverallRiskScore   *float64
	RiskLevel          *string
	RequiresReview     *bool
	CurrentStep        *string
	ProgressPercentage *int
	Status             *string
	ErrorMessage       *string

	VerificationReport *model.VerificationReport

	ReplaceRisks           []model.Risk
	ReplaceComplianceItems []model.ComplianceItem
	ReplaceObligations     []model.Obligation
}

// Apply merges a partial update into the state. Scalars overwrite, lists
// append. UpdatedAt is bumped on every application.
func Apply(state *model.VerificationState, u Update) {
	if u.DocumentType != nil {
		state.DocumentType = *u.DocumentType
	}
	if u.RawText != nil {
		state.RawText = *u.RawText
	}
	if u.DocumentMetadata != nil {
		state.DocumentMetadata = u.DocumentMetadata
	}

	state.ParsedSections = append(state.ParsedSections, u.ParsedSections...)
	state.RenewalDates = append(state.RenewalDates, u.RenewalDates...)
	state.Obligations = append(state.Obligations, u.Obligations...)
	state.ComplianceItems = append(state.ComplianceItems, u.ComplianceItems...)
	state.Risks = append(state.Risks, u.Risks...)
	state.ReviewItems = append(state.ReviewItems, u.ReviewItems...)
	state.Messages = append(state.Messages, u.Messages...)
	state.Recommendations = append(state.Recommendations, u.Recommendations...)

	if u.OverallRiskScore != nil {
		state.OverallRiskScore = *u.OverallRiskScore
	}
	if u.RiskLevel != nil {
		state.RiskLevel = *u.RiskLevel
	}
	if u.RequiresReview != nil {
		state.RequiresReview = *u.RequiresReview
	}
	if u.CurrentStep != nil {
		state.CurrentStep = *u.CurrentStep
	}
	if u.ProgressPercentage != nil {
		state.ProgressPercentage = *u.ProgressPercentage
	}
	if u.Status != nil {
		state.Status = *u.Status
	}
	if u.ErrorMessage != nil {
		state.ErrorMessage = *u.ErrorMessage
	}
	if u.VerificationReport != nil {
		state.VerificationReport = u.VerificationReport
	}

	if u.ReplaceRisks != nil {
		state.Risks = u.ReplaceRisks
	}
	if u.ReplaceComplianceItems != nil {
		state.ComplianceItems = u.ReplaceComplianceItems
	}
	if u.ReplaceObligations != nil {
		state.Obligations = u.ReplaceObligations
	}

	state.UpdatedAt = time.Now()
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
