package agent

import (
	"context"
	"fmt"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// ReviewItemGroup is one bucket of findings presented to the reviewer
type ReviewItemGroup struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// ReviewSummary is the digest shown to the human reviewer while the
// session is suspended
type ReviewSummary struct {
	OverallRiskScore   float64                `json:"overall_risk_score"`
	RiskLevel          string                 `json:"risk_level"`
	Items              []ReviewItemGroup      `json:"items"`
	TopRisks           []model.Risk           `json:"top_risks"`
	TopGaps            []model.ComplianceItem `json:"top_gaps"`
	UnclearObligations []model.Obligation     `json:"unclear_obligations"`
	RequiresAttention  bool                   `json:"requires_attention"`
}

// reviewGate is the two-phase human-in-the-loop checkpoint. On first entry
// it marks the session as awaiting review and the pipeline suspends; on
// re-entry with feedback attached it applies the reviewer's decision.
func (p *Pipeline) reviewGate(ctx context.Context, state *model.VerificationState) (Update, error) {
	feedback := state.HumanFeedback
	if feedback == nil {
		summary := BuildReviewSummary(state)

		var items []string
		for _, group := range summary.Items {
			items = append(items, group.Description)
		}

		logger.Info(ctx, "awaiting human review",
			"session_id", state.SessionID,
			"requires_attention", summary.RequiresAttention,
		)

		return Update{
			RequiresReview:     boolPtr(true),
			Status:             strPtr(model.StatusReviewRequired),
			ReviewItems:        items,
			CurrentStep:        strPtr("review_pending"),
			ProgressPercentage: intPtr(80),
			Messages:           []string{"Awaiting human review and approval"},
		}, nil
	}

	switch feedback.Action {
	case model.FeedbackApproved:
		return Update{
			RequiresReview:     boolPtr(false),
			Status:             strPtr(model.StatusProcessing),
			CurrentStep:        strPtr("review_approved"),
			ProgressPercentage: intPtr(85),
			Messages:           []string{"Review approved by user"},
		}, nil

	case model.FeedbackRevised:
		upd := applyModifications(state, feedback.Modifications)
		upd.RequiresReview = boolPtr(false)
		upd.Status = strPtr(model.StatusProcessing)
		upd.CurrentStep = strPtr("review_revised")
		upd.ProgressPercentage = intPtr(85)
		upd.Messages = append(upd.Messages,
			fmt.Sprintf("Review revised with user feedback: %s", feedback.Comments))
		return upd, nil

	case model.FeedbackRejected:
		return Update{
			Status:       strPtr(model.StatusError),
			ErrorMessage: strPtr(fmt.Sprintf("User rejected findings: %s", feedback.Comments)),
			CurrentStep:  strPtr("review_rejected"),
		}, nil

	default:
		return Update{}, fmt.Errorf("unknown feedback action %q", feedback.Action)
	}
}

// BuildReviewSummary digests the findings for the reviewer: top-5
// critical/high risks, top-5 compliance gaps, top-5 unclear obligations
func BuildReviewSummary(state *model.VerificationState) ReviewSummary {
	summary := ReviewSummary{
		OverallRiskScore: state.OverallRiskScore,
		RiskLevel:        state.RiskLevel,
	}

	var criticalRisks []model.Risk
	for _, r := range state.Risks {
		if r.Severity == model.SeverityCritical || r.Severity == model.SeverityHigh {
			criticalRisks = append(criticalRisks, r)
		}
	}
	if len(criticalRisks) > 0 {
		summary.TopRisks = topN(criticalRisks, 5)
		summary.Items = append(summary.Items, ReviewItemGroup{
			Type:        "risks",
			Priority:    model.SeverityCritical,
			Count:       len(criticalRisks),
			Description: fmt.Sprintf("%d critical/high risks identified", len(criticalRisks)),
		})
	}

	var nonCompliant []model.ComplianceItem
	for _, c := range state.ComplianceItems {
		if c.Status == model.ComplianceNonCompliant {
			nonCompliant = append(nonCompliant, c)
		}
	}
	if len(nonCompliant) > 0 {
		summary.TopGaps = topN(nonCompliant, 5)
		summary.Items = append(summary.Items, ReviewItemGroup{
			Type:        "compliance",
			Priority:    model.SeverityHigh,
			Count:       len(nonCompliant),
			Description: fmt.Sprintf("%d compliance gaps found", len(nonCompliant)),
		})
	}

	var unclear []model.Obligation
	for _, o := range state.Obligations {
		if o.Status == model.ObligationUnclear {
			unclear = append(unclear, o)
		}
	}
	if len(unclear) > 0 {
		summary.UnclearObligations = topN(unclear, 5)
		summary.Items = append(summary.Items, ReviewItemGroup{
			Type:        "obligations",
			Priority:    model.SeverityMedium,
			Count:       len(unclear),
			Description: fmt.Sprintf("%d obligations need clarification", len(unclear)),
		})
	}

	summary.RequiresAttention = len(criticalRisks) > 0 || len(nonCompliant) > 0
	return summary
}

// applyModifications builds replacement lists with the reviewer's targeted
// patches applied. Risks match by ID, compliance items by index,
// obligations by clause ID; unmatched patches are ignored. The state's own
// lists are never mutated here.
func applyModifications(state *model.VerificationState, mods *model.Modifications) Update {
	var upd Update
	if mods == nil {
		return upd
	}

	if len(mods.Risks) > 0 {
		risks := make([]model.Risk, len(state.Risks))
		copy(risks, state.Risks)
		for _, patch := range mods.Risks {
			for i := range risks {
				if risks[i].ID != patch.ID {
					continue
				}
				if patch.Severity != nil {
					risks[i].Severity = *patch.Severity
				}
				if patch.Description != nil {
					risks[i].Description = *patch.Description
				}
				if patch.Mitigation != nil {
					risks[i].Mitigation = *patch.Mitigation
				}
			}
		}
		upd.ReplaceRisks = risks
	}

	if len(mods.ComplianceItems) > 0 {
		items := make([]model.ComplianceItem, len(state.ComplianceItems))
		copy(items, state.ComplianceItems)
		for _, patch := range mods.ComplianceItems {
			if patch.Index < 0 || patch.Index >= len(items) {
				continue
			}
			if patch.Status != nil {
				items[patch.Index].Status = *patch.Status
			}
			if patch.Gap != nil {
				items[patch.Index].Gap = *patch.Gap
			}
		}
		upd.ReplaceComplianceItems = items
	}

	if len(mods.Obligations) > 0 {
		obligations := make([]model.Obligation, len(state.Obligations))
		copy(obligations, state.Obligations)
		for _, patch := range mods.Obligations {
			for i := range obligations {
				if obligations[i].ClauseID != patch.ClauseID {
					continue
				}
				if patch.Status != nil {
					obligations[i].Status = *patch.Status
				}
				if patch.Description != nil {
					obligations[i].Description = *patch.Description
				}
			}
		}
		upd.ReplaceObligations = obligations
	}

	if mods.Notes != "" {
		upd.Messages = append(upd.Messages, fmt.Sprintf("User note: %s", mods.Notes))
	}

	return upd
}

func topN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
