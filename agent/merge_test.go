package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalops/docverify/backend/model"
)

func TestApplyScalarOverwrite(t *testing.T) {
	state := &model.VerificationState{
		SessionID:          "s1",
		Status:             model.StatusProcessing,
		ProgressPercentage: 15,
		OverallRiskScore:   10,
	}

	Apply(state, Update{
		Status:             strPtr(model.StatusReviewRequired),
		ProgressPercentage: intPtr(80),
		OverallRiskScore:   floatPtr(82.5),
		RiskLevel:          strPtr(model.SeverityCritical),
		RequiresReview:     boolPtr(true),
		CurrentStep:        strPtr("risk_assessment"),
	})

	assert.Equal(t, model.StatusReviewRequired, state.Status)
	assert.Equal(t, 80, state.ProgressPercentage)
	assert.Equal(t, 82.5, state.OverallRiskScore)
	assert.Equal(t, model.SeverityCritical, state.RiskLevel)
	assert.True(t, state.RequiresReview)
	assert.Equal(t, "risk_assessment", state.CurrentStep)
}

func TestApplyNilScalarsLeaveStateUnchanged(t *testing.T) {
	state := &model.VerificationState{
		Status:             model.StatusProcessing,
		ProgressPercentage: 45,
		RiskLevel:          model.SeverityHigh,
	}

	Apply(state, Update{Messages: []string{"noop"}})

	assert.Equal(t, model.StatusProcessing, state.Status)
	assert.Equal(t, 45, state.ProgressPercentage)
	assert.Equal(t, model.SeverityHigh, state.RiskLevel)
}

func TestApplyListAppend(t *testing.T) {
	state := &model.VerificationState{
		Risks:    []model.Risk{{ID: "r0", Score: 50}},
		Messages: []string{"first"},
	}

	Apply(state, Update{
		Risks:    []model.Risk{{ID: "r1", Score: 70}},
		Messages: []string{"second", "third"},
		ComplianceItems: []model.ComplianceItem{
			{Regulation: "GDPR", Status: model.ComplianceNonCompliant},
		},
	})

	assert.Len(t, state.Risks, 2)
	assert.Equal(t, "r0", state.Risks[0].ID)
	assert.Equal(t, "r1", state.Risks[1].ID)
	assert.Equal(t, []string{"first", "second", "third"}, state.Messages)
	assert.Len(t, state.ComplianceItems, 1)
}

func TestApplyAllowsDuplicateAppends(t *testing.T) {
	state := &model.VerificationState{}
	upd := Update{Messages: []string{"same"}}

	Apply(state, upd)
	Apply(state, upd)

	assert.Equal(t, []string{"same", "same"}, state.Messages)
}

func TestApplyReplaceListsOverwrite(t *testing.T) {
	state := &model.VerificationState{
		Risks: []model.Risk{{ID: "r0", Severity: model.SeverityHigh}},
		Obligations: []model.Obligation{
			{ClauseID: "3.1", Status: model.ObligationPending},
		},
	}

	Apply(state, Update{
		ReplaceRisks: []model.Risk{{ID: "r0", Severity: model.SeverityLow}},
		ReplaceObligations: []model.Obligation{
			{ClauseID: "3.1", Status: model.ObligationMet},
		},
	})

	assert.Len(t, state.Risks, 1)
	assert.Equal(t, model.SeverityLow, state.Risks[0].Severity)
	assert.Equal(t, model.ObligationMet, state.Obligations[0].Status)
}

func TestApplyBumpsUpdatedAt(t *testing.T) {
	state := &model.VerificationState{}
	before := state.UpdatedAt

	Apply(state, Update{})

	assert.True(t, state.UpdatedAt.After(before))
}
