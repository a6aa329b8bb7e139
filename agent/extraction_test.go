package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/legalops/docverify/backend/model"
)

func TestCalculateUrgencyBands(t *testing.T) {
	tests := []struct {
		daysUntil int
		want      string
	}{
		{-1, "critical"},
		{0, "critical"},
		{7, "critical"},
		{8, "high"},
		{30, "high"},
		{31, "medium"},
		{90, "medium"},
		{91, "low"},
		{365, "low"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateUrgency(tt.daysUntil), "days_until %d", tt.daysUntil)
	}
}

func TestExtractPopulatesFindings(t *testing.T) {
	p := NewPipeline()
	state := &model.VerificationState{
		SessionID:    "s-extract",
		DocumentType: "contract",
		RawText:      "sample text",
	}

	upd, err := p.extract(context.Background(), state)
	assert.NoError(t, err)
	Apply(state, upd)

	assert.Len(t, state.RenewalDates, 2)
	assert.Len(t, state.Obligations, 3)
	assert.Len(t, state.ComplianceItems, 3)
	assert.Equal(t, 45, state.ProgressPercentage)
	assert.Contains(t, state.Messages, "Extracted 2 renewal dates")
	assert.Contains(t, state.Messages, "Found 3 contractual obligations")
	assert.Contains(t, state.Messages, "Identified 3 compliance requirements")
}

func TestPlaceholderExtractorDeterministicDates(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	e := PlaceholderExtractor{Now: func() time.Time { return fixed }}

	dates, err := e.ExtractRenewalDates(context.Background(), "text", "contract")
	assert.NoError(t, err)
	assert.Len(t, dates, 2)

	assert.Equal(t, fixed.AddDate(0, 0, 90), dates[0].Date)
	assert.Equal(t, 90, dates[0].DaysUntil)
	assert.Equal(t, model.SeverityMedium, dates[0].Urgency)

	assert.Equal(t, fixed.AddDate(0, 0, 30), dates[1].Date)
	assert.Equal(t, 30, dates[1].DaysUntil)
	assert.Equal(t, model.SeverityHigh, dates[1].Urgency)
}

func TestPlaceholderExtractorClassifiesAsContract(t *testing.T) {
	docType, err := PlaceholderExtractor{}.Classify(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Equal(t, "contract", docType)
}

func TestPlaceholderExtractorObligationStatuses(t *testing.T) {
	obligations, err := PlaceholderExtractor{}.ExtractObligations(context.Background(), "text", "contract")
	assert.NoError(t, err)
	assert.Len(t, obligations, 3)

	assert.Equal(t, model.ObligationPending, obligations[0].Status)
	assert.NotNil(t, obligations[0].Deadline)
	assert.Equal(t, model.ObligationUnclear, obligations[2].Status)
}
