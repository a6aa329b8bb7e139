package agent

import (
	"context"
	"time"

	"github.com/legalops/docverify/backend/model"
)

// PlaceholderExtractor produces deterministic sample findings so the
// pipeline works end to end without a language-model backend. It stands in
// for the semantic extractor until one is wired in.
type PlaceholderExtractor struct {
	// Now overrides the time source used to derive sample deadlines
	Now func() time.Time
}

func (e PlaceholderExtractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Classify always answers "contract"
func (e PlaceholderExtractor) Classify(ctx context.Context, text string) (string, error) {
	return "contract", nil
}

// ExtractRenewalDates returns two sample deadlines at 90 and 30 days out
func (e PlaceholderExtractor) ExtractRenewalDates(ctx context.Context, text, documentType string) ([]model.RenewalDate, error) {
	now := e.now()
	dates := []model.RenewalDate{
		{
			Date:            now.AddDate(0, 0, 90),
			Description:     "Contract renewal deadline",
			DaysUntil:       90,
			Urgency:         CalculateUrgency(90),
			ClauseReference: "Section 5.2",
		},
		{
			Date:            now.AddDate(0, 0, 30),
			Description:     "Insurance certificate renewal",
			DaysUntil:       30,
			Urgency:         CalculateUrgency(30),
			ClauseReference: "Exhibit B",
		},
	}
	return dates, nil
}

// ExtractObligations returns three sample obligations
func (e PlaceholderExtractor) ExtractObligations(ctx context.Context, text, documentType string) ([]model.Obligation, error) {
	deadline := e.now().AddDate(0, 0, 15)
	return []model.Obligation{
		{
			ClauseID:    "3.1",
			Requirement: "Provide monthly status reports",
			Party:       "Party A",
			Status:      model.ObligationPending,
			Deadline:    &deadline,
			Description: "Submit detailed monthly reports by the 15th of each month",
		},
		{
			ClauseID:    "4.2",
			Requirement: "Maintain insurance coverage",
			Party:       "Party B",
			Status:      model.ObligationPending,
			Description: "Maintain general liability insurance of $1M minimum",
		},
		{
			ClauseID:    "6.1",
			Requirement: "Compliance with data protection regulations",
			Party:       "Both Parties",
			Status:      model.ObligationUnclear,
			Description: "Comply with GDPR and applicable data protection laws",
		},
	}, nil
}

// ExtractComplianceItems returns three sample compliance findings
func (e PlaceholderExtractor) ExtractComplianceItems(ctx context.Context, text, documentType string) ([]model.ComplianceItem, error) {
	return []model.ComplianceItem{
		{
			Regulation:  "GDPR",
			Requirement: "Data Processing Agreement required",
			Status:      model.ComplianceNonCompliant,
			Gap:         "No DPA found in contract documents",
			Severity:    model.SeverityHigh,
		},
		{
			Regulation:  "ISO27001",
			Requirement: "Annual security audit",
			Status:      model.CompliancePartiallyCompliant,
			Gap:         "Last audit was 14 months ago (exceeds 12-month requirement)",
			Severity:    model.SeverityMedium,
		},
		{
			Regulation:  "SOC2 Type II",
			Requirement: "Current SOC2 certification",
			Status:      model.ComplianceCompliant,
			Severity:    model.SeverityLow,
		},
	}, nil
}
