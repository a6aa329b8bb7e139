package agent

import (
	"context"
	"fmt"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// extract pulls renewal dates, obligations, and compliance items out of the
// document via the semantic extractor
func (p *Pipeline) extract(ctx context.Context, state *model.VerificationState) (Update, error) {
	text := state.RawText
	docType := state.DocumentType

	dates, err := p.extractor.ExtractRenewalDates(ctx, text, docType)
	if err != nil {
		return Update{}, fmt.Errorf("extract renewal dates: %w", err)
	}
	obligations, err := p.extractor.ExtractObligations(ctx, text, docType)
	if err != nil {
		return Update{}, fmt.Errorf("extract obligations: %w", err)
	}
	items, err := p.extractor.ExtractComplianceItems(ctx, text, docType)
	if err != nil {
		return Update{}, fmt.Errorf("extract compliance items: %w", err)
	}

	logger.Info(ctx, "extraction complete",
		"session_id", state.SessionID,
		"renewal_dates", len(dates),
		"obligations", len(obligations),
		"compliance_items", len(items),
	)

	return Update{
		RenewalDates:       dates,
		Obligations:        obligations,
		ComplianceItems:    items,
		CurrentStep:        strPtr(string(StageExtraction)),
		ProgressPercentage: intPtr(45),
		Messages: []string{
			fmt.Sprintf("Extracted %d renewal dates", len(dates)),
			fmt.Sprintf("Found %d contractual obligations", len(obligations)),
			fmt.Sprintf("Identified %d compliance requirements", len(items)),
		},
	}, nil
}

// CalculateUrgency maps days-until-deadline onto an urgency level.
// The bands here intentionally differ from the compliance deadline bands
// and the risk score bands; they reflect observed product behavior.
func CalculateUrgency(daysUntil int) string {
	switch {
	case daysUntil < 0:
		return model.SeverityCritical // overdue
	case daysUntil <= 7:
		return model.SeverityCritical
	case daysUntil <= 30:
		return model.SeverityHigh
	case daysUntil <= 90:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
