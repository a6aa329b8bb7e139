package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// buildReport aggregates the final state into the verification report.
// Pure aggregation; no findings are generated here.
func (p *Pipeline) buildReport(ctx context.Context, state *model.VerificationState) (Update, error) {
	recommendations := buildRecommendations(state.Risks, state.ComplianceItems, state.RenewalDates)

	report := &model.VerificationReport{
		DocumentID:       state.SessionID,
		GeneratedAt:      p.now(),
		Summary:          executiveSummary(state.RiskLevel, state.OverallRiskScore, state.Risks, state.ComplianceItems),
		RiskLevel:        state.RiskLevel,
		OverallRiskScore: state.OverallRiskScore,
		Sections: model.ReportSections{
			DocumentInfo:    documentInfoSection(state.DocumentMetadata, state.DocumentFile),
			RenewalDates:    renewalDatesSection(state.RenewalDates),
			Obligations:     obligationsSection(state.Obligations),
			Compliance:      complianceSection(state.ComplianceItems),
			RiskAssessment:  riskSection(state.Risks, state.RiskLevel),
			Recommendations: recommendations,
		},
	}

	logger.Info(ctx, "verification report generated", "session_id", state.SessionID)

	return Update{
		VerificationReport: report,
		Recommendations:    topRecommendations(recommendations),
		Status:             strPtr(model.StatusCompleted),
		CurrentStep:        strPtr(string(StageReport)),
		ProgressPercentage: intPtr(100),
		Messages:           []string{"Verification report generated successfully"},
	}, nil
}

// executiveSummary counts risks by severity and keys the closing
// recommendation off the risk level
func executiveSummary(riskLevel string, overallScore float64, risks []model.Risk, items []model.ComplianceItem) string {
	criticalCount := 0
	highCount := 0
	for _, r := range risks {
		switch r.Severity {
		case model.SeverityCritical:
			criticalCount++
		case model.SeverityHigh:
			highCount++
		}
	}
	nonCompliant := 0
	for _, c := range items {
		if c.Status == model.ComplianceNonCompliant {
			nonCompliant++
		}
	}

	var b strings.Builder
	b.WriteString("EXECUTIVE SUMMARY\n\n")
	fmt.Fprintf(&b, "Overall Risk Level: %s\n", strings.ToUpper(riskLevel))
	fmt.Fprintf(&b, "Risk Score: %.1f/100\n\n", overallScore)
	b.WriteString("Key Findings:\n")
	fmt.Fprintf(&b, "- %d total risk items identified\n", len(risks))
	fmt.Fprintf(&b, "- %d critical risks requiring immediate attention\n", criticalCount)
	fmt.Fprintf(&b, "- %d high-priority risks\n", highCount)
	fmt.Fprintf(&b, "- %d compliance gaps detected\n\n", nonCompliant)
	b.WriteString("Recommendation: ")

	switch riskLevel {
	case model.SeverityCritical:
		b.WriteString("IMMEDIATE ACTION REQUIRED. Address critical risks before proceeding.")
	case model.SeverityHigh:
		b.WriteString("Prompt action recommended. Address high-priority items within 7 days.")
	case model.SeverityMedium:
		b.WriteString("Monitor identified risks. Address within 30 days.")
	default:
		b.WriteString("Document is low risk. Continue normal monitoring.")
	}

	return b.String()
}

func documentInfoSection(metadata *model.DocumentMetadata, filename string) model.DocumentInfoSection {
	section := model.DocumentInfoSection{
		Filename:     filename,
		DocumentType: "Unknown",
		Parties:      []string{},
	}
	if metadata != nil {
		if metadata.DocumentType != "" {
			section.DocumentType = metadata.DocumentType
		}
		if metadata.Parties != nil {
			section.Parties = metadata.Parties
		}
		section.EffectiveDate = metadata.EffectiveDate
		section.ExpirationDate = metadata.ExpirationDate
		section.DocumentID = metadata.DocumentID
		section.Jurisdiction = metadata.Jurisdiction
	}
	return section
}

func renewalDatesSection(renewalDates []model.RenewalDate) model.RenewalDatesSection {
	sorted := make([]model.RenewalDate, len(renewalDates))
	copy(sorted, renewalDates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DaysUntil < sorted[j].DaysUntil
	})

	urgent := []model.RenewalDate{}
	upcoming := []model.RenewalDate{}
	for _, d := range sorted {
		if d.Urgency == model.SeverityCritical || d.Urgency == model.SeverityHigh {
			urgent = append(urgent, d)
		} else {
			upcoming = append(upcoming, d)
		}
	}

	return model.RenewalDatesSection{
		TotalCount:   len(renewalDates),
		Urgent:       urgent,
		Upcoming:     upcoming,
		CalendarView: sorted,
	}
}

func obligationsSection(obligations []model.Obligation) model.ObligationsSection {
	section := model.ObligationsSection{
		TotalCount: len(obligations),
		Pending:    []model.Obligation{},
		Unclear:    []model.Obligation{},
		Overdue:    []model.Obligation{},
		Met:        []model.Obligation{},
		Checklist:  obligations,
	}
	for _, o := range obligations {
		switch o.Status {
		case model.ObligationPending:
			section.Pending = append(section.Pending, o)
		case model.ObligationUnclear:
			section.Unclear = append(section.Unclear, o)
		case model.ObligationOverdue:
			section.Overdue = append(section.Overdue, o)
		case model.ObligationMet:
			section.Met = append(section.Met, o)
		}
	}
	return section
}

func complianceSection(items []model.ComplianceItem) model.ComplianceSection {
	section := model.ComplianceSection{
		TotalCount:   len(items),
		ByRegulation: make(map[string][]model.ComplianceItem),
		Gaps:         []model.ComplianceItem{},
	}
	for _, item := range items {
		switch item.Status {
		case model.ComplianceCompliant:
			section.CompliantCount++
		case model.ComplianceNonCompliant:
			section.NonCompliantCount++
			section.Gaps = append(section.Gaps, item)
		case model.CompliancePartiallyCompliant:
			section.PartiallyCompliantCount++
			section.Gaps = append(section.Gaps, item)
		case model.ComplianceUnclear:
			section.UnclearCount++
		}

		regulation := item.Regulation
		if regulation == "" {
			regulation = "Other"
		}
		section.ByRegulation[regulation] = append(section.ByRegulation[regulation], item)
	}

	if section.TotalCount > 0 {
		section.ComplianceRate = float64(section.CompliantCount) / float64(section.TotalCount) * 100
	}
	return section
}

func riskSection(risks []model.Risk, riskLevel string) model.RiskSection {
	section := model.RiskSection{
		OverallLevel: riskLevel,
		TotalRisks:   len(risks),
		ByCategory:   make(map[string][]model.Risk),
		BySeverity:   make(map[string][]model.Risk),
		RiskMatrix:   risks,
	}
	for _, r := range risks {
		category := r.Category
		if category == "" {
			category = "other"
		}
		severity := r.Severity
		if severity == "" {
			severity = model.SeverityLow
		}
		section.ByCategory[category] = append(section.ByCategory[category], r)
		section.BySeverity[severity] = append(section.BySeverity[severity], r)
	}
	section.CriticalRisks = section.BySeverity[model.SeverityCritical]
	section.HighRisks = section.BySeverity[model.SeverityHigh]
	return section
}

// buildRecommendations compiles the actionable items: every critical risk,
// the top 3 high risks, the top 3 compliance gaps, and every
// critical-urgency renewal date
func buildRecommendations(risks []model.Risk, items []model.ComplianceItem, renewalDates []model.RenewalDate) []model.ReportRecommendation {
	var recs []model.ReportRecommendation

	for _, r := range risks {
		if r.Severity == model.SeverityCritical {
			recs = append(recs, model.ReportRecommendation{
				Priority: model.SeverityCritical,
				Category: r.Category,
				Issue:    r.Description,
				Action:   r.Mitigation,
				Timeline: "Immediate (within 24 hours)",
			})
		}
	}

	highCount := 0
	for _, r := range risks {
		if r.Severity != model.SeverityHigh {
			continue
		}
		recs = append(recs, model.ReportRecommendation{
			Priority: model.SeverityHigh,
			Category: r.Category,
			Issue:    r.Description,
			Action:   r.Mitigation,
			Timeline: "Within 7 days",
		})
		highCount++
		if highCount == 3 {
			break
		}
	}

	gapCount := 0
	for _, item := range items {
		if item.Status != model.ComplianceNonCompliant {
			continue
		}
		recs = append(recs, model.ReportRecommendation{
			Priority: model.SeverityHigh,
			Category: model.RiskCategoryCompliance,
			Issue:    item.Gap,
			Action:   fmt.Sprintf("Address %s compliance requirement", item.Regulation),
			Timeline: "Within 14 days",
		})
		gapCount++
		if gapCount == 3 {
			break
		}
	}

	for _, d := range renewalDates {
		if d.Urgency != model.SeverityCritical {
			continue
		}
		recs = append(recs, model.ReportRecommendation{
			Priority: model.SeverityCritical,
			Category: model.RiskCategoryDeadline,
			Issue:    fmt.Sprintf("Deadline approaching: %s", d.Description),
			Action:   "Complete renewal process immediately",
			Timeline: fmt.Sprintf("%d days remaining", d.DaysUntil),
		})
	}

	return recs
}

// topRecommendations selects the top 5 by priority and formats them as
// "[PRIORITY] action - timeline"
func topRecommendations(recs []model.ReportRecommendation) []string {
	priorityOrder := map[string]int{
		model.SeverityCritical: 0,
		model.SeverityHigh:     1,
		model.SeverityMedium:   2,
		model.SeverityLow:      3,
	}

	sorted := make([]model.ReportRecommendation, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, ok := priorityOrder[sorted[i].Priority]
		if !ok {
			oi = 3
		}
		oj, ok := priorityOrder[sorted[j].Priority]
		if !ok {
			oj = 3
		}
		return oi < oj
	})

	var top []string
	for idx, rec := range sorted {
		if idx == 5 {
			break
		}
		top = append(top, fmt.Sprintf("[%s] %s - %s", strings.ToUpper(rec.Priority), rec.Action, rec.Timeline))
	}
	return top
}
