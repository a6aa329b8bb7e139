package agent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// severityBase maps severity onto the base risk score for compliance risks
var severityBase = map[string]float64{
	model.SeverityCritical: 90,
	model.SeverityHigh:     70,
	model.SeverityMedium:   50,
	model.SeverityLow:      30,
}

// topRiskWeights weight the highest-scoring risks in the overall average.
// Only the top 5 risks contribute.
var topRiskWeights = []float64{1.0, 0.7, 0.5, 0.3, 0.2}

// assessRisks generates risks from compliance gaps, deadlines, and
// obligations, computes the overall score and level, and decides whether
// human review is required.
func (p *Pipeline) assessRisks(ctx context.Context, state *model.VerificationState) (Update, error) {
	var risks []model.Risk
	risks = append(risks, complianceRisks(state.ComplianceItems)...)
	risks = append(risks, deadlineRisks(state.RenewalDates)...)
	risks = append(risks, obligationRisks(state.Obligations)...)

	overall := OverallRiskScore(risks)
	level := DetermineRiskLevel(overall)

	requiresReview := overall > p.scoreThreshold
	if !requiresReview {
		for _, r := range risks {
			if r.Severity == model.SeverityCritical {
				requiresReview = true
				break
			}
		}
	}

	var reviewItems []string
	if requiresReview {
		for _, r := range risks {
			if r.Severity == model.SeverityCritical || r.Severity == model.SeverityHigh {
				reviewItems = append(reviewItems, r.Description)
			}
		}
	}

	logger.Info(ctx, "risk assessment complete",
		"session_id", state.SessionID,
		"risk_count", len(risks),
		"risk_level", level,
		"risk_score", overall,
	)

	return Update{
		Risks:              risks,
		OverallRiskScore:   floatPtr(overall),
		RiskLevel:          strPtr(level),
		RequiresReview:     boolPtr(requiresReview),
		ReviewItems:        reviewItems,
		CurrentStep:        strPtr(string(StageRiskAssessment)),
		ProgressPercentage: intPtr(75),
		Messages: []string{
			fmt.Sprintf("Identified %d risk items", len(risks)),
			fmt.Sprintf("Overall risk level: %s", strings.ToUpper(level)),
			fmt.Sprintf("Risk score: %.1f/100", overall),
		},
	}, nil
}

// complianceRisks scores every non-compliant or partially compliant item
func complianceRisks(items []model.ComplianceItem) []model.Risk {
	var risks []model.Risk
	for idx, item := range items {
		if item.Status != model.ComplianceNonCompliant && item.Status != model.CompliancePartiallyCompliant {
			continue
		}
		severity := item.Severity
		if severity == "" {
			severity = model.SeverityMedium
		}
		gap := item.Gap
		if gap == "" {
			gap = "Compliance gap identified"
		}
		risks = append(risks, model.Risk{
			ID:          fmt.Sprintf("compliance_risk_%d", idx),
			Category:    model.RiskCategoryCompliance,
			Severity:    severity,
			Description: fmt.Sprintf("%s: %s", item.Regulation, gap),
			Mitigation:  complianceMitigation(item.Regulation),
			Score:       ComplianceRiskScore(severity, item.Status),
		})
	}
	return risks
}

// deadlineRisks flags renewal dates within 30 days
func deadlineRisks(renewalDates []model.RenewalDate) []model.Risk {
	var risks []model.Risk
	for idx, renewal := range renewalDates {
		if renewal.DaysUntil > 30 {
			continue
		}
		risks = append(risks, model.Risk{
			ID:          fmt.Sprintf("deadline_risk_%d", idx),
			Category:    model.RiskCategoryDeadline,
			Severity:    severityFromUrgency(renewal.Urgency),
			Description: fmt.Sprintf("Deadline approaching: %s in %d days", renewal.Description, renewal.DaysUntil),
			Mitigation:  deadlineMitigation(renewal.DaysUntil, renewal.Description),
			Score:       DeadlineRiskScore(renewal.DaysUntil),
		})
	}
	return risks
}

// obligationRisks flags overdue and unclear obligations
func obligationRisks(obligations []model.Obligation) []model.Risk {
	var risks []model.Risk
	for idx, oblig := range obligations {
		if oblig.Status != model.ObligationOverdue && oblig.Status != model.ObligationUnclear {
			continue
		}
		severity := model.SeverityMedium
		score := 50.0
		if oblig.Status == model.ObligationOverdue {
			severity = model.SeverityHigh
			score = 70.0
		}
		risks = append(risks, model.Risk{
			ID:          fmt.Sprintf("obligation_risk_%d", idx),
			Category:    model.RiskCategoryContractual,
			Severity:    severity,
			Description: fmt.Sprintf("Obligation %s: %s (%s)", oblig.Status, oblig.Requirement, oblig.Party),
			Mitigation:  obligationMitigation(oblig.Requirement, oblig.Party, oblig.Status),
			Score:       score,
		})
	}
	return risks
}

// ComplianceRiskScore scales the severity base by compliance status
func ComplianceRiskScore(severity, status string) float64 {
	base, ok := severityBase[severity]
	if !ok {
		base = 50
	}
	switch status {
	case model.ComplianceNonCompliant:
		return base
	case model.CompliancePartiallyCompliant:
		return base * 0.7
	default:
		return base * 0.3
	}
}

// DeadlineRiskScore maps days-until-deadline onto a risk score
func DeadlineRiskScore(daysUntil int) float64 {
	switch {
	case daysUntil < 0:
		return 100
	case daysUntil <= 7:
		return 90
	case daysUntil <= 14:
		return 75
	case daysUntil <= 30:
		return 60
	default:
		return 40
	}
}

// OverallRiskScore computes the weighted average of the top 5 risks,
// rounded to one decimal. An empty risk list scores 0.
func OverallRiskScore(risks []model.Risk) float64 {
	if len(risks) == 0 {
		return 0
	}

	sorted := make([]model.Risk, len(risks))
	copy(sorted, risks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	var weightedSum, weightTotal float64
	for idx, risk := range sorted {
		if idx >= len(topRiskWeights) {
			break
		}
		w := topRiskWeights[idx]
		weightedSum += risk.Score * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return math.Round(weightedSum/weightTotal*10) / 10
}

// DetermineRiskLevel maps a score onto a level. Boundaries are closed at
// the lower end: 76 is critical, 75 high, 26 medium, 25 low.
func DetermineRiskLevel(score float64) string {
	switch {
	case score >= 76:
		return model.SeverityCritical
	case score >= 51:
		return model.SeverityHigh
	case score >= 26:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// severityFromUrgency is an identity mapping with a medium fallback
func severityFromUrgency(urgency string) string {
	switch urgency {
	case model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
		return urgency
	default:
		return model.SeverityMedium
	}
}

func complianceMitigation(regulation string) string {
	switch regulation {
	case "GDPR":
		return "Engage data protection officer to ensure GDPR compliance. Review and update data processing agreements."
	case "ISO27001":
		return "Schedule audit with certified ISO27001 auditor. Review information security management system."
	case "SOC2":
		return "Contact SOC2 auditor to schedule Type II assessment. Review security controls."
	default:
		return fmt.Sprintf("Review %s requirements and develop compliance plan. Consult with legal team if needed.", regulation)
	}
}

func deadlineMitigation(daysUntil int, description string) string {
	switch {
	case daysUntil < 0:
		return fmt.Sprintf("URGENT: Deadline overdue. Contact relevant parties immediately to address %s.", description)
	case daysUntil <= 7:
		return fmt.Sprintf("CRITICAL: Take immediate action. Prioritize completion of %s within the next week.", description)
	case daysUntil <= 30:
		return fmt.Sprintf("HIGH PRIORITY: Schedule completion of %s within %d days. Set reminders.", description, daysUntil)
	default:
		return fmt.Sprintf("PLANNED: Schedule %s completion. Set reminder for %d days.", description, daysUntil-7)
	}
}

func obligationMitigation(requirement, party, status string) string {
	switch status {
	case model.ObligationOverdue:
		return fmt.Sprintf("Contact %s immediately regarding overdue obligation: %s. Escalate to management if needed.", party, requirement)
	case model.ObligationUnclear:
		return fmt.Sprintf("Seek clarification from legal team regarding: %s. Document interpretation for %s.", requirement, party)
	default:
		return fmt.Sprintf("Monitor %s obligation for %s. Ensure timely completion.", requirement, party)
	}
}
