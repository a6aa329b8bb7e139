package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// RuleSet lists the clauses, certifications, and regulations a document
// type must carry
type RuleSet struct {
	RequiredClauses        []string
	RequiredCertifications []string
	RegulatoryRequirements []string
}

// complianceRules keys rule sets by document type. Unknown types fall back
// to the generic contract rules.
// TODO: load rule sets from the database once the rules admin UI lands.
var complianceRules = map[string]RuleSet{
	"contract": {
		RequiredClauses: []string{
			"Termination clause",
			"Confidentiality agreement",
			"Indemnification clause",
			"Dispute resolution",
		},
	},
	"license": {
		RequiredClauses: []string{
			"License scope",
			"Usage restrictions",
			"Renewal terms",
		},
		RequiredCertifications: []string{"Business license"},
		RegulatoryRequirements: []string{"State licensing requirements"},
	},
	"service_agreement": {
		RequiredClauses: []string{
			"Service Level Agreement (SLA)",
			"Data protection clause",
			"Liability limitations",
		},
		RequiredCertifications: []string{"ISO27001", "SOC2"},
		RegulatoryRequirements: []string{"GDPR compliance", "Data Processing Agreement"},
	},
}

// rulesFor selects the rule set for a document type
func rulesFor(documentType string) RuleSet {
	if rules, ok := complianceRules[documentType]; ok {
		return rules
	}
	return complianceRules["contract"]
}

// evaluateCompliance checks extracted findings against the rule set for the
// document type and flags deadline risks. All generated items are appended
// to the existing compliance list, never replacing it.
func (p *Pipeline) evaluateCompliance(ctx context.Context, state *model.VerificationState) (Update, error) {
	rules := rulesFor(state.DocumentType)

	var found []model.ComplianceItem
	found = append(found, checkRequiredClauses(rules, state.Obligations)...)
	found = append(found, checkCertifications(rules, state.ComplianceItems)...)
	found = append(found, checkRegulatoryRequirements(rules, state.ComplianceItems)...)
	found = append(found, checkDeadlineCompliance(state.RenewalDates)...)

	total := len(state.ComplianceItems) + len(found)
	compliant := 0
	nonCompliant := 0
	for _, item := range state.ComplianceItems {
		switch item.Status {
		case model.ComplianceCompliant:
			compliant++
		case model.ComplianceNonCompliant:
			nonCompliant++
		}
	}
	for _, item := range found {
		switch item.Status {
		case model.ComplianceCompliant:
			compliant++
		case model.ComplianceNonCompliant:
			nonCompliant++
		}
	}

	logger.Info(ctx, "compliance check complete",
		"session_id", state.SessionID,
		"total", total,
		"compliant", compliant,
		"non_compliant", nonCompliant,
	)

	return Update{
		ComplianceItems:    found,
		CurrentStep:        strPtr(string(StageCompliance)),
		ProgressPercentage: intPtr(60),
		Messages: []string{
			fmt.Sprintf("Verified %d compliance requirements", total),
			fmt.Sprintf("%d items compliant, %d items need attention", compliant, nonCompliant),
		},
	}, nil
}

// checkRequiredClauses passes a clause if any obligation's description
// mentions it (case-insensitive substring)
func checkRequiredClauses(rules RuleSet, obligations []model.Obligation) []model.ComplianceItem {
	var items []model.ComplianceItem
	for _, clause := range rules.RequiredClauses {
		found := false
		for _, oblig := range obligations {
			if strings.Contains(strings.ToLower(oblig.Description), strings.ToLower(clause)) {
				found = true
				break
			}
		}
		if !found {
			items = append(items, model.ComplianceItem{
				Regulation:  "Contract Standards",
				Requirement: fmt.Sprintf("Required clause: %s", clause),
				Status:      model.ComplianceNonCompliant,
				Gap:         fmt.Sprintf("Missing required clause: %s", clause),
				Severity:    model.SeverityHigh,
			})
		}
	}
	return items
}

// checkCertifications passes a certification if any existing compliance
// item's regulation mentions it
func checkCertifications(rules RuleSet, existing []model.ComplianceItem) []model.ComplianceItem {
	var items []model.ComplianceItem
	for _, cert := range rules.RequiredCertifications {
		found := false
		for _, item := range existing {
			if strings.Contains(strings.ToLower(item.Regulation), strings.ToLower(cert)) {
				found = true
				break
			}
		}
		if !found {
			items = append(items, model.ComplianceItem{
				Regulation:  cert,
				Requirement: fmt.Sprintf("%s certification required", cert),
				Status:      model.ComplianceUnclear,
				Gap:         fmt.Sprintf("No evidence of %s certification found", cert),
				Severity:    model.SeverityMedium,
			})
		}
	}
	return items
}

// checkRegulatoryRequirements passes a regulation if any existing item's
// requirement mentions it
func checkRegulatoryRequirements(rules RuleSet, existing []model.ComplianceItem) []model.ComplianceItem {
	var items []model.ComplianceItem
	for _, regulation := range rules.RegulatoryRequirements {
		found := false
		for _, item := range existing {
			if strings.Contains(strings.ToLower(item.Requirement), strings.ToLower(regulation)) {
				found = true
				break
			}
		}
		if !found {
			items = append(items, model.ComplianceItem{
				Regulation:  regulation,
				Requirement: fmt.Sprintf("Compliance with %s", regulation),
				Status:      model.ComplianceNonCompliant,
				Gap:         fmt.Sprintf("No %s compliance documented", regulation),
				Severity:    model.SeverityHigh,
			})
		}
	}
	return items
}

// checkDeadlineCompliance flags overdue and approaching renewal dates.
// Dates more than 30 days out produce no item.
func checkDeadlineCompliance(renewalDates []model.RenewalDate) []model.ComplianceItem {
	var items []model.ComplianceItem
	for _, renewal := range renewalDates {
		days := renewal.DaysUntil
		desc := renewal.Description
		if desc == "" {
			desc = "Unknown"
		}

		switch {
		case days < 0:
			items = append(items, model.ComplianceItem{
				Regulation:  "Deadline Compliance",
				Requirement: fmt.Sprintf("Meet deadline: %s", desc),
				Status:      model.ComplianceNonCompliant,
				Gap:         fmt.Sprintf("Deadline overdue by %d days", -days),
				Severity:    model.SeverityCritical,
			})
		case days <= 7:
			items = append(items, model.ComplianceItem{
				Regulation:  "Deadline Compliance",
				Requirement: fmt.Sprintf("Meet deadline: %s", desc),
				Status:      model.CompliancePartiallyCompliant,
				Gap:         fmt.Sprintf("Deadline in %d days - immediate action required", days),
				Severity:    model.SeverityCritical,
			})
		case days <= 30:
			items = append(items, model.ComplianceItem{
				Regulation:  "Deadline Compliance",
				Requirement: fmt.Sprintf("Meet deadline: %s", desc),
				Status:      model.CompliancePartiallyCompliant,
				Gap:         fmt.Sprintf("Deadline approaching in %d days", days),
				Severity:    model.SeverityHigh,
			})
		}
	}
	return items
}
