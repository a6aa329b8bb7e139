package model

import (
	"time"
)

// Status constants for a verification session
const (
	StatusProcessing     = "processing"
	StatusReviewRequired = "review_required"
	StatusCompleted      = "completed"
	StatusError          = "error"
)

// Severity / urgency levels, ordered from most to least severe
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Obligation status values
const (
	ObligationPending = "pending"
	ObligationMet     = "met"
	ObligationOverdue = "overdue"
	ObligationUnclear = "unclear"
)

// Compliance status values
const (
	ComplianceCompliant          = "compliant"
	ComplianceNonCompliant       = "non_compliant"
	CompliancePartiallyCompliant = "partially_compliant"
	ComplianceUnclear            = "unclear"
)

// Risk categories
const (
	RiskCategoryDeadline     = "deadline"
	RiskCategoryCompliance   = "compliance"
	RiskCategoryContractual  = "contractual"
	RiskCategoryFinancial    = "financial"
	RiskCategoryReputational = "reputational"
)

// Human feedback actions
const (
	FeedbackApproved = "approved"
	FeedbackRevised  = "revised"
	FeedbackRejected = "rejected"
)

// RenewalDate is a deadline extracted from the document
type RenewalDate struct {
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
	DaysUntil       int       `json:"days_until"`
	Urgency         string    `json:"urgency"` // critical, high, medium, low
	ClauseReference string    `json:"clause_reference,omitempty"`
}

// Obligation is a contractual commitment found in the document
type Obligation struct {
	ClauseID    string     `json:"clause_id"`
	Requirement string     `json:"requirement"`
	Party       string     `json:"party"`
	Status      string     `json:"status"` // pending, met, overdue, unclear
	Deadline    *time.Time `json:"deadline,omitempty"`
	Description string     `json:"description"`
}

// ComplianceItem is a regulatory or contractual requirement check result
type ComplianceItem struct {
	Regulation  string `json:"regulation"`
	Requirement string `json:"requirement"`
	Status      string `json:"status"` // compliant, non_compliant, partially_compliant, unclear
	Gap         string `json:"gap,omitempty"`
	Severity    string `json:"severity"` // critical, high, medium, low
}

// Risk is a scored finding produced by risk assessment
type Risk struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"` // deadline, compliance, contractual, financial, reputational
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Mitigation  string  `json:"mitigation"`
	Score       float64 `json:"score"` // 0-100
}

// DocumentMetadata holds structural metadata about the document
type DocumentMetadata struct {
	DocumentType   string     `json:"document_type"`
	Parties        []string   `json:"parties"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	DocumentID     string     `json:"document_id,omitempty"`
	Jurisdiction   string     `json:"jurisdiction,omitempty"`
}

// Section is a parsed document section
type Section struct {
	SectionName string `json:"section_name"`
	Content     string `json:"content"`
	Page        int    `json:"page"`
}

// RiskPatch modifies a risk matched by ID during human review
type RiskPatch struct {
	ID          string  `json:"id"`
	Severity    *string `json:"severity,omitempty"`
	Description *string `json:"description,omitempty"`
	Mitigation  *string `json:"mitigation,omitempty"`
}

// CompliancePatch modifies a compliance item matched by positional index
type CompliancePatch struct {
	Index  int     `json:"index"`
	Status *string `json:"status,omitempty"`
	Gap    *string `json:"gap,omitempty"`
}

// ObligationPatch modifies an obligation matched by clause ID
type ObligationPatch struct {
	ClauseID    string  `json:"clause_id"`
	Status      *string `json:"status,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Modifications carries the targeted changes a reviewer requested
type Modifications struct {
	Risks           []RiskPatch       `json:"risks,omitempty"`
	ComplianceItems []CompliancePatch `json:"compliance_items,omitempty"`
	Obligations     []ObligationPatch `json:"obligations,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// HumanFeedback is the reviewer's decision during the review gate
type HumanFeedback struct {
	Timestamp     time.Time      `json:"timestamp"`
	Action        string         `json:"action"` // approved, revised, rejected
	Comments      string         `json:"comments,omitempty"`
	Modifications *Modifications `json:"modifications,omitempty"`
}

// VerificationReport is the final report, produced once per completed session
type VerificationReport struct {
	DocumentID       string         `json:"document_id"`
	GeneratedAt      time.Time      `json:"generated_at"`
	Summary          string         `json:"summary"`
	RiskLevel        string         `json:"risk_level"`
	OverallRiskScore float64        `json:"overall_risk_score"`
	Sections         ReportSections `json:"sections"`
}

// ReportSections holds the named sub-reports
type ReportSections struct {
	DocumentInfo    DocumentInfoSection    `json:"document_info"`
	RenewalDates    RenewalDatesSection    `json:"renewal_dates"`
	Obligations     ObligationsSection     `json:"obligations"`
	Compliance      ComplianceSection      `json:"compliance"`
	RiskAssessment  RiskSection            `json:"risk_assessment"`
	Recommendations []ReportRecommendation `json:"recommendations"`
}

// DocumentInfoSection passes document metadata through to the report
type DocumentInfoSection struct {
	Filename       string     `json:"filename"`
	DocumentType   string     `json:"document_type"`
	Parties        []string   `json:"parties"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	DocumentID     string     `json:"document_id,omitempty"`
	Jurisdiction   string     `json:"jurisdiction,omitempty"`
}

// RenewalDatesSection splits deadlines into urgent and upcoming
type RenewalDatesSection struct {
	TotalCount   int           `json:"total_count"`
	Urgent       []RenewalDate `json:"urgent"`
	Upcoming     []RenewalDate `json:"upcoming"`
	CalendarView []RenewalDate `json:"calendar_view"`
}

// ObligationsSection buckets obligations by status
type ObligationsSection struct {
	TotalCount int          `json:"total_count"`
	Pending    []Obligation `json:"pending"`
	Unclear    []Obligation `json:"unclear"`
	Overdue    []Obligation `json:"overdue"`
	Met        []Obligation `json:"met"`
	Checklist  []Obligation `json:"checklist"`
}

// ComplianceSection summarizes compliance results
type ComplianceSection struct {
	TotalCount              int                         `json:"total_count"`
	CompliantCount          int                         `json:"compliant_count"`
	NonCompliantCount       int                         `json:"non_compliant_count"`
	PartiallyCompliantCount int                         `json:"partially_compliant_count"`
	UnclearCount            int                         `json:"unclear_count"`
	ComplianceRate          float64                     `json:"compliance_rate"`
	ByRegulation            map[string][]ComplianceItem `json:"by_regulation"`
	Gaps                    []ComplianceItem            `json:"gaps"`
}

// RiskSection groups risks by category and severity
type RiskSection struct {
	OverallLevel  string            `json:"overall_level"`
	TotalRisks    int               `json:"total_risks"`
	ByCategory    map[string][]Risk `json:"by_category"`
	BySeverity    map[string][]Risk `json:"by_severity"`
	CriticalRisks []Risk            `json:"critical_risks"`
	HighRisks     []Risk            `json:"high_risks"`
	RiskMatrix    []Risk            `json:"risk_matrix"`
}

// ReportRecommendation is one actionable item in the report
type ReportRecommendation struct {
	Priority string `json:"priority"`
	Category string `json:"category"`
	Issue    string `json:"issue"`
	Action   string `json:"action"`
	Timeline string `json:"timeline"`
}

// VerificationState is the full session record threaded through the pipeline.
// It is exclusively owned by one session; only the pipeline mutates it.
type VerificationState struct {
	// Input
	DocumentFile string `json:"document_file,omitempty"`
	DocumentType string `json:"document_type"`
	UserID       string `json:"user_id,omitempty"`
	SessionID    string `json:"session_id"`
	Tenant       string `json:"tenant,omitempty"`

	// Document processing
	RawText          string            `json:"raw_text,omitempty"`
	ParsedSections   []Section         `json:"parsed_sections,omitempty"`
	DocumentMetadata *DocumentMetadata `json:"document_metadata,omitempty"`

	// Extraction results
	RenewalDates    []RenewalDate    `json:"renewal_dates,omitempty"`
	Obligations     []Obligation     `json:"obligations,omitempty"`
	ComplianceItems []ComplianceItem `json:"compliance_items,omitempty"`

	// Risk assessment
	Risks            []Risk  `json:"risks,omitempty"`
	OverallRiskScore float64 `json:"overall_risk_score"`
	RiskLevel        string  `json:"risk_level,omitempty"`

	// Human-in-the-loop
	HumanFeedback  *HumanFeedback `json:"human_feedback,omitempty"`
	RequiresReview bool           `json:"requires_review"`
	ReviewItems    []string       `json:"review_items,omitempty"`

	// Progress
	CurrentStep        string   `json:"current_step"`
	ProgressPercentage int      `json:"progress_percentage"`
	Messages           []string `json:"messages,omitempty"`

	// Output
	VerificationReport *VerificationReport `json:"verification_report,omitempty"`
	Recommendations    []string            `json:"recommendations,omitempty"`

	// Status
	Status       string `json:"status"` // processing, review_required, completed, error
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the session can no longer advance
func (s *VerificationState) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}
