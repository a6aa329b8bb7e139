package agent

import (
	"context"
	"fmt"

	"github.com/legalops/docverify/backend/model"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// ingest validates the already-extracted text and seeds document metadata.
// Binary formats are handled upstream by the document extractor; by the
// time the pipeline runs, raw text is present on the state.
func (p *Pipeline) ingest(ctx context.Context, state *model.VerificationState) (Update, error) {
	if state.RawText == "" {
		return Update{}, ErrEmptyDocument
	}

	logger.Info(ctx, "document ingested",
		"session_id", state.SessionID,
		"text_length", len(state.RawText),
	)

	return Update{
		DocumentMetadata: &model.DocumentMetadata{
			DocumentType: "unknown",
			Parties:      []string{},
		},
		CurrentStep:        strPtr(string(StageIngestion)),
		ProgressPercentage: intPtr(15),
		Messages:           []string{"Document ingested successfully"},
	}, nil
}

// classify identifies the document type and parses the section structure.
// Classification is delegated to the semantic extractor; the placeholder
// implementation always answers "contract".
func (p *Pipeline) classify(ctx context.Context, state *model.VerificationState) (Update, error) {
	docType, err := p.extractor.Classify(ctx, state.RawText)
	if err != nil {
		return Update{}, fmt.Errorf("classify document: %w", err)
	}

	sections := []model.Section{
		{SectionName: "Parties", Content: "Party A and Party B", Page: 1},
		{SectionName: "Terms", Content: "Terms of the agreement...", Page: 2},
	}
	parties := []string{"Party A", "Party B"}

	logger.Info(ctx, "document classified",
		"session_id", state.SessionID,
		"document_type", docType,
	)

	return Update{
		DocumentType:   strPtr(docType),
		ParsedSections: sections,
		DocumentMetadata: &model.DocumentMetadata{
			DocumentType: docType,
			Parties:      parties,
		},
		CurrentStep:        strPtr(string(StageClassification)),
		ProgressPercentage: intPtr(30),
		Messages:           []string{fmt.Sprintf("Document classified as %s", docType)},
	}, nil
}
