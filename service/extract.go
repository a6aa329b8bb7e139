package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/legalops/docverify/backend/config"
	"github.com/legalops/docverify/backend/pkg/logger"
)

// ErrUnsupportedFormat is returned for document types the extraction API
// cannot process
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrExtractionFailed is returned when the extraction API reports failure
var ErrExtractionFailed = errors.New("document extraction failed")

// ExtractService is the client for the external document-extraction API.
// It turns an uploaded PDF/DOCX (reachable via presigned URL) into raw text
// for the verification pipeline.
type ExtractService struct {
	config     *config.ExtractorConfig
	httpClient *http.Client
}

// ExtractTaskRequest creates an extraction task for a document URL
type ExtractTaskRequest struct {
	URL      string `json:"url"`
	Callback string `json:"callback,omitempty"`
	Seed     string `json:"seed,omitempty"`
	DataID   string `json:"data_id,omitempty"`
}

// ExtractTaskResponse is returned from task creation
type ExtractTaskResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

// ExtractStatusResponse is the task status query response
type ExtractStatusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TaskID     string `json:"task_id"`
		DataID     string `json:"data_id"`
		State      string `json:"state"` // pending, running, done, failed
		FullZipURL string `json:"full_zip_url,omitempty"`
		ErrorMsg   string `json:"err_msg,omitempty"`
	} `json:"data"`
}

func NewExtractService(cfg *config.ExtractorConfig) *ExtractService {
	return &ExtractService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CreateTask submits a document URL for text extraction. dataID ties the
// task back to our verification session.
func (s *ExtractService) CreateTask(ctx context.Context, documentURL, dataID string) (*ExtractTaskResponse, error) {
	reqBody := ExtractTaskRequest{
		URL:    documentURL,
		DataID: dataID,
	}
	if s.config.CallbackURL != "" {
		reqBody.Callback = s.config.CallbackURL
		reqBody.Seed = s.config.Seed
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL+"/extract/task", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result ExtractTaskResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, result.Message)
	}

	return &result, nil
}

// GetTaskStatus queries the state of an extraction task
func (s *ExtractService) GetTaskStatus(ctx context.Context, taskID string) (*ExtractStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/extract/task/%s", s.config.APIURL, taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result ExtractStatusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, result.Message)
	}

	return &result, nil
}

// WaitForText polls the task until it finishes and returns the extracted
// text. The context bounds the overall wait.
func (s *ExtractService) WaitForText(ctx context.Context, taskID string) (string, error) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("extraction polling cancelled: %w", ctx.Err())
		case <-ticker.C:
		}

		status, err := s.GetTaskStatus(ctx, taskID)
		if err != nil {
			logger.Warn(ctx, "extraction status poll failed", "task_id", taskID, "error", err)
			continue
		}

		switch status.Data.State {
		case "done":
			if status.Data.FullZipURL == "" {
				return "", fmt.Errorf("%w: no result archive", ErrExtractionFailed)
			}
			return s.FetchResultText(ctx, status.Data.FullZipURL)
		case "failed":
			return "", fmt.Errorf("%w: %s", ErrExtractionFailed, status.Data.ErrorMsg)
		}
	}
}

// VerifyCallback verifies the callback checksum: SHA256(uid + seed + content)
func (s *ExtractService) VerifyCallback(checksum, content, uid string) bool {
	data := uid + s.config.Seed + content
	hash := sha256.Sum256([]byte(data))
	return checksum == hex.EncodeToString(hash[:])
}

// FetchResultText downloads the result archive and returns the extracted
// text. The archive carries the document as markdown or plain text.
func (s *ExtractService) FetchResultText(ctx context.Context, zipURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, zipURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download result: %w", err)
	}
	defer resp.Body.Close()

	zipData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read result: %w", err)
	}

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return "", fmt.Errorf("failed to open result archive: %w", err)
	}

	// Prefer the full markdown rendition, fall back to any text file
	for _, suffix := range []string{".md", ".txt"} {
		for _, file := range zipReader.File {
			if !strings.HasSuffix(file.Name, suffix) {
				continue
			}
			rc, err := file.Open()
			if err != nil {
				continue
			}
			content, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				continue
			}
			if len(content) > 0 {
				logger.Debug(ctx, "extracted text from result archive",
					"file", file.Name,
					"bytes", len(content),
				)
				return string(content), nil
			}
		}
	}

	return "", fmt.Errorf("%w: no text file found in result archive", ErrExtractionFailed)
}
