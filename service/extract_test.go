package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalops/docverify/backend/config"
)

func newTestExtractService(apiURL string) *ExtractService {
	return NewExtractService(&config.ExtractorConfig{
		APIURL:   apiURL,
		APIToken: "test-token",
		Seed:     "test-seed",
	})
}

func TestCreateTask(t *testing.T) {
	var gotReq ExtractTaskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract/task", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]string{"task_id": "task-123"},
		})
	}))
	defer server.Close()

	svc := newTestExtractService(server.URL)
	resp, err := svc.CreateTask(context.Background(), "https://storage/doc.pdf", "session-1")
	require.NoError(t, err)

	assert.Equal(t, "task-123", resp.Data.TaskID)
	assert.Equal(t, "https://storage/doc.pdf", gotReq.URL)
	assert.Equal(t, "session-1", gotReq.DataID)
	assert.Empty(t, gotReq.Callback)
}

func TestCreateTaskIncludesCallback(t *testing.T) {
	var gotReq ExtractTaskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]string{"task_id": "task-123"},
		})
	}))
	defer server.Close()

	svc := NewExtractService(&config.ExtractorConfig{
		APIURL:      server.URL,
		CallbackURL: "https://api.example.com/callback",
		Seed:        "test-seed",
	})

	_, err := svc.CreateTask(context.Background(), "https://storage/doc.pdf", "session-1")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/callback", gotReq.Callback)
	assert.Equal(t, "test-seed", gotReq.Seed)
}

func TestCreateTaskAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 1, "msg": "quota exceeded"})
	}))
	defer server.Close()

	svc := newTestExtractService(server.URL)
	_, err := svc.CreateTask(context.Background(), "https://storage/doc.pdf", "session-1")

	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGetTaskStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract/task/task-123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]string{
				"task_id":      "task-123",
				"state":        "done",
				"full_zip_url": "https://storage/result.zip",
			},
		})
	}))
	defer server.Close()

	svc := newTestExtractService(server.URL)
	status, err := svc.GetTaskStatus(context.Background(), "task-123")
	require.NoError(t, err)

	assert.Equal(t, "done", status.Data.State)
	assert.Equal(t, "https://storage/result.zip", status.Data.FullZipURL)
}

func TestWaitForTextCancelled(t *testing.T) {
	svc := newTestExtractService("http://unreachable.invalid")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.WaitForText(ctx, "task-123")
	assert.ErrorContains(t, err, "extraction polling cancelled")
}

func TestVerifyCallback(t *testing.T) {
	svc := newTestExtractService("http://api")

	content := `{"task_id":"task-123","state":"done"}`
	uid := "session-1"
	hash := sha256.Sum256([]byte(uid + "test-seed" + content))
	checksum := hex.EncodeToString(hash[:])

	assert.True(t, svc.VerifyCallback(checksum, content, uid))
	assert.False(t, svc.VerifyCallback(checksum, content+" ", uid))
	assert.False(t, svc.VerifyCallback(checksum, content, "session-2"))
	assert.False(t, svc.VerifyCallback("bogus", content, uid))
}

func resultArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFetchResultTextPrefersMarkdown(t *testing.T) {
	archive := resultArchive(t, map[string]string{
		"full.md":    "# Contract\n\nThis agreement...",
		"layout.txt": "plain text rendition",
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	svc := newTestExtractService("http://api")
	text, err := svc.FetchResultText(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "# Contract\n\nThis agreement...", text)
}

func TestFetchResultTextFallsBackToPlainText(t *testing.T) {
	archive := resultArchive(t, map[string]string{
		"layout.txt": "plain text rendition",
		"page1.png":  "not text",
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	svc := newTestExtractService("http://api")
	text, err := svc.FetchResultText(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "plain text rendition", text)
}

func TestFetchResultTextNoTextFile(t *testing.T) {
	archive := resultArchive(t, map[string]string{"page1.png": "not text"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	svc := newTestExtractService("http://api")
	_, err := svc.FetchResultText(context.Background(), server.URL)

	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestFetchResultTextNotAnArchive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a zip"))
	}))
	defer server.Close()

	svc := newTestExtractService("http://api")
	_, err := svc.FetchResultText(context.Background(), server.URL)

	assert.ErrorContains(t, err, "failed to open result archive")
}
