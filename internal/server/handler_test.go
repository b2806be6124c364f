package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumatcher/internal/ai"
	"resumatcher/internal/config"
	resumatcherErrors "resumatcher/internal/errors"
	"resumatcher/internal/ingest"
	"resumatcher/internal/observability"
	"resumatcher/internal/scoring"
	"resumatcher/internal/store"
	"resumatcher/internal/types"
)

var testLogger = resumatcherErrors.NewLogger(slog.LevelError)

// stubProvider is a scripted AIProvider for handler tests. Embeddings are
// keyed by input text; rewrites are returned in order.
type stubProvider struct {
	rewrites   []string
	rewriteIdx int
	embeddings map[string][]float64
	keywords   []string
	preview    json.RawMessage
}

func (p *stubProvider) RewriteResume(ctx context.Context, input types.RewriteResumeInput) (types.RewriteResumeOutput, *ai.TokenUsage, error) {
	if p.rewriteIdx >= len(p.rewrites) {
		return types.RewriteResumeOutput{}, nil, fmt.Errorf("no scripted rewrite left")
	}
	text := p.rewrites[p.rewriteIdx]
	p.rewriteIdx++
	return types.RewriteResumeOutput{UpdatedResume: text}, &ai.TokenUsage{TotalTokens: 10}, nil
}

func (p *stubProvider) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.KeywordPayload, *ai.TokenUsage, error) {
	return types.KeywordPayload{ExtractedKeywords: p.keywords}, &ai.TokenUsage{TotalTokens: 5}, nil
}

func (p *stubProvider) GeneratePreview(ctx context.Context, resumeText string) (json.RawMessage, *ai.TokenUsage, error) {
	preview := p.preview
	if preview == nil {
		preview = json.RawMessage(`{"personalData":{"name":"Stub Person"}}`)
	}
	return preview, &ai.TokenUsage{TotalTokens: 5}, nil
}

func (p *stubProvider) EmbedText(ctx context.Context, text string) ([][]float64, error) {
	vector, ok := p.embeddings[text]
	if !ok {
		return nil, fmt.Errorf("no scripted embedding for %q", text)
	}
	return [][]float64{vector}, nil
}

func (p *stubProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo { return nil }

func (p *stubProvider) Close() error { return nil }

// cosineVector returns a unit vector whose cosine against (1,0) is c.
func cosineVector(c float64) []float64 {
	return []float64{c, math.Sqrt(1 - c*c)}
}

func newTestServer(t *testing.T, apiKeys []string) (*Server, store.EntityStore, *observability.ObservabilityManager) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Improve = config.ImproveConfig{MaxAttempts: 5, LockMode: "none"}

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, cfg)
	if err != nil {
		t.Fatalf("NewObservabilityManager failed: %v", err)
	}

	memStore := store.NewMemoryStore()
	t.Cleanup(memStore.Close)

	provider := &stubProvider{
		rewrites: []string{"improved resume"},
		embeddings: map[string][]float64{
			"original resume": cosineVector(0.5),
			"python, aws":     {1, 0},
			"improved resume": cosineVector(0.7),
		},
		keywords: []string{"go", "sql"},
	}

	srv := NewServer(cfg, ServerConfig{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		APIKeys:        apiKeys,
		MaxRequestSize: 1 << 20,
	}, testLogger)

	srv.EntityStore = memStore
	srv.IngestService = ingest.NewService(memStore, provider, testLogger)
	srv.ScoringService = scoring.NewService(scoring.Deps{
		Store:    memStore,
		Rewriter: provider,
		Embedder: provider,
		Preview:  provider,
	}, cfg.Improve, testLogger)

	return srv, memStore, om
}

func seedPair(t *testing.T, s store.EntityStore, jobStatus types.ProcessingStatus) {
	t.Helper()
	ctx := context.Background()

	seed := func(kind types.EntityKind, id, content string, status types.ProcessingStatus, keywords []string) {
		if err := s.SaveSource(ctx, &types.SourceDocument{ID: id, Kind: kind, Content: content, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("SaveSource failed: %v", err)
		}
		var payload json.RawMessage
		if keywords != nil {
			raw, err := json.Marshal(types.KeywordPayload{ExtractedKeywords: keywords})
			if err != nil {
				t.Fatalf("marshal keywords: %v", err)
			}
			payload = raw
		}
		if err := s.SaveProcessed(ctx, &types.ProcessedDocument{ID: "p-" + id, SourceID: id, Kind: kind, Status: status, Keywords: payload}); err != nil {
			t.Fatalf("SaveProcessed failed: %v", err)
		}
	}

	seed(types.KindResume, "r1", "original resume", types.StatusCompleted, []string{"python", "sql"})
	var jobKeywords []string
	if jobStatus == types.StatusCompleted {
		jobKeywords = []string{"python", "aws"}
	}
	seed(types.KindJob, "j1", "job description", jobStatus, jobKeywords)
}

func postJSON(handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestIngestResumeHandler(t *testing.T) {
	srv, _, om := newTestServer(t, nil)

	rec := postJSON(srv.createIngestResumeHandler(om), "/resumes", IngestRequest{Content: "my resume text"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var doc types.ProcessedDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if doc.Status != types.StatusCompleted {
		t.Errorf("Expected completed extraction, got %q", doc.Status)
	}
	if doc.SourceID == "" {
		t.Error("Expected a source id in the response")
	}
}

func TestIngestHandlerRejectsEmptyContent(t *testing.T) {
	srv, _, om := newTestServer(t, nil)

	rec := postJSON(srv.createIngestJobHandler(om), "/jobs", IngestRequest{Content: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestImproveHandlerSuccess(t *testing.T) {
	srv, memStore, om := newTestServer(t, nil)
	seedPair(t, memStore, types.StatusCompleted)

	rec := postJSON(srv.createImproveHandler(om), "/improve", ImproveRequest{ResumeID: "r1", JobID: "j1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.ImprovementResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if math.Abs(result.OriginalScore-0.5) > 1e-9 || math.Abs(result.NewScore-0.7) > 1e-9 {
		t.Errorf("Unexpected scores: %f -> %f", result.OriginalScore, result.NewScore)
	}
	if result.UpdatedResume != "improved resume" {
		t.Errorf("Expected improved text, got %q", result.UpdatedResume)
	}
}

func TestImproveHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		request    ImproveRequest
		jobStatus  types.ProcessingStatus
		wantStatus int
		wantCode   string
	}{
		{
			name:       "MissingResume",
			request:    ImproveRequest{ResumeID: "ghost", JobID: "j1"},
			jobStatus:  types.StatusCompleted,
			wantStatus: http.StatusNotFound,
			wantCode:   resumatcherErrors.ErrCodeNotFound,
		},
		{
			name:       "UnparsedJob",
			request:    ImproveRequest{ResumeID: "r1", JobID: "j1"},
			jobStatus:  types.StatusProcessing,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   resumatcherErrors.ErrCodeNotParsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, memStore, om := newTestServer(t, nil)
			seedPair(t, memStore, tt.jobStatus)

			rec := postJSON(srv.createImproveHandler(om), "/improve", tt.request)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var errResp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if errResp.Error != tt.wantCode {
				t.Errorf("Expected error code %q, got %q", tt.wantCode, errResp.Error)
			}
		})
	}
}

func TestImproveHandlerRejectsMissingIDs(t *testing.T) {
	srv, _, om := newTestServer(t, nil)

	rec := postJSON(srv.createImproveHandler(om), "/improve", ImproveRequest{JobID: "j1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing resume id, got %d", rec.Code)
	}

	rec = postJSON(srv.createImproveHandler(om), "/improve", ImproveRequest{ResumeID: "r1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing job id, got %d", rec.Code)
	}
}

func TestImproveStreamSSEFraming(t *testing.T) {
	srv, memStore, om := newTestServer(t, nil)
	seedPair(t, memStore, types.StatusCompleted)

	rec := postJSON(srv.createImproveStreamHandler(om), "/improve/stream", ImproveRequest{ResumeID: "r1", JobID: "j1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", got)
	}

	body := rec.Body.String()
	if !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("Stream must end with a blank line, got %q", body[len(body)-8:])
	}

	// Every frame is exactly "data: <JSON>" followed by a blank line.
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	wantStages := []string{
		types.StageStarting,
		types.StageParsing,
		types.StageScoring,
		types.StageImproving,
		types.StageGenerating,
		types.StageCompleted,
	}
	if len(frames) != len(wantStages) {
		t.Fatalf("Expected %d frames, got %d: %q", len(wantStages), len(frames), body)
	}
	for i, frame := range frames {
		payload, ok := strings.CutPrefix(frame, "data: ")
		if !ok {
			t.Fatalf("Frame %d missing data prefix: %q", i, frame)
		}
		var event types.ProgressEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			t.Fatalf("Frame %d is not valid JSON: %v", i, err)
		}
		if event.Status != wantStages[i] {
			t.Errorf("Frame %d: expected stage %q, got %q", i, wantStages[i], event.Status)
		}
	}
}

func TestImproveStreamErrorEvent(t *testing.T) {
	srv, memStore, om := newTestServer(t, nil)
	seedPair(t, memStore, types.StatusProcessing)

	rec := postJSON(srv.createImproveStreamHandler(om), "/improve/stream", ImproveRequest{ResumeID: "r1", JobID: "j1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("SSE stream always starts with 200, got %d", rec.Code)
	}

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	last := frames[len(frames)-1]
	var event types.ProgressEvent
	if err := json.Unmarshal([]byte(strings.TrimPrefix(last, "data: ")), &event); err != nil {
		t.Fatalf("Failed to decode terminal frame: %v", err)
	}
	if event.Status != types.StageError {
		t.Errorf("Expected terminal error event, got %q", event.Status)
	}
	if !strings.Contains(event.Message, resumatcherErrors.ErrCodeNotParsed) {
		t.Errorf("Error event should carry the parse failure, got %q", event.Message)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _, _ := newTestServer(t, []string{"secret-key-123"})

	handler := srv.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"MissingKey", "", "", http.StatusUnauthorized},
		{"WrongKey", "X-API-Key", "wrong", http.StatusUnauthorized},
		{"ValidKey", "X-API-Key", "secret-key-123", http.StatusOK},
		{"ValidBearer", "Authorization", "Bearer secret-key-123", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/improve", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"NotFound", resumatcherErrors.NewNotFoundError("resume", "x"), http.StatusNotFound},
		{"NotParsed", resumatcherErrors.NewNotParsedError("job", "x", "pending"), http.StatusUnprocessableEntity},
		{"KeywordsMissing", resumatcherErrors.NewKeywordsMissingError("job", "x"), http.StatusUnprocessableEntity},
		{"Locked", resumatcherErrors.NewValidationError(resumatcherErrors.ErrCodeLockUnavailable, "locked", nil), http.StatusConflict},
		{"AIFailure", resumatcherErrors.NewAIError(resumatcherErrors.ErrCodeAIServiceFailed, "model down", nil), http.StatusBadGateway},
		{"Storage", resumatcherErrors.NewStorageError(resumatcherErrors.ErrCodeStorageFailed, "db down", nil), http.StatusInternalServerError},
		{"Plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}
