package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/orbitalworks/demands-service/core"
	"github.com/orbitalworks/demands-service/internal/logging"
	"github.com/orbitalworks/demands-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// scriptedEngine implements core.EngineRunner for handler tests.
type scriptedEngine struct {
	outcome core.RunOutcome
	err     error
	result  string
}

func (e *scriptedEngine) Run(_ context.Context, req core.RunRequest) (core.RunOutcome, error) {
	if e.result != "" {
		if err := os.WriteFile(req.OutputPath, []byte(e.result), 0o600); err != nil {
			return core.RunOutcome{}, err
		}
	}
	return e.outcome, e.err
}

func newTestHandler(t *testing.T, engine core.EngineRunner, timeout time.Duration) http.Handler {
	t.Helper()
	analyzer := core.NewAnalyzer(engine, logging.Noop())
	return NewServer(analyzer, timeout, logging.Noop(), nil).Handler()
}

// multipartUpload builds a multipart body with a scenario_file part and
// optional extra form values.
func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(scenarioFileField, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func postScenario(t *testing.T, handler http.Handler, path string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, "scenario.json", `{"name":"lunar sortie"}`, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return payload.Detail
}

func TestHandleRawDemands_Success(t *testing.T) {
	engine := &scriptedEngine{result: `{"demands":[]}`}
	handler := newTestHandler(t, engine, time.Second)

	rec := postScenario(t, handler, "/demands-raw", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	var analysis struct {
		Demands []json.RawMessage `json:"demands"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(analysis.Demands) != 0 {
		t.Errorf("demands = %d entries, want 0", len(analysis.Demands))
	}
}

func TestHandleAggregatedDemands_Success(t *testing.T) {
	engine := &scriptedEngine{result: `{"nodes":[],"edges":[]}`}
	handler := newTestHandler(t, engine, time.Second)

	rec := postScenario(t, handler, "/demands-agg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"nodes"`) || !strings.Contains(rec.Body.String(), `"edges"`) {
		t.Errorf("body %q missing nodes/edges keys", rec.Body.String())
	}
}

func TestHandleRawDemands_Timeout(t *testing.T) {
	engine := &scriptedEngine{outcome: core.RunOutcome{TimedOut: true}}
	handler := newTestHandler(t, engine, 2*time.Second)

	rec := postScenario(t, handler, "/demands-raw", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	detail := decodeDetail(t, rec)
	if detail != "Timeout exceeded (2 s)" {
		t.Errorf("detail = %q, want the timeout message", detail)
	}
}

func TestHandleRawDemands_EngineFailure(t *testing.T) {
	engine := &scriptedEngine{outcome: core.RunOutcome{ExitCode: 1, Output: "ERROR: missing mission segment"}}
	handler := newTestHandler(t, engine, time.Second)

	rec := postScenario(t, handler, "/demands-raw", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail != "ERROR: missing mission segment" {
		t.Errorf("detail = %q, want the engine output verbatim", detail)
	}
}

func TestHandleRawDemands_MalformedResult(t *testing.T) {
	engine := &scriptedEngine{result: `{"demands":[{"time":1.0}]}`}
	handler := newTestHandler(t, engine, time.Second)

	rec := postScenario(t, handler, "/demands-raw", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if detail := decodeDetail(t, rec); !strings.Contains(detail, "demands[0]") {
		t.Errorf("detail = %q, want a path into the malformed result", detail)
	}
}

func TestHandleRawDemands_MissingUpload(t *testing.T) {
	handler := newTestHandler(t, &scriptedEngine{}, time.Second)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField(consumeResourcesField, "true"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/demands-raw", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := decodeDetail(t, rec); !strings.Contains(detail, scenarioFileField) {
		t.Errorf("detail = %q, want mention of %s", detail, scenarioFileField)
	}
}

func TestHandleRawDemands_InvalidConsumeResources(t *testing.T) {
	handler := newTestHandler(t, &scriptedEngine{result: `{"demands":[]}`}, time.Second)

	rec := postScenario(t, handler, "/demands-raw", map[string]string{consumeResourcesField: "maybe"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := decodeDetail(t, rec); !strings.Contains(detail, "maybe") {
		t.Errorf("detail = %q, want the rejected value", detail)
	}
}

func TestHandleRawDemands_NonMultipartBody(t *testing.T) {
	handler := newTestHandler(t, &scriptedEngine{}, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/demands-raw", strings.NewReader(`{"not":"multipart"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIndexRedirectsToDocs(t *testing.T) {
	handler := newTestHandler(t, &scriptedEngine{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/docs" {
		t.Errorf("Location = %q, want /docs", loc)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t, &scriptedEngine{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("status field = %q, want ok", payload["status"])
	}
}

func TestHandlerRecordsRouteLabeledMetrics(t *testing.T) {
	collector, err := observability.NewAPICollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewAPICollector returned error: %v", err)
	}
	analyzer := core.NewAnalyzer(&scriptedEngine{}, logging.Noop())
	handler := NewServer(analyzer, time.Second, logging.Noop(), collector).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// The mux fills in the matched pattern on the request it serves; the
	// counter must carry that pattern even with the request-ID middleware
	// in the chain.
	if got := requestCount(t, collector, "GET /healthz", "GET", "200"); got != 1 {
		t.Errorf("route-labeled count = %v, want 1", got)
	}
	if got := requestCount(t, collector, "unmatched", "GET", "200"); got != 0 {
		t.Errorf("unmatched count = %v, want 0", got)
	}
}

func requestCount(t *testing.T, collector *observability.APICollector, route, method, code string) float64 {
	t.Helper()
	counter, err := collector.HTTPRequests.GetMetricWithLabelValues(route, method, code)
	if err != nil {
		t.Fatalf("get metric: %v", err)
	}
	var m dto.Metric
	if err := counter.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRequestIDEchoed(t *testing.T) {
	handler := newTestHandler(t, &scriptedEngine{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) == "" {
		t.Errorf("expected a generated %s header", requestIDHeader)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-1234")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "req-1234" {
		t.Errorf("%s = %q, want the caller-supplied value echoed", requestIDHeader, got)
	}
}
