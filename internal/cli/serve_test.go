package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/crosssection/pkg/cache"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/observability"
	"github.com/matzehuels/crosssection/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	reg := prometheus.NewRegistry()
	metrics := observability.NewPrometheus(reg)
	observability.SetHTTPHooks(metrics)
	observability.SetPipelineHooks(metrics)
	t.Cleanup(observability.Reset)

	runner := pipeline.NewRunner(cache.NewMemoryCache(16), nil, logger)
	srv := httptest.NewServer(newServer(runner, logger, reg, 1<<16).routes())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestServeRender(t *testing.T) {
	srv := newTestServer(t)
	body := `{"document":` + sampleChart + `,"options":{"donut":true}}`

	resp := post(t, srv.URL+"/render?format=svg", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if got := resp.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("X-Cache = %q, want miss", got)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("body is not an SVG document")
	}

	resp = post(t, srv.URL+"/render?format=svg", body)
	if got := resp.Header.Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
}

func TestServeLayout(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/layout", `{"document":`+sampleChart+`}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte(`"outer_radius": 190`)) {
		t.Errorf("layout body does not contain outer radius 190: %s", data)
	}
}

func TestServeErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed body", "/render", `{"document":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing document", "/render", `{"options":{}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", "/render", `{"document":` + sampleChart + `,"colour":"red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad format", "/render?format=gif", `{"document":` + sampleChart + `}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad style", "/render", `{"document":` + sampleChart + `,"options":{"style":"sketch"}}`, http.StatusBadRequest, "INVALID_STYLE"},
		{"negative width", "/layout", `{"document":` + sampleChart + `,"options":{"width":-1}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad document", "/layout", `{"document":{"size":3}}`, http.StatusBadRequest, "INVALID_DOCUMENT"},
		{"all zeros", "/render", `{"document":{"name":"root","size":0}}`, http.StatusUnprocessableEntity, "ALL_ZEROS"},
		{"empty chart list", "/render", `{"document":{"charts":[]}}`, http.StatusUnprocessableEntity, "ALL_ZEROS"},
		{"empty chart list layout", "/layout", `{"document":{"charts":[]}}`, http.StatusUnprocessableEntity, "ALL_ZEROS"},
		{"small surface", "/layout", `{"document":` + sampleChart + `,"options":{"width":10,"height":400}}`, http.StatusUnprocessableEntity, "CONTAINER_TOO_SMALL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if e := decodeError(t, resp); e.Code != tt.wantCode {
				t.Errorf("code = %q (%s), want %q", e.Code, e.Message, tt.wantCode)
			}
		})
	}
}

func TestServeMetrics(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv.URL+"/layout", `{"document":`+sampleChart+`}`)
	post(t, srv.URL+"/render", `{"document":{"name":"root","size":0}}`)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`crosssection_http_requests_total{method="POST",route="/layout",status="200"} 1`,
		`crosssection_rejected_total{code="ALL_ZEROS"} 1`,
	} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_DOCUMENT", http.StatusBadRequest},
		{"DEGENERATE_SUBTREE", http.StatusUnprocessableEntity},
		{"FILE_NOT_FOUND", http.StatusNotFound},
		{"UNSUPPORTED", http.StatusNotImplemented},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := httpStatus(errors.Code(tt.code)); got != tt.want {
			t.Errorf("httpStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
