package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/timeline/pkg/cache"
	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/observability"
	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/timeline"
)

const docJSON = `{
  "title": "Release",
  "config": {"scale": "hour", "start": "2024-03-05 08:00", "end": "2024-03-05 14:00"},
  "categories": [{"id": "ops"}],
  "events": [
    {"id": "deploy", "category": "ops", "start": "2024-03-05 10:00", "end": "2024-03-05 11:30"},
    {"id": "verify", "category": "ops", "start": "2024-03-05 11:00", "end": "2024-03-05 12:00"}
  ]
}`

const docYAML = `
config:
  scale: day
  start: 2024-03-01
  end: 2024-03-10
events:
  - id: trip
    start: 2024-03-03
    end: 2024-03-06
`

func newTestServer(t *testing.T, docsDir string) *Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	r := pipeline.NewRunner(c, nil, logger)
	r.Now = func() time.Time { return time.Date(2024, 3, 5, 10, 17, 0, 0, time.UTC) }
	return New(Config{Runner: r, Logger: logger, DocsDir: docsDir})
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) layout.Result {
	t.Helper()
	res, err := timeline.ReadResult(rec.Body)
	if err != nil {
		t.Fatalf("result body: %v", err)
	}
	return res
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, "").Handler()
	rec := do(t, h, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response has no request id")
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("health body = %s (%v)", rec.Body, err)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	h := newTestServer(t, "").Handler()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
	body := decodeError(t, rec)
	if rec.Code != http.StatusNotFound || body.Error.Code != "NOT_FOUND" || body.RequestID != "abc-123" {
		t.Errorf("unknown route = %d %+v", rec.Code, body)
	}
}

func TestLayout(t *testing.T) {
	h := newTestServer(t, "").Handler()

	rec := do(t, h, http.MethodPost, "/v1/layout", "application/json", docJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(CacheHeader) != "miss" {
		t.Errorf("first %s = %q, want miss", CacheHeader, rec.Header().Get(CacheHeader))
	}
	res := decodeResult(t, rec)
	if res.Scale != scale.Hour || len(res.Grid) != 7 || len(res.Placements) != 2 {
		t.Errorf("result = %s, %d grids, %d placements", res.Scale, len(res.Grid), len(res.Placements))
	}

	rec = do(t, h, http.MethodPost, "/v1/layout", "application/json", docJSON)
	if rec.Header().Get(CacheHeader) != "hit" {
		t.Errorf("second %s = %q, want hit", CacheHeader, rec.Header().Get(CacheHeader))
	}
	rec = do(t, h, http.MethodPost, "/v1/layout?refresh=true", "application/json", docJSON)
	if rec.Header().Get(CacheHeader) != "miss" {
		t.Errorf("refresh %s = %q, want miss", CacheHeader, rec.Header().Get(CacheHeader))
	}

	for _, target := range []struct{ url, contentType string }{
		{"/v1/layout", "application/yaml"},
		{"/v1/layout?format=yml", ""},
	} {
		rec := do(t, h, http.MethodPost, target.url, target.contentType, docYAML)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s (%s) status = %d: %s", target.url, target.contentType, rec.Code, rec.Body)
		}
		if res := decodeResult(t, rec); res.Scale != scale.Day || len(res.Grid) != 10 {
			t.Errorf("yaml layout = %s with %d grids", res.Scale, len(res.Grid))
		}
	}
}

func TestLayout_Errors(t *testing.T) {
	h := newTestServer(t, "").Handler()
	tests := []struct {
		name, url, body string
		status          int
		code            errors.Code
	}{
		{"bad json", "/v1/layout", `{"config":`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad format", "/v1/layout?format=xml", docJSON, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad date", "/v1/layout", strings.Replace(docJSON, "2024-03-05 10:00", "soon", 1), http.StatusBadRequest, errors.ErrCodeDate},
		{"bad scale", "/v1/layout", strings.Replace(docJSON, `"hour"`, `"fortnight"`, 1), http.StatusBadRequest, errors.ErrCodeConfig},
		{"too many grids", "/v1/layout", strings.NewReplacer(`"hour"`, `"minute"`, "2024-03-05 14:00", "2024-03-09 14:00").Replace(docJSON),
			http.StatusUnprocessableEntity, errors.ErrCodeRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.url, "application/json", tt.body)
			body := decodeError(t, rec)
			if rec.Code != tt.status || body.Error.Code != string(tt.code) {
				t.Errorf("got %d %s (%s), want %d %s", rec.Code, body.Error.Code, body.Error.Message, tt.status, tt.code)
			}
		})
	}
}

func TestZoom(t *testing.T) {
	h := newTestServer(t, "").Handler()
	body := `{"document": ` + docJSON + `, "bucket": "hour-2024/3/5 10", "wrap": true, "viewportWidth": 1200}`

	rec := do(t, h, http.MethodPost, "/v1/zoom", "application/json", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var z pipeline.ZoomResult
	if err := json.Unmarshal(rec.Body.Bytes(), &z); err != nil {
		t.Fatal(err)
	}
	if z.Target.Scale != scale.Minute || len(z.Result.Grid) != 60 || z.Document.Config.Scale != "minute" {
		t.Errorf("zoom = %s, %d grids, doc scale %q", z.Target.Scale, len(z.Result.Grid), z.Document.Config.Scale)
	}

	for _, tt := range []struct {
		body string
		code errors.Code
	}{
		{`{"bucket": "hour-2024/3/5 10"}`, errors.ErrCodeInvalidInput},
		{`{"document": ` + docJSON + `, "bucket": "nope"}`, errors.ErrCodeInvalidBucket},
		{`{"document": ` + docJSON + `, "bucket": "hour-2024/13/5 10"}`, errors.ErrCodeDate},
		{`not json`, errors.ErrCodeInvalidFormat},
	} {
		rec := do(t, h, http.MethodPost, "/v1/zoom", "application/json", tt.body)
		if got := decodeError(t, rec); rec.Code != http.StatusBadRequest || got.Error.Code != string(tt.code) {
			t.Errorf("zoom %s = %d %+v, want 400 %s", tt.body, rec.Code, got.Error, tt.code)
		}
	}
}

func TestTimelines(t *testing.T) {
	h := newTestServer(t, "").Handler()

	rec := do(t, h, http.MethodPut, "/v1/timelines/release", "application/json", docJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d: %s", rec.Code, rec.Body)
	}
	var put putResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &put); err != nil || put.ID != "release" || put.Events != 2 {
		t.Errorf("put body = %s", rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/v1/timelines/release", "", "")
	var doc timeline.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil || doc.ID != "release" || len(doc.Events) != 2 {
		t.Errorf("get body = %s", rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/v1/timelines/release/geometry", "", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("geometry before layout = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPost, "/v1/timelines/release/layout", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("relayout status = %d: %s", rec.Code, rec.Body)
	}
	res := decodeResult(t, rec)

	rec = do(t, h, http.MethodGet, "/v1/timelines/release/geometry", "", "")
	var geo []layout.Placement
	if err := json.Unmarshal(rec.Body.Bytes(), &geo); err != nil {
		t.Fatal(err)
	}
	if len(geo) != 2 || geo[0].ID != "deploy" || geo[0].Geometry != res.Placements[0].Geometry {
		t.Errorf("geometry = %+v", geo)
	}

	rec = do(t, h, http.MethodPut, "/v1/timelines/other", "application/json", strings.Replace(docJSON, `"title"`, `"id": "release", "title"`, 1))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatched id status = %d", rec.Code)
	}

	if rec := do(t, h, http.MethodDelete, "/v1/timelines/release", "", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/v1/timelines/release", "", "")
	if body := decodeError(t, rec); rec.Code != http.StatusNotFound || body.Error.Code != "NOT_FOUND" {
		t.Errorf("get deleted = %d %+v", rec.Code, body)
	}
	if rec := do(t, h, http.MethodPost, "/v1/timelines/release/layout", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("relayout deleted status = %d", rec.Code)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	doc, err := timeline.Parse([]byte(docYAML), timeline.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if err := timeline.WriteFile(doc, filepath.Join(dir, "trip.toml")); err != nil {
		t.Fatal(err)
	}
	h := newTestServer(t, dir).Handler()

	rec := do(t, h, http.MethodGet, "/v1/files/trip.toml", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if res := decodeResult(t, rec); res.Scale != scale.Day {
		t.Errorf("file layout scale = %s", res.Scale)
	}

	for _, tt := range []struct {
		url    string
		status int
		code   errors.Code
	}{
		{"/v1/files/missing.yaml", http.StatusNotFound, errors.ErrCodeFileNotFound},
		{"/v1/files/a/../../trip.toml", http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"/v1/files/trip", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
	} {
		rec := do(t, h, http.MethodGet, tt.url, "", "")
		if body := decodeError(t, rec); rec.Code != tt.status || body.Error.Code != string(tt.code) {
			t.Errorf("%s = %d %+v, want %d %s", tt.url, rec.Code, body.Error, tt.status, tt.code)
		}
	}

	noDocs := newTestServer(t, "").Handler()
	if rec := do(t, noDocs, http.MethodGet, "/v1/files/trip.toml", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("files route without docs dir = %d, want 404", rec.Code)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	h := newTestServer(t, "").Handler()
	do(t, h, http.MethodGet, "/v1/timelines/x/geometry", "", "")
	do(t, h, http.MethodGet, "/healthz", "", "")

	want := []string{"GET /v1/timelines/{id}/geometry Not Found", "GET /healthz OK"}
	if strings.Join(hooks.routes, "|") != strings.Join(want, "|") {
		t.Errorf("hook routes = %q, want %q", hooks.routes, want)
	}
}

func TestStatusOf(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeNotFound:      http.StatusNotFound,
		errors.ErrCodeFileNotFound:  http.StatusNotFound,
		errors.ErrCodeInvalidBucket: http.StatusBadRequest,
		errors.ErrCodeConfig:        http.StatusBadRequest,
		errors.ErrCodeRange:         http.StatusUnprocessableEntity,
		errors.ErrCodeOutOfRange:    http.StatusUnprocessableEntity,
		errors.ErrCodeUnsupported:   http.StatusNotImplemented,
		errors.ErrCodeInternal:      http.StatusInternalServerError,
		"":                          http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusOf(code); got != want {
			t.Errorf("statusOf(%q) = %d, want %d", code, got, want)
		}
	}
}
