package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"planforge/internal/domain"
	"planforge/internal/engine"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	e := engine.New(engine.Options{Workers: 2, QueueCapacity: 8})
	handler, err := New(Config{Engine: e, BasePath: "/v1"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			e.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func analyzeBody() map[string]any {
	return map[string]any{
		"location": map[string]any{
			"address":     "12 MG Road, Bangalore",
			"coordinates": map[string]any{"lat": 12.9716, "lon": 77.5946},
		},
		"plot": map[string]any{
			"dimensions":  map[string]any{"length": 45, "width": 27, "unit": "feet"},
			"orientation": "south",
			"road_facing": "east",
		},
		"requirements": map[string]any{
			"bedrooms":    3,
			"bathrooms":   2,
			"kitchen":     1,
			"living_room": 1,
			"dining_room": 1,
			"budget":      "50L",
			"style":       "modern",
			"apply_vastu": true,
		},
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func submitJob(t *testing.T, srv *testServer) string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/design/analyze-plot", analyzeBody(), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("analyze-plot status %d: %s", res.StatusCode, string(data))
	}
	var accepted JobAccepted
	if err := json.Unmarshal(data, &accepted); err != nil {
		t.Fatalf("unmarshal accepted: %v", err)
	}
	if accepted.JobID == "" || accepted.Status != domain.JobPending {
		t.Fatalf("unexpected accept payload: %+v", accepted)
	}
	return accepted.JobID
}

func waitCompleted(t *testing.T, srv *testServer, jobID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/design/"+jobID+"/status", nil, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", res.StatusCode, string(data))
		}
		var status JobStatusResponse
		if err := json.Unmarshal(data, &status); err != nil {
			t.Fatalf("unmarshal status: %v", err)
		}
		switch status.Status {
		case domain.JobCompleted:
			return
		case domain.JobFailed:
			t.Fatalf("job failed: %s", status.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not complete in time", jobID)
}

func TestAnalyzePlotFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	jobID := submitJob(t, srv)
	waitCompleted(t, srv, jobID)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/design/"+jobID+"/result", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("result status %d: %s", res.StatusCode, string(data))
	}
	var result domain.DesignResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.DesignID == "" {
		t.Error("design_id missing")
	}
	if len(result.DesignDecisions) != 8 {
		t.Errorf("decisions = %d, want 8", len(result.DesignDecisions))
	}
	if len(result.Files) == 0 {
		t.Error("files missing")
	}
	if result.Validation.StructuralScore != 9.0 {
		t.Errorf("structural score = %v, want 9.0", result.Validation.StructuralScore)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/validation/report?job_id="+jobID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("report status %d: %s", res.StatusCode, string(data))
	}
	var report domain.ValidationReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if !report.Compliant {
		t.Errorf("report not compliant: %+v", report)
	}
}

func TestRegenerateFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	jobID := submitJob(t, srv)
	waitCompleted(t, srv, jobID)

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/design/"+jobID+"/regenerate", map[string]any{
		"requirements": map[string]any{
			"bedrooms":    2,
			"bathrooms":   1,
			"kitchen":     1,
			"living_room": 1,
			"dining_room": 1,
			"budget":      "30L",
			"style":       "minimal",
			"apply_vastu": false,
		},
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("regenerate status %d: %s", res.StatusCode, string(data))
	}
	var accepted JobAccepted
	if err := json.Unmarshal(data, &accepted); err != nil {
		t.Fatalf("unmarshal accepted: %v", err)
	}
	if accepted.JobID != jobID || accepted.Status != domain.JobPending {
		t.Fatalf("unexpected regenerate payload: %+v", accepted)
	}
	waitCompleted(t, srv, jobID)

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/design/"+jobID+"/result", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("result status %d: %s", res.StatusCode, string(data))
	}
	var result domain.DesignResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if vc, ok := result.Summary["vastu_compliance"].(float64); !ok || vc != 0 {
		t.Errorf("vastu_compliance = %v, want 0 with vastu disabled", result.Summary["vastu_compliance"])
	}
}

func TestUnknownJobReturns404(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	paths := []string{
		"/v1/design/nope/status",
		"/v1/design/nope/result",
		"/v1/validation/report?job_id=nope",
	}
	for _, p := range paths {
		res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+p, nil, nil)
		if res.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404: %s", p, res.StatusCode, string(data))
			continue
		}
		var envelope errorEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if envelope.Error.Code != "not_found" {
			t.Errorf("%s: code = %q, want not_found", p, envelope.Error.Code)
		}
	}

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/design/nope/regenerate", map[string]any{
		"requirements": analyzeBody()["requirements"],
	}, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("regenerate unknown: status %d: %s", res.StatusCode, string(data))
	}
}

func TestResultBeforeCompletionReturns409(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	jobID := submitJob(t, srv)
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/design/"+jobID+"/result", nil, nil)
	// The pipeline may already have finished; only a premature read is a conflict.
	if res.StatusCode == http.StatusOK {
		return
	}
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("result status %d, want 409: %s", res.StatusCode, string(data))
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if envelope.Error.Code != "not_ready" {
		t.Errorf("code = %q, want not_ready", envelope.Error.Code)
	}
}

func TestAnalyzePlotRejectsInvalidBody(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	body := analyzeBody()
	body["location"].(map[string]any)["coordinates"] = map[string]any{"lat": 120, "lon": 77.5946}
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/design/analyze-plot", body, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", res.StatusCode, string(data))
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if envelope.Error.Code != "bad_request" {
		t.Errorf("code = %q, want bad_request", envelope.Error.Code)
	}
}

func TestSunPath(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	url := fmt.Sprintf("%s/v1/environmental/sun-path?lat=%v&lon=%v", srv.URL, 12.9716, 77.5946)
	res, data := doJSON(t, srv.Client(), http.MethodGet, url, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var body SunPathResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Solar.PreferredExposure != "south" {
		t.Errorf("preferred_exposure = %q, want south", body.Solar.PreferredExposure)
	}
	if body.Geolocation.Timezone != "UTC+5:00" {
		t.Errorf("timezone = %q, want UTC+5:00", body.Geolocation.Timezone)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/environmental/sun-path?lat=12.9", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("missing lon: status %d, want 400", res.StatusCode)
	}
}

func TestHealthAndDocs(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	var health map[string]string
	if err := json.Unmarshal(data, &health); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/docs", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Errorf("docs status %d", res.StatusCode)
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK || !bytes.Contains(data, []byte("analyze-plot")) {
		t.Errorf("openapi status %d", res.StatusCode)
	}
}
