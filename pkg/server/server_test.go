package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"htem/fanc/pkg/config"
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/policy/manager"
	"htem/fanc/pkg/server/handlers"
	"htem/fanc/pkg/server/middleware"
	"htem/fanc/pkg/telemetry/health"
	"htem/fanc/pkg/telemetry/logging"
	"htem/fanc/pkg/telemetry/metrics"
)

func testServer(t *testing.T, opts Options) *Server {
	t.Helper()

	reg := manager.NewRegistry()
	if err := reg.Replace(manager.Defaults()); err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(reg, engine.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	api, err := handlers.New(handlers.Deps{Engine: eng, Tables: reg, Logger: logging.Discard()})
	if err != nil {
		t.Fatal(err)
	}

	if opts.Health == nil {
		opts.Health = health.New(time.Second)
		opts.Health.RegisterCheck("vocabulary", health.TablesLoaded(reg))
	}
	opts.Logger = logging.Discard()
	opts.Build = BuildInfo{Version: "1.2.3", Commit: "abc123"}

	cfg := &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
	return NewServer(cfg, api, opts)
}

func TestHandler_Routes(t *testing.T) {
	h := testServer(t, Options{}).Handler()

	tests := []struct {
		method   string
		path     string
		body     string
		wantCode int
		want     string
	}{
		{method: http.MethodGet, path: "/health", wantCode: http.StatusOK, want: `"status"`},
		{method: http.MethodGet, path: "/ready", wantCode: http.StatusOK, want: `"vocabulary"`},
		{method: http.MethodGet, path: "/version", wantCode: http.StatusOK, want: `"version":"1.2.3"`},
		{method: http.MethodGet, path: "/v1/tables", wantCode: http.StatusOK, want: "neuron_information"},
		{
			method:   http.MethodPost,
			path:     "/v1/annotations/validate",
			body:     `{"table": "neuron_information", "annotation": "soma side: left"}`,
			wantCode: http.StatusOK,
			want:     `"ok":true`,
		},
		{method: http.MethodGet, path: "/v1/annotations/validate", wantCode: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/metrics", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body = %s, want %s", w.Body.String(), tt.want)
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request ID header")
			}
		})
	}
}

func TestHandler_NotReady(t *testing.T) {
	checker := health.New(time.Second)
	checker.RegisterCheck("vocabulary", health.TablesLoaded(manager.NewRegistry()))
	h := testServer(t, Options{Health: checker}).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestHandler_Metrics(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{}, nil)
	h := testServer(t, Options{Metrics: collector, MetricsPath: "/custom-metrics"}).Handler()

	body := `{"table": "neuron_information", "annotation": "primary class: banana"}`
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/annotations/validate", strings.NewReader(body)))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/custom-metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := `fanc_http_requests_total{code="200",method="POST",route="POST /v1/annotations/validate"} 1`
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("metrics missing %s:\n%s", want, w.Body.String())
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := testServer(t, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/version"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var info health.VersionInfo
	if err := json.Unmarshal(data, &info); err != nil || info.Version != "1.2.3" {
		t.Errorf("version = %s (%v)", data, err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}
	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Serve(ctx, ln2); err == nil {
		t.Error("second Serve() should fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}
