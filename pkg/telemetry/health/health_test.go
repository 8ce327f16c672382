package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type tableCount int

func (n tableCount) Count() int { return int(n) }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{name: "no checks", want: StatusReady},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"vocabulary": TablesLoaded(tableCount(2)),
				"datastore":  Ping(pinger{}),
			},
			want: StatusReady,
		},
		{
			name: "no tables",
			checks: map[string]CheckFunc{
				"vocabulary": TablesLoaded(tableCount(0)),
				"datastore":  Ping(pinger{}),
			},
			want: StatusDegraded,
		},
		{
			name: "datastore down",
			checks: map[string]CheckFunc{
				"datastore": Ping(pinger{err: errors.New("connection refused")}),
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			got := c.CheckReadiness(context.Background())
			if got.Status != tt.want {
				t.Errorf("Status = %q, want %q (%v)", got.Status, tt.want, got.Checks)
			}
			if len(got.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(got.Checks), len(tt.checks))
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	got := c.CheckReadiness(context.Background())
	if got.Checks["slow"].Message != ErrCheckTimeout.Error() {
		t.Errorf("slow check = %+v", got.Checks["slow"])
	}
}

func TestListChecks(t *testing.T) {
	c := New(0)
	c.RegisterCheck("vocabulary", TablesLoaded(tableCount(1)))
	c.RegisterCheck("datastore", Ping(pinger{}))

	got := c.ListChecks()
	if len(got) != 2 || got[0] != "datastore" || got[1] != "vocabulary" {
		t.Errorf("ListChecks() = %v", got)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("vocabulary", TablesLoaded(tableCount(0)))

	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		want    int
	}{
		{"liveness", c.LivenessHandler(), http.MethodGet, http.StatusOK},
		{"liveness head", c.LivenessHandler(), http.MethodHead, http.StatusOK},
		{"liveness post", c.LivenessHandler(), http.MethodPost, http.StatusMethodNotAllowed},
		{"readiness degraded", c.ReadinessHandler(), http.MethodGet, http.StatusServiceUnavailable},
		{"version", VersionHandler("1.0.0", "abc123", "2026-01-01"), http.MethodGet, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(tt.method, "/", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestVersionHandler_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.0.0", "abc123", "2026-01-01")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.0.0" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("info = %+v", info)
	}
}
