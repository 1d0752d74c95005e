package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func statusCheck(status Status) func(ctx context.Context) CheckResult {
	return func(ctx context.Context) CheckResult {
		return CheckResult{Status: status, Message: string(status)}
	}
}

func TestNewChecker(t *testing.T) {
	checker := NewChecker("parser", statusCheck(StatusHealthy))

	if checker.Name() != "parser" {
		t.Errorf("Name() = %v, want parser", checker.Name())
	}
	if result := checker.Check(context.Background()); result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
}

func TestRegistry_Check(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Status
		want   Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", map[string]Status{"parser": StatusHealthy, "history": StatusHealthy}, StatusHealthy},
		{"one degraded", map[string]Status{"parser": StatusHealthy, "history": StatusDegraded}, StatusDegraded},
		{"empty status counts as degraded", map[string]Status{"parser": ""}, StatusDegraded},
		{"unhealthy wins", map[string]Status{"parser": StatusUnhealthy, "history": StatusDegraded}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry("kaleido", "0.2.0")
			for name, status := range tt.checks {
				registry.RegisterFunc(name, statusCheck(status))
			}

			report := registry.Check(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("got %d checks, want %d", len(report.Checks), len(tt.checks))
			}
		})
	}
}

func TestRegistry_ChecksSortedAndNamed(t *testing.T) {
	registry := NewRegistry("kaleido", "0.2.0")
	registry.RegisterFunc("zeta", statusCheck(StatusHealthy))
	registry.RegisterFunc("alpha", func(ctx context.Context) CheckResult {
		time.Sleep(5 * time.Millisecond)
		return CheckResult{Status: StatusHealthy}
	})

	report := registry.Check(context.Background())
	if report.Checks[0].Name != "alpha" || report.Checks[1].Name != "zeta" {
		t.Errorf("checks not sorted by name: %s, %s", report.Checks[0].Name, report.Checks[1].Name)
	}
	if report.Checks[0].Duration < 5*time.Millisecond {
		t.Errorf("Duration = %v, want at least 5ms", report.Checks[0].Duration)
	}
	if report.Checks[0].Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	registry := NewRegistry("kaleido", "0.2.0")
	registry.RegisterFunc("parser", statusCheck(StatusUnhealthy))
	registry.RegisterFunc("parser", statusCheck(StatusHealthy))

	report := registry.Check(context.Background())
	if len(report.Checks) != 1 || report.Status != StatusHealthy {
		t.Errorf("unexpected report: %s", report)
	}
}

func TestRegistry_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		status     Status
		wantStatus int
	}{
		{"healthy", http.MethodGet, StatusHealthy, http.StatusOK},
		{"degraded still serves", http.MethodGet, StatusDegraded, http.StatusOK},
		{"unhealthy", http.MethodGet, StatusUnhealthy, http.StatusServiceUnavailable},
		{"wrong method", http.MethodPost, StatusHealthy, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry("kaleido", "0.2.0")
			registry.RegisterFunc("parser", statusCheck(tt.status))

			rec := httptest.NewRecorder()
			registry.ServeHTTP(rec, httptest.NewRequest(tt.method, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.method != http.MethodGet {
				return
			}

			var report struct {
				Service string `json:"service"`
				Status  Status `json:"status"`
				Checks  []struct {
					Name       string   `json:"name"`
					DurationMS *float64 `json:"duration_ms"`
				} `json:"checks"`
			}
			if err := json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Service != "kaleido" || report.Status != tt.status {
				t.Errorf("unexpected report: %+v", report)
			}
			if len(report.Checks) != 1 || report.Checks[0].Name != "parser" || report.Checks[0].DurationMS == nil {
				t.Errorf("unexpected checks: %+v", report.Checks)
			}
		})
	}
}
