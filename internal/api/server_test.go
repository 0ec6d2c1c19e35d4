package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cmatc13/tender/internal/processor"
	"github.com/cmatc13/tender/pkg/config"
	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/health"
	"github.com/cmatc13/tender/pkg/logging"
	"github.com/cmatc13/tender/pkg/metrics"
	"github.com/cmatc13/tender/pkg/service"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Port:               "0",
			CORSAllowedOrigins: []string{"https://shop.example"},
			RateLimit:          100,
			RateWindow:         time.Minute,
		},
		Auth: config.AuthConfig{JWTSecret: testSecret},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *metrics.Metrics) {
	t.Helper()
	logger := logging.Discard()
	m := metrics.New(metrics.DefaultConfig())
	proc := processor.New(logger, m, nil)

	hr := health.NewRegistry(logger)
	hr.Register("payment-processor", health.ServiceChecker("payment-processor", proc.Ping))

	return NewServer(cfg, proc, logger, m, hr), m
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	_, token, err := jwtauth.New("HS256", []byte(testSecret), nil).Encode(map[string]interface{}{"role": role})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestProcessPaymentEndpoint(t *testing.T) {
	s, m := newTestServer(t, testConfig())

	rec, resp := do(t, s.Handler(), http.MethodPost, "/v1/payments",
		`{"method":"credit_card","identifier":"1234567898765432","amount":100}`, "")

	if rec.Code != http.StatusCreated || !resp.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	if data["total"] != "102" || data["status"] != "PROCESSED" {
		t.Fatalf("data = %v", data)
	}
	if got := testutil.ToFloat64(m.RequestCount.WithLabelValues("api", "POST", "/v1/payments", "Created")); got != 1 {
		t.Fatalf("request metric = %v", got)
	}
}

func TestProcessPaymentRejected(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec, resp := do(t, s.Handler(), http.MethodPost, "/v1/payments",
		`{"method":"paypal","identifier":"bad-email","amount":150}`, "")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Success || resp.Code != errors.PaymentErrInvalidEmail || !strings.Contains(resp.Error, "bad-email") {
		t.Fatalf("resp = %+v", resp)
	}
	if data, ok := resp.Data.(map[string]interface{}); !ok || data["status"] != "REJECTED" {
		t.Fatalf("data = %v", resp.Data)
	}
}

func TestProcessPaymentBadRequests(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed", `{"method":`, errors.APIErrBadRequest},
		{"unknown field", `{"method":"paypal","cvv":"123"}`, errors.APIErrBadRequest},
		{"unknown method", `{"method":"cash","identifier":"x","amount":1}`, errors.PaymentErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, s.Handler(), http.MethodPost, "/v1/payments", tt.body, "")
			if rec.Code != http.StatusBadRequest || resp.Code != tt.code || resp.Data != nil {
				t.Fatalf("status = %d, resp = %+v", rec.Code, resp)
			}
		})
	}
}

func TestRefundRequiresAdmin(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	body := `{"method":"bank_transfer","identifier":"123456789","amount":200}`

	rec, resp := do(t, s.Handler(), http.MethodPost, "/v1/refunds", body, "")
	if rec.Code != http.StatusUnauthorized || resp.Code != errors.APIErrUnauthorized {
		t.Fatalf("no token: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	_, forged, err := jwtauth.New("HS256", []byte("other-secret"), nil).Encode(map[string]interface{}{"role": "admin"})
	if err != nil {
		t.Fatal(err)
	}
	rec, resp = do(t, s.Handler(), http.MethodPost, "/v1/refunds", body, forged)
	if rec.Code != http.StatusUnauthorized || resp.Code != errors.APIErrUnauthorized {
		t.Fatalf("forged token: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec, resp = do(t, s.Handler(), http.MethodPost, "/v1/refunds", body, adminToken(t, "user"))
	if rec.Code != http.StatusForbidden || resp.Code != errors.APIErrForbidden {
		t.Fatalf("user token: status = %d, resp = %+v", rec.Code, resp)
	}

	rec, resp = do(t, s.Handler(), http.MethodPost, "/v1/refunds", body, adminToken(t, "admin"))
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("admin token: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if data := resp.Data.(map[string]interface{}); data["status"] != "REFUNDED" || data["total"] != "200" {
		t.Fatalf("data = %v", data)
	}
}

func TestRefundDisabledWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	s, _ := newTestServer(t, cfg)

	rec, _ := do(t, s.Handler(), http.MethodPost, "/v1/refunds", `{}`, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.API.RateLimit = 2
	s, _ := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec, _ := do(t, s.Handler(), http.MethodGet, "/health", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec, resp := do(t, s.Handler(), http.MethodPost, "/v1/payments",
		`{"method":"paypal","identifier":"a@b","amount":1}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	if resp.Success || resp.Code != errors.APIErrRateLimitExceeded {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/v1/payments", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec, _ := do(t, s.Handler(), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"UP"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}

	do(t, s.Handler(), http.MethodPost, "/v1/payments", `{"method":"paypal","identifier":"a@b","amount":1}`, "")
	rec, _ = do(t, s.Handler(), http.MethodGet, "/metrics", "", "")
	if !strings.Contains(rec.Body.String(), `tender_payment_total{method="paypal",status="PROCESSED"} 1`) {
		t.Fatalf("metrics output missing payment counter:\n%s", rec.Body.String())
	}
}

func TestRecovererWithMetrics(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig())
	h := RecovererWithMetrics(logging.Discard(), m, "api")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := testutil.ToFloat64(m.ErrorCount.WithLabelValues("api", "panic", "PANIC")); got != 1 {
		t.Fatalf("panic metric = %v", got)
	}
}

func TestAPIServiceLifecycle(t *testing.T) {
	cfg := testConfig()
	logger := logging.Discard()
	m := metrics.New(metrics.DefaultConfig())
	svc := NewAPIService(cfg, processor.New(logger, m, nil), logger, m, health.NewRegistry(logger))

	if svc.Health() == nil {
		t.Fatal("stopped service reported healthy")
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get("http://" + svc.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if svc.Status() != service.StatusStopped {
		t.Fatalf("status = %s", svc.Status())
	}
}

func TestStartAllFailsWhenPortIsTaken(t *testing.T) {
	held, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer held.Close()

	cfg := testConfig()
	cfg.API.Port = strconv.Itoa(held.Addr().(*net.TCPAddr).Port)

	logger := logging.Discard()
	m := metrics.New(metrics.DefaultConfig())
	proc := processor.New(logger, m, nil)

	registry := service.NewRegistry(logger)
	if err := registry.Register(processor.NewProcessorService(proc)); err != nil {
		t.Fatal(err)
	}
	svc := NewAPIService(cfg, proc, logger, m, health.NewRegistry(logger))
	if err := registry.Register(svc); err != nil {
		t.Fatal(err)
	}

	if err := registry.StartAll(context.Background()); err == nil {
		t.Fatal("StartAll() succeeded on a busy port")
	}
	if svc.Status() != service.StatusError {
		t.Fatalf("status = %s, want ERROR", svc.Status())
	}
	_ = registry.StopAll(context.Background())
}
