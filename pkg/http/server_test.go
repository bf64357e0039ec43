package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type routes func(e *echo.Echo)

func (r routes) RegisterRoutes(e *echo.Echo) { r(e) }

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Limit    int    `json:"limit" default:"10" validate:"lte=50"`
}

func newTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	h := routes(func(e *echo.Echo) {
		e.GET("/ok", func(c echo.Context) error { return SuccessResponse(c, map[string]string{"hello": "world"}) })
		e.GET("/panic", func(c echo.Context) error { panic("boom") })
		e.GET("/conflict", func(c echo.Context) error { return AppErrorResponse(c, ConflictError("not now")) })
		e.POST("/login", func(c echo.Context) error {
			var req loginBody
			if errs := ReadAndValidateRequest(c, &req); errs != nil {
				return BadRequestResponse(c, errs)
			}
			return SuccessResponse(c, req)
		})
	})
	s := NewServer([]Handler{h},
		WithAllowOrigins([]string{"http://dash.local"}),
		WithMetrics("/metrics", reg, reg),
	)
	return s, reg
}

func do(s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestEnvelopeAndCORS(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/ok", "", map[string]string{echo.HeaderOrigin: "http://dash.local"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Status != http.StatusOK || resp.Message != "OK" {
		t.Fatalf("unexpected envelope %+v", resp)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://dash.local" {
		t.Fatalf("unexpected allow-origin %q", got)
	}

	rec = do(s, http.MethodGet, "/ok", "", map[string]string{echo.HeaderOrigin: "http://evil.local"})
	if rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "" {
		t.Fatalf("foreign origin received CORS headers")
	}

	rec = do(s, http.MethodOptions, "/ok", "", map[string]string{echo.HeaderOrigin: "http://dash.local"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight returned %d", rec.Code)
	}
}

func TestAppErrorStatus(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/conflict", "", nil)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "ERR_CONFLICT") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecoverFromPanic(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/panic", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestReadAndValidateRequest(t *testing.T) {
	s, _ := newTestServer(t)
	js := map[string]string{echo.HeaderContentType: echo.MIMEApplicationJSON}

	rec := do(s, http.MethodPost, "/login", `{"email":"nope"}`, js)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ERR_REQUIRED") || !strings.Contains(body, `"field":"username"`) || !strings.Contains(body, "ERR_EMAIL") {
		t.Fatalf("unexpected validation errors %s", body)
	}

	rec = do(s, http.MethodPost, "/login", `{"username":"alice"}`, js)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"limit":10`) {
		t.Fatalf("defaults not applied: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(s, http.MethodPost, "/login", `{"username":`, js)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "ERR_UNKNOWN") {
		t.Fatalf("malformed body not rejected: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(s, http.MethodGet, "/ok", "", nil)

	rec := do(s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/ok",status="200"} 1`) {
		t.Fatalf("request not recorded:\n%s", rec.Body.String())
	}
}
