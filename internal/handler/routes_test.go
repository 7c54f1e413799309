package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	p := newPortal(t, http.StatusOK, "<html>detalle</html>")
	e := p.server(t)

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"GET /health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"POST /api/rastrear-guia", http.MethodPost, "/api/rastrear-guia", echo.MIMEApplicationJSON, `{"numeroGuia":"1"}`, http.StatusOK},
		{"GET /api/rastrear-guia/:numeroGuia", http.MethodGet, "/api/rastrear-guia/1", "", "", http.StatusOK},
		{"GET /metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"GET /unknown", http.MethodGet, "/unknown", "", "", http.StatusNotFound},
		{"GET without id", http.MethodGet, "/api/rastrear-guia", "", "", http.StatusNotFound},
		{"DELETE /health", http.MethodDelete, "/health", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, tt.path, tt.contentType, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRegisterRoutes_NotFoundBody(t *testing.T) {
	p := newPortal(t, http.StatusOK, "")
	e := p.server(t)

	for _, target := range []string{"/", "/api", "/api/otra-cosa"} {
		rec := serve(e, http.MethodGet, target, "", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", target, rec.Code, http.StatusNotFound)
		}
		want := `{"error":"Endpoint no encontrado"}`
		if got := rec.Body.String(); got != want+"\n" {
			t.Errorf("%s: body = %q, want %q", target, got, want)
		}
	}
}

func TestRegisterRoutes_MetricsDisabled(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(discardLogger())
	cfg := testConfig("http://127.0.0.1:1/form", "http://127.0.0.1:1/query")
	cfg.Metrics.Enabled = false
	RegisterRoutes(e, cfg, nil, nil, NewHealthHandler("test"))

	rec := serve(e, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
