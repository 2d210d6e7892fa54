package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestWriteErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorDetail(rec, http.StatusBadRequest, "invalid mode", "unknown bucket mode")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error != "invalid mode" || body.Detail != "unknown bucket mode" {
		t.Errorf("body = %+v", body)
	}

	rec = httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "session not found")
	if strings.Contains(rec.Body.String(), "detail") {
		t.Errorf("WriteError body %q should omit detail", rec.Body.String())
	}
}

func TestQueryFloat(t *testing.T) {
	tests := []struct {
		query  string
		want   float64
		wantOK bool
	}{
		{"t=1.25", 1.25, true},
		{"t=0", 0, true},
		{"t=-3", -3, true},
		{"t=1e2", 100, true},
		{"t=", 0, false},
		{"", 0, false},
		{"t=abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/?"+tt.query, nil)
			got, ok := QueryFloat(req, "t")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("QueryFloat(%q) = (%v, %v), want (%v, %v)", tt.query, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?n=7&bad=x", nil)
	if n, ok := QueryInt(req, "n"); n != 7 || !ok {
		t.Errorf("QueryInt(n) = (%d, %v), want (7, true)", n, ok)
	}
	if _, ok := QueryInt(req, "bad"); ok {
		t.Error("QueryInt(bad) should fail")
	}
	if _, ok := QueryInt(req, "missing"); ok {
		t.Error("QueryInt(missing) should fail")
	}
}

func TestPathInt(t *testing.T) {
	withParam := func(v string) *http.Request {
		req := httptest.NewRequest("GET", "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("index", v)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	if n, err := PathInt(withParam("3"), "index"); err != nil || n != 3 {
		t.Errorf("PathInt(3) = (%d, %v)", n, err)
	}
	if _, err := PathInt(withParam("three"), "index"); err == nil {
		t.Error("PathInt(three) should fail")
	}
	if _, err := PathInt(withParam(""), "index"); err == nil {
		t.Error("PathInt(empty) should fail")
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Mode string `json:"mode"`
	}
	req := httptest.NewRequest("PUT", "/", strings.NewReader(`{"mode":"static"}`))
	if err := DecodeJSON(req, &v); err != nil || v.Mode != "static" {
		t.Errorf("DecodeJSON = %v, mode %q", err, v.Mode)
	}

	req = httptest.NewRequest("PUT", "/", nil)
	if err := DecodeJSON(req, &v); err == nil {
		t.Error("DecodeJSON with no body should fail")
	}

	req = httptest.NewRequest("PUT", "/", strings.NewReader(`{`))
	if err := DecodeJSON(req, &v); err == nil {
		t.Error("DecodeJSON with truncated body should fail")
	}
}
