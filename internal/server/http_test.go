package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTP_Health(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health: %d %v", resp.StatusCode, body)
	}
}

func TestHTTP_UnknownPlate(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.HTTPHandler())
	defer srv.Close()

	for _, path := range []string{"/plates/nope/image", "/plates/nope/state"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: got %d, want 404", path, resp.StatusCode)
		}
	}

	// Lookups through HTTP must not create sessions.
	if n := len(s.Plates().Serials()); n != 0 {
		t.Errorf("HTTP requests created %d sessions", n)
	}
}

func TestHTTP_ImageBeforeFirstAnalysis(t *testing.T) {
	s := newTestServer(t)
	if err := s.Plates().RegisterPickImage("SN1", createPickImageFile(t)); err != nil {
		t.Fatalf("RegisterPickImage failed: %v", err)
	}

	rec := httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plates/SN1/image", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404 before any image is published", rec.Code)
	}
}

func TestHTTP_ImageAndState(t *testing.T) {
	s := newTestServer(t)
	if err := s.Plates().RegisterPickImage("SN1", createPickImageFile(t)); err != nil {
		t.Fatalf("RegisterPickImage failed: %v", err)
	}
	if _, err := s.Plates().Update(context.Background(), "SN1", map[string]string{"7": "Gizmo"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	srv := httptest.NewServer(s.HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/plates/SN1/image")
	if err != nil {
		t.Fatalf("GET image failed: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type: got %s", ct)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("body is not a JPEG: %v", err)
	}
	lastModified := resp.Header.Get("Last-Modified")
	etag := resp.Header.Get("ETag")
	if lastModified == "" || etag == "" {
		t.Fatalf("missing validators: Last-Modified=%q ETag=%q", lastModified, etag)
	}

	// Conditional requests
	for _, h := range []struct{ name, value string }{
		{"If-Modified-Since", lastModified},
		{"If-None-Match", etag},
	} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/plates/SN1/image", nil)
		req.Header.Set(h.name, h.value)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("conditional GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotModified {
			t.Errorf("%s: got %d, want 304", h.name, resp.StatusCode)
		}
	}

	resp, err = http.Get(srv.URL + "/plates/SN1/state")
	if err != nil {
		t.Fatalf("GET state failed: %v", err)
	}
	defer resp.Body.Close()

	var st PlateStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("invalid state body: %v", err)
	}
	if st.State.BBoxData != "7:Gizmo:1,1,2,2" {
		t.Errorf("bbox_data: got %q", st.State.BBoxData)
	}
	if st.ResolveState != "resolved" {
		t.Errorf("resolve_state: got %s", st.ResolveState)
	}
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health: got %d, want 405", rec.Code)
	}
}
