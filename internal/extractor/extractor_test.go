package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_NoneDisablesExtraction(t *testing.T) {
	for _, name := range []string{"", "none", "None", "  none  "} {
		ext, err := New(Config{Backend: name})
		if err != nil {
			t.Errorf("New(%q): unexpected error %v", name, err)
		}
		if ext != nil {
			t.Errorf("New(%q): expected nil backend", name)
		}
	}
}

func TestNew_UnknownBackendListsRegistered(t *testing.T) {
	_, err := New(Config{Backend: "nonexistent"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "httpjson") {
		t.Errorf("error should list registered backends, got: %v", err)
	}
}

func TestNew_HTTPJSONNeedsEndpoint(t *testing.T) {
	if _, err := New(Config{Backend: "httpjson"}); err == nil {
		t.Error("expected error for missing endpoint")
	}
}

func TestHTTPJSON_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if in["text"] == "" {
			t.Error("request missing text field")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"principle": "repetition builds habit",
			"score":     4,
		})
	}))
	defer srv.Close()

	ext, err := New(Config{Backend: "httpjson", Endpoint: srv.URL, TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ext.Name() != "httpjson" {
		t.Errorf("Name() = %q", ext.Name())
	}

	card, err := ext.Extract(context.Background(), "some chunk text")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if card["principle"] != "repetition builds habit" {
		t.Errorf("card mis-parsed: %v", card)
	}
	if card["score"] != "4" {
		t.Errorf("non-string values must flatten, got %q", card["score"])
	}
}

func TestHTTPJSON_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ext, _ := New(Config{Backend: "httpjson", Endpoint: srv.URL})
	_, err := ext.Extract(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry the status code, got: %v", err)
	}
}

func TestHTTPJSON_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	ext, _ := New(Config{Backend: "httpjson", Endpoint: srv.URL})
	if _, err := ext.Extract(context.Background(), "text"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestHTTPJSON_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ext, _ := New(Config{Backend: "httpjson", Endpoint: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ext.Extract(ctx, "text"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
