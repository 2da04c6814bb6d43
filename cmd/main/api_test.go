package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rodriguezmDNA/sonnetGenText/pkg/sonnet"
)

func setupTestServer(t *testing.T, emission string, opts ...sonnet.GeneratorOption) *Server {
	t.Helper()
	e, err := sonnet.ReadTable(strings.NewReader(emission))
	if err != nil {
		t.Fatalf("ReadTable(emission) error = %v", err)
	}
	tr, err := sonnet.ReadTable(strings.NewReader(testTransitions))
	if err != nil {
		t.Fatalf("ReadTable(transitions) error = %v", err)
	}
	words, err := sonnet.ReadWordDistributions(strings.NewReader(testWords))
	if err != nil {
		t.Fatalf("ReadWordDistributions() error = %v", err)
	}
	tables, err := sonnet.NewTables(&sonnet.RawTables{Emission: e, Transitions: tr, Words: words}, sonnet.DefaultStateNames())
	if err != nil {
		t.Fatalf("NewTables() error = %v", err)
	}
	gen, err := sonnet.NewGenerator(tables, opts...)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return NewServer(gen, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestHandleQuote(t *testing.T) {
	s := setupTestServer(t, testEmission)

	first := doRequest(t, s, http.MethodGet, "/api/quote?seed=5")
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", first.Code, first.Body.String())
	}
	if ct := first.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	text := first.Body.String()
	if !strings.HasPrefix(text, "Rose ") {
		t.Errorf("text %q does not start with the capitalized start word", text)
	}

	second := doRequest(t, s, http.MethodGet, "/api/quote?seed=5")
	if second.Body.String() != text {
		t.Errorf("same seed produced %q and %q", text, second.Body.String())
	}

	rr := doRequest(t, s, http.MethodGet, "/api/quote?seed=5&format=json")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp QuoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Text != text || resp.Seed != 5 {
		t.Errorf("got text %q seed %d, want %q seed 5", resp.Text, resp.Seed, text)
	}
	if resp.Attempts < 1 || resp.Length != sonnet.QuoteLength(resp.Words) {
		t.Errorf("inconsistent response: %+v", resp)
	}
}

func TestHandleQuoteErrors(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		target   string
		emission string
		opts     []sonnet.GeneratorOption
		code     int
	}{
		{name: "Invalid seed", method: http.MethodGet, target: "/api/quote?seed=abc", code: http.StatusBadRequest},
		{name: "Invalid format", method: http.MethodGet, target: "/api/quote?format=xml", code: http.StatusBadRequest},
		{name: "Wrong method", method: http.MethodPost, target: "/api/quote", code: http.StatusMethodNotAllowed},
		{
			name:   "Step limit",
			method: http.MethodGet,
			target: "/api/quote?seed=1",
			emission: "StateBody\tStateSentenceEnd\tSTOP\n" +
				"StateBody\t0.5\t0.5\t0\n" +
				"StateSentenceEnd\t1\t0\t0\n",
			opts: []sonnet.GeneratorOption{sonnet.WithMaxSteps(20)},
			code: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			emission := tc.emission
			if emission == "" {
				emission = testEmission
			}
			s := setupTestServer(t, emission, tc.opts...)
			rr := doRequest(t, s, tc.method, tc.target)
			if rr.Code != tc.code {
				t.Errorf("status = %d, want %d", rr.Code, tc.code)
			}
			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("expected a JSON error body, got %v", err)
			}
		})
	}
}

func TestHandleStats(t *testing.T) {
	s := setupTestServer(t, testEmission)
	rr := doRequest(t, s, http.MethodGet, "/api/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var stats sonnet.Stats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.States != 4 || stats.EmissionColumns != 3 || !stats.StopReachable {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.StateWords["StateSentenceEnd"] != 1 {
		t.Errorf("StateSentenceEnd has %d words, want 1 after cleaning", stats.StateWords["StateSentenceEnd"])
	}
}

func TestHandleVersionAndHealth(t *testing.T) {
	s := setupTestServer(t, testEmission)

	rr := doRequest(t, s, http.MethodGet, "/api/version")
	var info VersionInfo
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode version: %v", err)
	}
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}

	rr = doRequest(t, s, http.MethodGet, "/api/health")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "ok") {
		t.Errorf("health check returned %d %q", rr.Code, rr.Body.String())
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := setupTestServer(t, testEmission)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("serve() did not return after cancel")
	}
}

func TestServeListenError(t *testing.T) {
	s := setupTestServer(t, testEmission)
	if err := s.serve(context.Background(), "invalid-address"); err == nil {
		t.Error("expected a listen error, got nil")
	}
}
