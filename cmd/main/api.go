package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/rodriguezmDNA/sonnetGenText/pkg/sonnet"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// QuoteResponse is returned by /api/quote when JSON is requested.
type QuoteResponse struct {
	Text     string   `json:"text"`
	Words    []string `json:"words"`
	Seed     uint64   `json:"seed"`
	Attempts int      `json:"attempts"`
	Length   int      `json:"length"`
	InWindow bool     `json:"in_window"`
}

// QuoteAPI holds the dependencies for the generation handlers.
type QuoteAPI struct {
	gen    *sonnet.Generator
	logger *slog.Logger
}

// NewQuoteAPI creates a new instance of the QuoteAPI.
func NewQuoteAPI(gen *sonnet.Generator, logger *slog.Logger) *QuoteAPI {
	return &QuoteAPI{
		gen:    gen,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api endpoints.
func (a *QuoteAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/quote", a.handleQuote)
	mux.HandleFunc("/api/stats", a.handleStats)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/health", a.handleHealthCheck)
}

// handleQuote generates one text. The optional seed parameter makes the
// response reproducible; format=json returns the quote with its attempt data.
func (a *QuoteAPI) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	seed := rand.Uint64()
	if s := r.URL.Query().Get("seed"); s != "" {
		var err error
		if seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'seed' parameter")
			return
		}
	}

	res, err := a.gen.GenerateQuote(r.Context(), sonnet.NewRand(seed))
	if err != nil {
		a.logger.Error("Failed to generate quote", "seed", seed, "error", err)
		if errors.Is(err, sonnet.ErrStepLimit) {
			respondWithError(w, http.StatusUnprocessableEntity, "Generation did not reach the stop state")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to generate quote")
		return
	}
	text := a.gen.Format(res.Quote)
	a.logger.Debug("Quote served", "seed", seed, "attempts", res.Attempts, "length", res.Length)

	switch r.URL.Query().Get("format") {
	case "", "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(text))
	case "json":
		respondWithJSON(w, http.StatusOK, QuoteResponse{
			Text:     text,
			Words:    res.Quote,
			Seed:     seed,
			Attempts: res.Attempts,
			Length:   res.Length,
			InWindow: res.InWindow,
		})
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid 'format' parameter, must be 'text' or 'json'")
	}
}

// handleStats returns the shape of the loaded model.
func (a *QuoteAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, a.gen.Tables().Stats())
}

// handleVersion returns the application's build information.
func (a *QuoteAPI) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	})
}

func (a *QuoteAPI) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}
