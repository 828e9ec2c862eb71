// Package demoserver is a stand-in for the comment-analysis server. Each
// video answers pending a few times before its canned analysis is ready.
package demoserver

import (
	"fmt"
	"net/http"
	"slices"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/raysh454/commentlens/internal/model"
)

// SamplePayload is the analysis every ready video returns by default.
const SamplePayload = `{"sentiment_analysis":{"positive":[0.8123,412],"neutral":[0.6411,201],"negative":[0.7702,137]},` +
	`"emotion_analysis":{"neutral":[0.52,310],"joy":[0.71,188],"surprise":[0.44,96],"sadness":[0.38,61],` +
	`"anger":[0.35,47],"fear":[0.29,28],"disgust":[0.22,20]},"sarcasm_analysis":0.1834}`

// Error bodies, as the analysis server words them.
const (
	TimeoutMessage    = "Request or processing timed out"
	CrawlFailMessage  = "Failed to crawl YouTube comments"
	InvalidVideoError = "Invalid video id"
)

// DemoServer is a simple HTTP server imitating the analysis endpoint.
type DemoServer struct {
	cfg  Config
	mu   sync.Mutex
	hits map[string]int // video id -> requests seen
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	if cfg.Payload == "" {
		cfg.Payload = SamplePayload
	}
	return &DemoServer{cfg: cfg, hits: make(map[string]int)}
}

// Handler returns the routes of the server.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /demo/reset", s.resetHandler)
	mux.HandleFunc("GET /demo/hits", s.hitsHandler)
	mux.HandleFunc("GET /{videoID}", s.analysisHandler)
	return mux
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo analysis server starting on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *DemoServer) analysisHandler(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoID")
	if err := model.ValidateVideoID(videoID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": InvalidVideoError})
		return
	}

	switch {
	case slices.Contains(s.cfg.TimeoutVideos, videoID):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": TimeoutMessage})
		return
	case slices.Contains(s.cfg.FailVideos, videoID):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": CrawlFailMessage})
		return
	}

	s.mu.Lock()
	s.hits[videoID]++
	n := s.hits[videoID]
	s.mu.Unlock()

	if n <= s.cfg.PendingResponses {
		// still crawling: empty body
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.cfg.Payload))
}

func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	clear(s.hits)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *DemoServer) hitsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snapshot := make(map[string]int, len(s.hits))
	for k, v := range s.hits {
		snapshot[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snapshot)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
