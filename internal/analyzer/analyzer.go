// Package analyzer talks to the remote comment-analysis server. One Fetch is
// one HTTP GET; the answer is mapped onto a model.Outcome.
package analyzer

import (
	"context"

	"github.com/raysh454/commentlens/internal/model"
)

// Analyzer fetches the analysis state of a single video.
type Analyzer interface {
	// Fetch issues one request. It never retries; a not-yet-ready analysis
	// comes back as model.Pending().
	Fetch(ctx context.Context, videoID string) model.Outcome

	// Close releases any resources held by the analyzer.
	Close() error
}

// Config locates the analysis server.
type Config struct {
	BaseURL string `yaml:"base_url"`
}

func DefaultConfig() Config {
	return Config{BaseURL: "http://localhost:8080"}
}
