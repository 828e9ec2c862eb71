package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int `yaml:"port"`

	// PendingResponses is how many empty answers a video gets before its
	// analysis is served.
	PendingResponses int `yaml:"pending_responses"`

	// TimeoutVideos answer 504 with the server's timeout message.
	TimeoutVideos []string `yaml:"timeout_videos"`

	// FailVideos answer 404 as if the comment crawl failed.
	FailVideos []string `yaml:"fail_videos"`

	// Payload is served once a video is ready. Empty means SamplePayload.
	Payload string `yaml:"payload"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:             8080,
		PendingResponses: 3,
		TimeoutVideos:    []string{"timeoutDemo"},
		FailVideos:       []string{"crawlFailDemo"},
	}
}
