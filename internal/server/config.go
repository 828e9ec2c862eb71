package server

import "time"

type Config struct {
	// ListenAddr is the HTTP listen address of the relay API.
	ListenAddr string `yaml:"listen_addr"`

	// RequestTimeout bounds POST /relay and the render endpoint. The poll
	// itself keeps running for other waiters when it expires.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8090",
		RequestTimeout: 3 * time.Minute,
	}
}
