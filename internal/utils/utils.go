package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/raysh454/commentlens/internal/model"
	"golang.org/x/net/idna"
)

// Hosts that serve the watch page.
var watchHosts = map[string]struct{}{
	"youtube.com":     {},
	"www.youtube.com": {},
	"m.youtube.com":   {},
}

const shortHost = "youtu.be"

type URLTools struct {
	URL *url.URL
}

func NewURLTools(raw string) (*URLTools, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse url %s: %w", raw, err)
	}

	urlTools := &URLTools{
		URL: u,
	}
	if err := urlTools.normalize(); err != nil {
		return nil, err
	}

	return urlTools, nil
}

func (u *URLTools) normalize() error {
	u.URL.Fragment = ""
	u.URL.Scheme = strings.ToLower(u.URL.Scheme)

	host, err := idna.Lookup.ToASCII(strings.ToLower(u.URL.Hostname()))
	if err != nil {
		return fmt.Errorf("couldn't normalize host %q: %w", u.URL.Host, err)
	}
	port := u.URL.Port()
	if (u.URL.Scheme == "http" && port == "80") || (u.URL.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	u.URL.Host = host

	if u.URL.Path != "/" {
		u.URL.Path = strings.TrimRight(u.URL.Path, "/")
	}
	return nil
}

// IsWatchPage reports whether the URL points at a single video.
func (u *URLTools) IsWatchPage() bool {
	if u.URL.Scheme != "http" && u.URL.Scheme != "https" {
		return false
	}
	host := u.URL.Hostname()
	if host == shortHost {
		return strings.Count(strings.Trim(u.URL.Path, "/"), "/") == 0 && u.URL.Path != ""
	}
	_, ok := watchHosts[host]
	return ok && u.URL.Path == "/watch"
}

// VideoID returns the video identifier of a watch page.
//
// Examples:
//
//	https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42 → "dQw4w9WgXcQ"
//	https://youtu.be/dQw4w9WgXcQ                     → "dQw4w9WgXcQ"
//	https://www.youtube.com/feed/subscriptions       → ErrNotAVideoPage
func (u *URLTools) VideoID() (string, error) {
	if !u.IsWatchPage() {
		return "", fmt.Errorf("%w: %s", model.ErrNotAVideoPage, u.URL.String())
	}

	var id string
	if u.URL.Hostname() == shortHost {
		id = strings.Trim(u.URL.Path, "/")
	} else {
		id = u.URL.Query().Get("v")
	}
	if err := model.ValidateVideoID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ExtractVideoID parses raw and returns its video identifier, or an error
// wrapping model.ErrNotAVideoPage.
func ExtractVideoID(raw string) (string, error) {
	u, err := NewURLTools(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrNotAVideoPage, err)
	}
	return u.VideoID()
}
