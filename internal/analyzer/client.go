package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/webclient"
)

// Client is the HTTP implementation of Analyzer. Results live at
// <base>/<videoID>.
type Client struct {
	base   *url.URL
	wc     webclient.WebClient
	logger logging.Logger
}

func NewClient(cfg Config, wc webclient.WebClient, logger logging.Logger) (*Client, error) {
	if wc == nil {
		return nil, errors.New("analyzer: nil webclient")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("analyzer: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("analyzer: base url %q must be http or https", cfg.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	return &Client{
		base:   base,
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "analyzer"}),
	}, nil
}

// URLFor returns the resource URL for videoID.
func (c *Client) URLFor(videoID string) string {
	u := *c.base
	u.Path = c.base.Path + "/" + videoID
	u.RawPath = ""
	return u.String()
}

func (c *Client) Fetch(ctx context.Context, videoID string) model.Outcome {
	if err := model.ValidateVideoID(videoID); err != nil {
		return model.Failed(err)
	}

	target := c.URLFor(videoID)
	resp, err := c.wc.Do(ctx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return model.Failed(fmt.Errorf("fetch analysis for %s: %w: %w", videoID, model.ErrTransport, err))
	}

	outcome := Interpret(resp)
	switch outcome.Status {
	case model.StatusPending:
		c.logger.Debug("analysis pending", logging.Field{Key: "video_id", Value: videoID})
	case model.StatusFailed:
		c.logger.Warn("analysis failed",
			logging.Field{Key: "video_id", Value: videoID},
			logging.Field{Key: "status_code", Value: resp.StatusCode},
			logging.Field{Key: "error", Value: outcome.Err.Error()})
	case model.StatusReady:
		c.logger.Debug("analysis ready", logging.Field{Key: "video_id", Value: videoID})
	}
	return outcome
}

func (c *Client) Close() error {
	return c.wc.Close()
}
