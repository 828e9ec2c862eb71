package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/utils"
)

// Output formats understood by -format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatHTML = "html"
)

// CLIArgs are the command-line arguments of a single analysis run.
type CLIArgs struct {
	// URL is a watch page; VideoID is used when URL is empty.
	URL     string
	VideoID string

	ConfigPath string
	Format     string

	// Interval and MaxAttempts override the poll policy when non-zero.
	Interval    time.Duration
	MaxAttempts int

	// Attach opens the watch page in a headless browser and inserts the
	// widget into it. Requires -url.
	Attach bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("commentlens", flag.ContinueOnError)
	var (
		rawURL      = fs.String("url", "", "Watch page URL to analyse")
		videoID     = fs.String("video", "", "Video identifier (alternative to -url)")
		configPath  = fs.String("config", "", "YAML config file")
		format      = fs.String("format", FormatText, "Output format: text|json|html")
		interval    = fs.Duration("interval", 0, "Poll interval override (0=use config)")
		maxAttempts = fs.Int("max-attempts", 0, "Poll attempt cap override (0=use config)")
		attach      = fs.Bool("attach", false, "Insert the widget into the live page (needs Chrome and -url)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if strings.TrimSpace(*rawURL) == "" && strings.TrimSpace(*videoID) == "" {
		return nil, errors.New("one of -url or -video is required")
	}
	switch *format {
	case FormatText, FormatJSON, FormatHTML:
	default:
		return nil, fmt.Errorf("unknown -format %q (want text, json or html)", *format)
	}
	if *attach && strings.TrimSpace(*rawURL) == "" {
		return nil, errors.New("-attach needs -url")
	}
	if *interval < 0 || *maxAttempts < 0 {
		return nil, errors.New("-interval and -max-attempts must not be negative")
	}

	return &CLIArgs{
		URL:         strings.TrimSpace(*rawURL),
		VideoID:     strings.TrimSpace(*videoID),
		ConfigPath:  *configPath,
		Format:      *format,
		Interval:    *interval,
		MaxAttempts: *maxAttempts,
		Attach:      *attach,
		RawArgs:     args,
	}, nil
}

// Video resolves the video to analyse. A URL that is not a watch page yields
// model.ErrNotAVideoPage.
func (a *CLIArgs) Video() (string, error) {
	if a.URL != "" {
		return utils.ExtractVideoID(a.URL)
	}
	if err := model.ValidateVideoID(a.VideoID); err != nil {
		return "", err
	}
	return a.VideoID, nil
}
