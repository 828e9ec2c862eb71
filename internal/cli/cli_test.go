package cli_test

import (
	"errors"
	"testing"
	"time"

	"github.com/raysh454/commentlens/internal/cli"
	"github.com/raysh454/commentlens/internal/model"
)

func TestParseArgs_Defaults(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs([]string{"-video", "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Format != cli.FormatText || args.Interval != 0 || args.MaxAttempts != 0 {
		t.Errorf("args = %+v", args)
	}
	id, err := args.Video()
	if err != nil || id != "dQw4w9WgXcQ" {
		t.Errorf("Video() = %q, %v", id, err)
	}
}

func TestParseArgs_Overrides(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs([]string{
		"-url", "https://www.youtube.com/watch?v=abc123&t=10s",
		"-format", "html", "-interval", "250ms", "-max-attempts", "4", "-config", "c.yaml",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Format != cli.FormatHTML || args.Interval != 250*time.Millisecond || args.MaxAttempts != 4 || args.ConfigPath != "c.yaml" {
		t.Errorf("args = %+v", args)
	}
	if id, err := args.Video(); err != nil || id != "abc123" {
		t.Errorf("Video() = %q, %v", id, err)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"no target":     {},
		"bad format":    {"-video", "abc", "-format", "pdf"},
		"negative cap":  {"-video", "abc", "-max-attempts", "-1"},
		"unknown flag":  {"-video", "abc", "-target", "x"},
		"attach no url": {"-video", "abc", "-attach"},
	}
	for name, in := range cases {
		if _, err := cli.ParseArgs(in); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestVideo_NotAWatchPage(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs([]string{"-url", "https://www.youtube.com/feed/trending"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if _, err := args.Video(); !errors.Is(err, model.ErrNotAVideoPage) {
		t.Errorf("err = %v, want ErrNotAVideoPage", err)
	}
}
