// Command commentlens polls the analysis server for one video and prints the
// resulting widget.
// Usage: go run ./cmd/commentlens -url 'https://www.youtube.com/watch?v=...' [-format text|json|html]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/raysh454/commentlens/internal/app"
	"github.com/raysh454/commentlens/internal/cli"
	"github.com/raysh454/commentlens/internal/dom"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/presenter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "commentlens:", err)
		os.Exit(1)
	}
}

func run() error {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := app.LoadConfig(args.ConfigPath)
	if err != nil {
		return err
	}
	if args.Interval > 0 {
		cfg.Poll.Interval = args.Interval
	}
	if args.MaxAttempts > 0 {
		cfg.Poll.MaxAttempts = args.MaxAttempts
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			a.Logger.Error("shutdown failed", logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	var outcome model.Outcome
	videoID, err := args.Video()
	if err != nil {
		outcome = model.Failed(err)
	} else {
		outcome = a.Scheduler.Poll(ctx, videoID)
	}
	tree := presenter.PresentOutcome(outcome)

	if args.Attach {
		if err := attach(ctx, a, args.URL, tree); err != nil {
			return err
		}
	}

	switch args.Format {
	case cli.FormatJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tree); err != nil {
			return err
		}
	case cli.FormatHTML:
		markup, err := dom.RenderHTML(tree)
		if err != nil {
			return err
		}
		fmt.Println(markup)
	default:
		fmt.Print(presenter.RenderText(tree))
	}

	if outcome.Err != nil && !errors.Is(outcome.Err, model.ErrNotAVideoPage) {
		return fmt.Errorf("%s: %w", model.Kind(outcome.Err), outcome.Err)
	}
	return nil
}

func attach(ctx context.Context, a *app.Application, url string, tree *presenter.RenderTree) error {
	page, err := dom.NewChromePage(url, a.Config.Chrome, a.Logger)
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := dom.WaitAndAttach(ctx, page, tree, a.Config.DOMWait, a.Logger); err != nil {
		return err
	}
	a.Logger.Info("widget attached to live page", logging.Field{Key: "url", Value: url})
	return nil
}
