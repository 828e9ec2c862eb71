package dom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/presenter"
	"github.com/raysh454/commentlens/internal/retry"
)

// AnchorSelector is the comment header of a watch page.
const AnchorSelector = "#sections > :first-child > :first-child"

// InsertIndex is the header child the widget is placed before.
const InsertIndex = 5

// DefaultWaitPolicy checks for the comment header every 400ms for up to 30s.
func DefaultWaitPolicy() retry.Policy {
	return retry.Policy{Interval: 400 * time.Millisecond, MaxAttempts: 75, MaxElapsed: 30 * time.Second}
}

// ErrAnchorMissing is returned when the comment header never appeared.
var ErrAnchorMissing = errors.New("dom: comment header not found")

// Attach inserts (or replaces) the widget in doc.
func Attach(doc *goquery.Document, t *presenter.RenderTree) error {
	anchor := doc.Find(AnchorSelector).First()
	if anchor.Length() == 0 {
		return ErrAnchorMissing
	}
	node, err := BuildNode(t)
	if err != nil {
		return err
	}

	if existing := doc.Find("#" + presenter.ContainerID); existing.Length() > 0 {
		existing.First().ReplaceWithNodes(node)
		return nil
	}

	children := anchor.Children()
	if children.Length() > InsertIndex {
		children.Eq(InsertIndex).BeforeNodes(node)
	} else {
		anchor.AppendNodes(node)
	}
	return nil
}

// Page is a document the widget can be attached to once it has loaded.
type Page interface {
	// AnchorReady reports whether the comment header exists yet.
	AnchorReady(ctx context.Context) (bool, error)
	// Insert attaches t below the comment header.
	Insert(ctx context.Context, t *presenter.RenderTree) error
}

// WaitAndAttach polls page until the anchor exists, then inserts t. Polling
// follows policy and gives up with ErrAnchorMissing.
func WaitAndAttach(ctx context.Context, page Page, t *presenter.RenderTree, policy retry.Policy, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	attempts, err := retry.Until(ctx, policy, page.AnchorReady, func(attempt int, wait time.Duration) {
		logger.Debug("comment header not ready",
			logging.Field{Key: "attempt", Value: attempt},
			logging.Field{Key: "wait", Value: wait.String()})
	})
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w after %d checks", ErrAnchorMissing, attempts)
	}
	if err != nil {
		return fmt.Errorf("dom: wait for comment header: %w", err)
	}
	if err := page.Insert(ctx, t); err != nil {
		return err
	}
	logger.Debug("analysis attached", logging.Field{Key: "checks", Value: attempts})
	return nil
}
