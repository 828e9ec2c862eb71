package dom

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/commentlens/internal/presenter"
)

// LoadFunc returns the current markup of a page.
type LoadFunc func(ctx context.Context) ([]byte, error)

// DocumentPage is a Page backed by static HTML that is reloaded on every
// readiness check.
type DocumentPage struct {
	load LoadFunc

	mu  sync.Mutex
	doc *goquery.Document
}

func NewDocumentPage(load LoadFunc) *DocumentPage {
	return &DocumentPage{load: load}
}

// NewStaticPage wraps fixed markup.
func NewStaticPage(markup []byte) *DocumentPage {
	return NewDocumentPage(func(context.Context) ([]byte, error) { return markup, nil })
}

func (p *DocumentPage) AnchorReady(ctx context.Context) (bool, error) {
	body, err := p.load(ctx)
	if err != nil {
		return false, fmt.Errorf("dom: load page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("dom: parse page: %w", err)
	}

	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return doc.Find(AnchorSelector).Length() > 0, nil
}

func (p *DocumentPage) Insert(_ context.Context, t *presenter.RenderTree) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil {
		return ErrAnchorMissing
	}
	return Attach(p.doc, t)
}

// HTML serializes the current document.
func (p *DocumentPage) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil {
		return "", fmt.Errorf("dom: page not loaded")
	}
	return p.doc.Html()
}
