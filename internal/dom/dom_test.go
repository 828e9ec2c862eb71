package dom_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/commentlens/internal/dom"
	"github.com/raysh454/commentlens/internal/normalize"
	"github.com/raysh454/commentlens/internal/presenter"
	"github.com/raysh454/commentlens/internal/retry"
	"github.com/raysh454/commentlens/internal/testutil"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const watchPage = `<html><body>
<div id="sections"><div id="header-renderer"><div id="title">
<span>0</span><span>1</span><span>2</span><span>3</span><span>4</span><span id="sixth">5</span>
</div></div></div>
</body></html>`

const shortHeaderPage = `<html><body><div id="sections"><div><div id="title"><span>only</span></div></div></div></body></html>`

const loadingPage = `<html><body><div id="sections"></div></body></html>`

func sampleTree(t *testing.T) *presenter.RenderTree {
	t.Helper()
	res, err := normalize.Normalize(testutil.SamplePayload())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return presenter.Present(res)
}

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func assertSameMarkup(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	t.Fatalf("markup mismatch:\n%s", dmp.DiffPrettyText(diffs))
}

// ─── RenderHTML ────────────────────────────────────────────────────────

func TestRenderHTML_MessageTree(t *testing.T) {
	t.Parallel()

	got, err := dom.RenderHTML(presenter.PresentMessage(presenter.MessageNotAVideo))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	want := `<div id="analyser-container" class="style-scope ytd-comments-header-renderer">` +
		`<div id="analysis-message" class="analyser-text analyser-content-text">Please visit a YouTube video</div></div>`
	assertSameMarkup(t, got, want)
}

func TestRenderHTML_Widget(t *testing.T) {
	t.Parallel()

	out, err := dom.RenderHTML(sampleTree(t))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	doc := parse(t, out)

	rings := doc.Find(".analysis-circle-container")
	if rings.Length() != 3 {
		t.Fatalf("rings = %d", rings.Length())
	}
	if title, _ := rings.First().Attr("title"); title != "Positive sentiment" {
		t.Errorf("first ring title = %q", title)
	}
	if got := rings.First().Find("span").Text(); got != "60%" {
		t.Errorf("first ring label = %q", got)
	}
	circle := doc.Find("circle.analysis-circle-green")
	if dash, _ := circle.Attr("stroke-dasharray"); dash != "251.2" {
		t.Errorf("dasharray = %q", dash)
	}
	if style, _ := circle.Attr("style"); style != "stroke-dashoffset: 100.53" {
		t.Errorf("style = %q", style)
	}
	if got := doc.Find("#analysis-emotion-text").Text(); got != "Strongest Emotion: Joy 😂" {
		t.Errorf("emotion text = %q", got)
	}
	if style, _ := doc.Find(".analysis-sarcasm-filler").Attr("style"); style != "width: 15%" {
		t.Errorf("sarcasm filler = %q", style)
	}
	if doc.Find(".analysis-emotion-bar").Length() != 3 {
		t.Errorf("emotion bars = %d", doc.Find(".analysis-emotion-bar").Length())
	}
}

func TestRenderHTML_EscapesText(t *testing.T) {
	t.Parallel()

	out, err := dom.RenderHTML(presenter.PresentMessage(`<script>alert(1)</script>`))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("text not escaped: %s", out)
	}
}

func TestRenderHTML_EmptyTree(t *testing.T) {
	t.Parallel()
	if _, err := dom.RenderHTML(&presenter.RenderTree{}); err == nil {
		t.Fatal("expected error for empty tree")
	}
}

// ─── Attach ────────────────────────────────────────────────────────────

func TestAttach_InsertsBeforeSixthChild(t *testing.T) {
	t.Parallel()

	doc := parse(t, watchPage)
	if err := dom.Attach(doc, sampleTree(t)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	next := doc.Find("#analyser-container").Next()
	if id, _ := next.Attr("id"); id != "sixth" {
		t.Fatalf("widget should precede #sixth, next is %q", id)
	}
	if doc.Find("#title").Children().Length() != 7 {
		t.Errorf("title children = %d", doc.Find("#title").Children().Length())
	}
}

func TestAttach_AppendsWhenHeaderIsShort(t *testing.T) {
	t.Parallel()

	doc := parse(t, shortHeaderPage)
	if err := dom.Attach(doc, sampleTree(t)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if id, _ := doc.Find("#title").Children().Last().Attr("id"); id != "analyser-container" {
		t.Fatalf("widget should be last child, got %q", id)
	}
}

func TestAttach_ReplacesExistingWidget(t *testing.T) {
	t.Parallel()

	doc := parse(t, watchPage)
	if err := dom.Attach(doc, presenter.PresentMessage(presenter.MessageLoading)); err != nil {
		t.Fatalf("Attach loading: %v", err)
	}
	if err := dom.Attach(doc, sampleTree(t)); err != nil {
		t.Fatalf("Attach result: %v", err)
	}
	if n := doc.Find("#analyser-container").Length(); n != 1 {
		t.Fatalf("containers = %d, want 1", n)
	}
	if doc.Find("#analysis-message").Length() != 0 {
		t.Fatal("loading message should be replaced")
	}
}

func TestAttach_MissingAnchor(t *testing.T) {
	t.Parallel()

	if err := dom.Attach(parse(t, loadingPage), sampleTree(t)); !errors.Is(err, dom.ErrAnchorMissing) {
		t.Fatalf("err = %v", err)
	}
}

// ─── WaitAndAttach ─────────────────────────────────────────────────────

func TestWaitAndAttach_WaitsForAnchor(t *testing.T) {
	t.Parallel()

	var loads atomic.Int32
	page := dom.NewDocumentPage(func(context.Context) ([]byte, error) {
		if loads.Add(1) < 3 {
			return []byte(loadingPage), nil
		}
		return []byte(watchPage), nil
	})

	err := dom.WaitAndAttach(context.Background(), page, sampleTree(t),
		retry.Policy{Interval: time.Millisecond, MaxAttempts: 10}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("WaitAndAttach: %v", err)
	}
	if loads.Load() != 3 {
		t.Errorf("loads = %d, want 3", loads.Load())
	}
	out, _ := page.HTML()
	if !strings.Contains(out, `id="analyser-container"`) {
		t.Fatalf("widget not in page:\n%s", out)
	}
}

func TestWaitAndAttach_GivesUp(t *testing.T) {
	t.Parallel()

	page := dom.NewStaticPage([]byte(loadingPage))
	err := dom.WaitAndAttach(context.Background(), page, sampleTree(t),
		retry.Policy{Interval: time.Millisecond, MaxAttempts: 4}, nil)
	if !errors.Is(err, dom.ErrAnchorMissing) {
		t.Fatalf("err = %v", err)
	}
}

func TestWaitAndAttach_LoadErrorStops(t *testing.T) {
	t.Parallel()

	page := dom.NewDocumentPage(func(context.Context) ([]byte, error) { return nil, errors.New("offline") })
	err := dom.WaitAndAttach(context.Background(), page, sampleTree(t),
		retry.Policy{Interval: time.Millisecond, MaxAttempts: 4}, nil)
	if err == nil || errors.Is(err, dom.ErrAnchorMissing) {
		t.Fatalf("err = %v", err)
	}
}

// ─── ChromePage ────────────────────────────────────────────────────────

func TestChromePage_AttachesToLivePage(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(watchPage))
	}))
	defer ts.Close()

	page, err := dom.NewChromePage(ts.URL, dom.ChromeConfig{IdleAfter: 100 * time.Millisecond, MaxIdleWait: 5 * time.Second, Headless: true}, nil)
	if err != nil {
		t.Skipf("Skipping chromedp test (environment does not support chromedp): %v", err)
	}
	defer page.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := dom.WaitAndAttach(ctx, page, sampleTree(t), retry.Policy{Interval: 100 * time.Millisecond, MaxAttempts: 20}, nil); err != nil {
		t.Fatalf("WaitAndAttach: %v", err)
	}
	out, err := page.OuterHTML()
	if err != nil {
		t.Fatalf("OuterHTML: %v", err)
	}
	if !strings.Contains(out, `id="analyser-container"`) {
		t.Fatalf("widget not attached:\n%s", out)
	}
}
