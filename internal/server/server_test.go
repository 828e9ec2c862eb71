package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/commentlens/internal/cache"
	"github.com/raysh454/commentlens/internal/metrics"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/poller"
	"github.com/raysh454/commentlens/internal/presenter"
	"github.com/raysh454/commentlens/internal/relay"
	"github.com/raysh454/commentlens/internal/retry"
	"github.com/raysh454/commentlens/internal/server"
	"github.com/raysh454/commentlens/internal/testutil"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	f := &testutil.ScriptedFetcher{Scripts: map[string][]model.Outcome{
		"videoA":  {model.Pending(), model.Ready(testutil.SamplePayload())},
		"timeout": {model.Failed(model.ErrServerTimeout)},
	}}
	m := metrics.New()
	sched, err := poller.NewScheduler(f, retry.Policy{Interval: 5 * time.Millisecond, MaxAttempts: 10}, nil, m)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	r := relay.New(sched, cache.NewMemory(), nil, m)
	t.Cleanup(func() { r.Close() })

	s, err := server.NewServer(server.Config{ListenAddr: ":0"}, r, m, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// ─── CORS / meta ───────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_Preflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "OPTIONS", "/relay", "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("allow methods = %q", got)
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	doJSON(t, s, "POST", "/relay", `{"method":"getCommentData"}`)
	rec := doJSON(t, s, "GET", "/metrics", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `commentlens_relay_requests_total{source="none"} 1`) {
		t.Errorf("relay counter missing from:\n%s", rec.Body.String())
	}
}

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/swagger/doc.json", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/relay") {
		t.Errorf("doc.json does not describe /relay: %s", rec.Body.String())
	}
}

// ─── Relay / navigate ──────────────────────────────────────────────────

func TestServer_Relay_NoPageReturnsNull(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/relay", `{"id":"1","method":"getCommentData"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var reply map[string]any
	decodeJSON(t, rec, &reply)
	if reply["id"] != "1" || reply["data"] != nil {
		t.Errorf("reply = %v", reply)
	}
}

func TestServer_Relay_InvalidJSON(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/relay", `{invalid}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_Relay_ExplicitVideo(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/relay", `{"method":"getCommentData","video_id":"videoA"}`)

	var reply struct {
		Data  map[string]any `json:"data"`
		Error string         `json:"error"`
	}
	decodeJSON(t, rec, &reply)
	if reply.Error != "" || reply.Data["sarcasm_analysis"] != 0.15 {
		t.Errorf("reply = %+v", reply)
	}
}

func TestServer_Navigate_ThenRelayServesCache(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/navigate", `{"url":"https://www.youtube.com/watch?v=videoA"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var nav server.NavigateResponse
	decodeJSON(t, rec, &nav)
	if nav.VideoID != "videoA" {
		t.Fatalf("video_id = %q", nav.VideoID)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		rec = doJSON(t, s, "POST", "/relay", `{"method":"getCommentData"}`)
		if strings.Contains(rec.Body.String(), "sentiment_analysis") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("cached analysis never served; last body %s", rec.Body.String())
}

func TestServer_Navigate_NonVideoPage(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/navigate", `{"url":"https://www.youtube.com/"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body server.ErrorResponse
	decodeJSON(t, rec, &body)
	if body.Kind != model.KindNotAVideoPage || body.Error != presenter.MessageNotAVideo {
		t.Errorf("body = %+v", body)
	}
}

// ─── Render ────────────────────────────────────────────────────────────

func TestServer_Render_JSON(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/videos/videoA/render", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var tree presenter.RenderTree
	decodeJSON(t, rec, &tree)
	ring := tree.Find("analysis-ring-positive")
	if ring == nil || ring.Percentage != 60 {
		t.Fatalf("positive ring = %+v", ring)
	}
}

func TestServer_Render_HTML(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/videos/videoA/render?format=html", "")

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `id="analyser-container"`) {
		t.Errorf("markup = %s", rec.Body.String())
	}
}

func TestServer_Render_FailureShowsMessage(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/videos/timeout/render", "")

	var tree presenter.RenderTree
	decodeJSON(t, rec, &tree)
	if tree.Message != presenter.MessageTimeout {
		t.Errorf("message = %q", tree.Message)
	}
}

func TestServer_Render_BadFormat(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/videos/videoA/render?format=xml", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────────

func TestServer_WebSocket_EchoesIDs(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgs := []string{
		`{"id":"slow","method":"getCommentData","video_id":"videoA"}`,
		`{"id":"cached","method":"getCommentData"}`,
	}
	for _, m := range msgs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got := map[string]relay.Reply{}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for len(got) < len(msgs) {
		var reply relay.Reply
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		got[reply.ID] = reply
	}

	if string(got["cached"].Data) != "null" {
		t.Errorf("cached reply = %s", got["cached"].Data)
	}
	if !strings.Contains(string(got["slow"].Data), "sentiment_analysis") {
		t.Errorf("slow reply = %s", got["slow"].Data)
	}
}
