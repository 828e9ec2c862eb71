package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/commentlens/docs/swagger" // registers the API spec
	"github.com/raysh454/commentlens/internal/dom"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/metrics"
	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/presenter"
	"github.com/raysh454/commentlens/internal/relay"
)

// Relay is the part of *relay.Relay the server exposes.
type Relay interface {
	Navigate(ctx context.Context, rawURL string) (string, error)
	Handle(ctx context.Context, msg relay.Message) relay.Reply
	Fetch(ctx context.Context, videoID string) model.Outcome
	Current() string
}

// Server is the HTTP + WebSocket surface of the relay.
type Server struct {
	cfg      Config
	relay    Relay
	metrics  *metrics.Metrics
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer wires routes for r. m may be nil, in which case /metrics is not
// served.
func NewServer(cfg Config, r Relay, m *metrics.Metrics, logger logging.Logger) (*Server, error) {
	if r == nil {
		return nil, errors.New("server: nil relay")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	s := &Server{
		cfg:     cfg,
		relay:   r,
		metrics: m,
		router:  chi.NewRouter(),
		logger:  logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			// UI surfaces run on extension and page origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/relay", s.optionsHandler("POST"))
	r.Options("/navigate", s.optionsHandler("POST"))
	r.Options("/videos/{videoID}/render", s.optionsHandler("GET"))

	r.Get("/health", s.handleHealth)
	r.Post("/relay", s.handleRelay)
	r.Post("/navigate", s.handleNavigate)
	r.Get("/videos/{videoID}/render", s.handleRender)
	r.Get("/ws", s.handleWS)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // long polls and websockets
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

// --- HTTP handlers ---

// handleHealth reports liveness and the video currently tracked.
// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", VideoID: s.relay.Current()})
}

// handleRelay answers one relay message.
// @Summary Ask for comment analysis
// @Description Without video_id returns the cached analysis of the current page, with it polls that video.
// @Tags relay
// @Accept json
// @Produce json
// @Param message body RelayRequest true "Relay message"
// @Success 200 {object} relay.Reply
// @Failure 400 {object} ErrorResponse
// @Router /relay [post]
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	var msg relay.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.logger.Warn("decoding relay message", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	reply := s.relay.Handle(ctx, msg)
	writeJSON(w, http.StatusOK, reply)
}

// handleNavigate records a page navigation.
// @Summary Report a navigation
// @Tags relay
// @Accept json
// @Produce json
// @Param navigation body NavigateRequest true "Page URL"
// @Success 200 {object} NavigateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /navigate [post]
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var body NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("decoding navigate body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON", "")
		return
	}

	videoID, err := s.relay.Navigate(r.Context(), body.URL)
	if err != nil {
		s.logger.Info("navigated away from video pages", logging.Field{Key: "url", Value: body.URL})
		writeError(w, http.StatusUnprocessableEntity, presenter.MessageFor(err), model.Kind(err))
		return
	}
	writeJSON(w, http.StatusOK, NavigateResponse{VideoID: videoID})
}

// handleRender polls a video and returns its widget tree.
// @Summary Render the analysis widget
// @Tags render
// @Produce json,html,plain
// @Param videoID path string true "Video identifier"
// @Param format query string false "json (default), html or text"
// @Success 200 {object} presenter.RenderTree
// @Failure 400 {object} ErrorResponse
// @Router /videos/{videoID}/render [get]
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "html", "text":
	default:
		writeError(w, http.StatusBadRequest, "format must be json, html or text", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	outcome := s.relay.Fetch(ctx, videoID)
	tree := presenter.PresentOutcome(outcome)
	if outcome.Err != nil {
		s.logger.Info("rendering failure message",
			logging.Field{Key: "video_id", Value: videoID},
			logging.Field{Key: "kind", Value: model.Kind(outcome.Err)})
	}

	switch format {
	case "html":
		markup, err := dom.RenderHTML(tree)
		if err != nil {
			s.logger.Error("rendering html", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusInternalServerError, err.Error(), model.KindInternal)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, markup)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, presenter.RenderText(tree))
	default:
		writeJSON(w, http.StatusOK, tree)
	}
}

// WebSockets

// handleWS serves relay messages over a websocket. Each message is answered
// independently, so a slow poll does not hold up cache lookups.
// @Summary Relay over websocket
// @Tags relay
// @Router /ws [get]
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	send := func(v any) {
		b, err := json.Marshal(v)
		if err != nil {
			s.logger.Error("encoding websocket reply", logging.Field{Key: "error", Value: err.Error()})
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.logger.Debug("writing websocket reply", logging.Field{Key: "error", Value: err.Error()})
			cancel()
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", logging.Field{Key: "error", Value: err.Error()})
			}
			break
		}

		var msg relay.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			send(ErrorResponse{Error: "invalid JSON"})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			send(s.relay.Handle(ctx, msg))
		}()
	}

	cancel()
	wg.Wait()
}
