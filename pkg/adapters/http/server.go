package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/link"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultCookieName is the cookie carrying the anonymous visitor id.
const DefaultCookieName = "arbor_aid"

// Engine defines what the HTTP surface needs from the core.
type Engine interface {
	Trigger(ctx context.Context, actionID int32, opts ...action.ContextOption) (*action.Result, error)
}

// Server serves action links and the trigger API.
type Server struct {
	engine     Engine
	codec      *link.Codec
	metrics    http.Handler
	cookieName string
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithCodec sets the link codec used to decode and build links.
func WithCodec(c *link.Codec) Option {
	return func(s *Server) {
		s.codec = c
	}
}

// WithMetricsHandler replaces the default Prometheus handler served on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCookieName sets the name of the anonymous id cookie.
func WithCookieName(name string) Option {
	return func(s *Server) {
		s.cookieName = name
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		codec:      link.NewCodec(),
		metrics:    promhttp.Handler(),
		cookieName: DefaultCookieName,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/metrics", s.metrics.ServeHTTP)
	r.Get("/a.*", s.FollowLink)
	r.Post("/actions/{id}/trigger", s.TriggerAction)
	r.Post("/links", s.CreateLink)
	r.Post("/links/rewrite", s.RewriteLinks)
	r.Get("/links/decode", s.DecodeLink)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FollowLink handles GET /a.{token}: it decodes the link, runs the action for the
// visitor and answers with a redirect, a 403 or the JSON result.
func (s *Server) FollowLink(w http.ResponseWriter, r *http.Request) {
	l, err := s.codec.DecodeLink(r.URL.EscapedPath())
	if err != nil {
		s.logger.Warn("FollowLink: invalid link", "path", r.URL.Path, "err", err)
		http.Error(w, "Invalid link", http.StatusBadRequest)
		return
	}

	opts := []action.ContextOption{
		action.WithAnonymousID(s.anonymousID(w, r)),
		action.WithProperties(map[string]any{"custom_uri": l.CustomURI}),
	}
	if l.HasContact() {
		opts = append(opts, action.WithContact(&domain.Contact{ID: l.ContactID}))
	}

	res, ok := s.trigger(w, r, l.ActionID, opts)
	if !ok {
		return
	}

	switch {
	case res.Redirect != "":
		http.Redirect(w, r, res.Redirect, http.StatusFound)
	case res.Status == domain.StatusForbidden:
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		writeJSON(w, http.StatusOK, NewResultResponse(res))
	}
}

// TriggerRequest is the body of POST /actions/{id}/trigger.
type TriggerRequest struct {
	Contact     *domain.Contact `json:"contact,omitempty"`
	Identity    string          `json:"identity,omitempty"`
	AnonymousID string          `json:"anonymous_id,omitempty"`
	Properties  map[string]any  `json:"properties,omitempty"`
}

// TriggerAction handles POST /actions/{id}/trigger.
func (s *Server) TriggerAction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid action id", http.StatusBadRequest)
		return
	}

	var body TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("TriggerAction: invalid request body", "err", err)
		return
	}

	opts := []action.ContextOption{
		action.WithContact(body.Contact),
		action.WithIdentity(body.Identity),
		action.WithAnonymousID(body.AnonymousID),
		action.WithProperties(body.Properties),
	}
	res, ok := s.trigger(w, r, int32(id), opts)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewResultResponse(res))
}

func (s *Server) trigger(w http.ResponseWriter, r *http.Request, actionID int32, opts []action.ContextOption) (*action.Result, bool) {
	res, err := s.engine.Trigger(r.Context(), actionID, opts...)
	if err != nil {
		if errors.Is(err, domain.ErrActionNotFound) {
			http.Error(w, "Action not found", http.StatusNotFound)
			return nil, false
		}
		s.logger.Error("run failed", "action_id", actionID, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	s.logger.Debug("run complete", "action_id", actionID, "status", res.Status, "redirect", res.Redirect)
	return res, true
}

// LinkRequest is the body of POST /links.
type LinkRequest struct {
	link.Link
	Absolute bool `json:"absolute,omitempty"`
}

// LinkResponse describes an encoded link.
type LinkResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// CreateLink handles POST /links.
func (s *Server) CreateLink(w http.ResponseWriter, r *http.Request) {
	var body LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.ActionID == 0 {
		http.Error(w, "action_id is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, LinkResponse{
		Token: s.codec.Path(body.Link),
		URL:   s.codec.CreateLink(body.Link, body.Absolute),
	})
}

// RewriteRequest is the body of POST /links/rewrite.
type RewriteRequest struct {
	Text      string `json:"text"`
	ContactID int32  `json:"contact_id"`
}

// RewriteLinks handles POST /links/rewrite: every action link in the text is
// re-issued for the given contact.
func (s *Server) RewriteLinks(w http.ResponseWriter, r *http.Request) {
	var body RewriteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	text := s.codec.ReplaceLinks(body.Text, func(l *link.Link) {
		l.ContactID = body.ContactID
	})
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// DecodeLink handles GET /links/decode?link=...
func (s *Server) DecodeLink(w http.ResponseWriter, r *http.Request) {
	l, err := s.codec.DecodeLink(r.URL.Query().Get("link"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// anonymousID returns the visitor's cookie id, issuing a new one when absent.
func (s *Server) anonymousID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// ResultResponse is the JSON rendering of a run result.
type ResultResponse struct {
	Status       domain.Status       `json:"status"`
	Redirect     string              `json:"redirect,omitempty"`
	ContactID    int32               `json:"contact_id,omitempty"`
	ContactState domain.ContactState `json:"contact_state"`
	AnonymousID  string              `json:"anonymous_id,omitempty"`
	EventID      string              `json:"event_id,omitempty"`
	Errors       []string            `json:"errors,omitempty"`
}

// NewResultResponse converts a run result into its JSON rendering.
func NewResultResponse(res *action.Result) ResultResponse {
	out := ResultResponse{
		Status:       res.Status,
		Redirect:     res.Redirect,
		ContactState: res.ContactState,
		AnonymousID:  res.AnonymousID,
	}
	if res.Contact != nil {
		out.ContactID = res.Contact.ID
	}
	if res.Event != nil {
		out.EventID = res.Event.ID
	}
	for _, err := range res.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
