package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/pricecheck/internal/catalog"
	"github.com/Simplici0/pricecheck/internal/config"
	"github.com/Simplici0/pricecheck/internal/db"
	"github.com/Simplici0/pricecheck/internal/logging"
	"github.com/Simplici0/pricecheck/internal/migrations"
	"github.com/Simplici0/pricecheck/internal/policy"
	"github.com/Simplici0/pricecheck/internal/seed"
	"github.com/Simplici0/pricecheck/internal/session"
)

type server struct {
	catalog  *catalog.Catalog
	sessions *sessionStore
	cookies  *cookieSigner
	logger   *slog.Logger
}

type sessionIDKey struct{}

type itemResponse struct {
	ID                    string          `json:"id"`
	BaseUnitCost          decimal.Decimal `json:"base_unit_cost"`
	BaseManufacturingCost decimal.Decimal `json:"base_manufacturing_cost"`
}

type itemValidityResponse struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
}

type errorResponse struct {
	Error string        `json:"error"`
	Quote *session.View `json:"quote,omitempty"`
}

type textRequest struct {
	Text string `json:"text"`
}

type actorRequest struct {
	Actor string `json:"actor"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal(slog.Default(), "failed to load config", err)
	}
	logger := logging.New(cfg.LogLevel)

	c, err := loadCatalog(context.Background(), cfg, logger)
	if err != nil {
		logging.Fatal(logger, "failed to load catalog", err)
	}

	srv := newServer(c, newSessionStore(c, cfg.SessionIdle), newCookieSigner(cfg.SessionSecret), logger)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		logging.Fatal(logger, "server stopped", err)
	}
}

// loadCatalog reads the item table once; the database is not used after startup.
func loadCatalog(ctx context.Context, cfg config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if cfg.IsDev() {
		version, err := migrations.Up(database, cfg.MigrationsDir)
		if err != nil {
			return nil, err
		}
		stats, err := seed.Run(ctx, database, catalog.Default())
		if err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("catalog database prepared", "schema_version", version, "seeded_items", stats.Inserts)
	}

	c, err := catalog.Load(ctx, database)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", "items", c.Len(), "db_path", cfg.DBPath)
	return c, nil
}

func newServer(c *catalog.Catalog, sessions *sessionStore, cookies *cookieSigner, logger *slog.Logger) *server {
	return &server{catalog: c, sessions: sessions, cookies: cookies, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/items", s.handleListItems)
	r.Get("/api/items/{id}", s.handleItemValidity)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Get("/api/quote", s.handleQuote)
		r.Post("/api/quote/identifier", s.handleSetIdentifier)
		r.Post("/api/quote/actor", s.handleSelectActor)
		r.Post("/api/quote/modifiers/{name}", s.handleToggleModifier)
		r.Post("/api/quote/overrides/{which}", s.handleSetOverride)
		r.Post("/api/quote/next-pricing", s.handleApplyNextPricing)
		r.Post("/api/quote/check", s.handleCheckPrice)
		r.Post("/api/quote/reset", s.handleReset)
	})
	return r
}

func (s *server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items := s.catalog.Items()
	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, itemResponse{
			ID:                    item.ID,
			BaseUnitCost:          item.BaseUnitCost,
			BaseManufacturingCost: item.BaseManufacturingCost,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleItemValidity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, itemValidityResponse{ID: id, Valid: s.catalog.IsValid(id)})
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "view", func(*session.Session) error { return nil })
}

func (s *server) handleSetIdentifier(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, "set_identifier", func(sess *session.Session) error {
		return sess.SetIdentifierText(req.Text)
	})
}

func (s *server) handleSelectActor(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, err := policy.ParseActor(req.Actor)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("%v: %q", err, req.Actor)})
		return
	}
	s.apply(w, r, "select_actor", func(sess *session.Session) error {
		sess.SelectActor(actor)
		return nil
	})
}

func (s *server) handleToggleModifier(w http.ResponseWriter, r *http.Request) {
	name := session.Modifier(chi.URLParam(r, "name"))
	s.apply(w, r, "toggle_modifier", func(sess *session.Session) error {
		return sess.ToggleModifier(name)
	})
}

func (s *server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	which := session.Override(chi.URLParam(r, "which"))
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.apply(w, r, "set_override", func(sess *session.Session) error {
		return sess.SetOverrideValue(which, req.Text)
	})
}

func (s *server) handleApplyNextPricing(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "apply_next_pricing", func(sess *session.Session) error {
		return sess.ApplyNextPricing()
	})
}

func (s *server) handleCheckPrice(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "check_price", func(sess *session.Session) error {
		return sess.CheckPrice()
	})
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "reset", func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
}

// apply runs one transition against the caller's session and writes the
// resulting view. Rejected transitions leave the session unchanged.
func (s *server) apply(w http.ResponseWriter, r *http.Request, action string, fn func(*session.Session) error) {
	id, _ := r.Context().Value(sessionIDKey{}).(uuid.UUID)

	var (
		actionErr error
		view      session.View
	)
	found := s.sessions.with(id, func(sess *session.Session) {
		actionErr = fn(sess)
		view = sess.Snapshot()
	})
	if !found {
		s.cookies.clearCookie(w)
		writeJSON(w, http.StatusGone, errorResponse{Error: "price check expired"})
		return
	}

	switch {
	case actionErr == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(actionErr, session.ErrNotPermitted):
		s.logger.Debug("action rejected", "action", action, "session", id.String(), "actor", string(view.Actor))
		writeJSON(w, http.StatusConflict, errorResponse{Error: actionErr.Error(), Quote: &view})
	case errors.Is(actionErr, session.ErrUnknownModifier), errors.Is(actionErr, session.ErrUnknownOverride):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: actionErr.Error(), Quote: &view})
	default:
		s.logger.Error("action failed", "action", action, "error", actionErr)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionFromCookie(r)
		if !ok {
			id = s.sessions.create()
			s.cookies.setCookie(w, id)
			s.logger.Debug("price check started", "session", id.String())
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey{}, id)))
	})
}

func (s *server) sessionFromCookie(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return uuid.Nil, false
	}
	id, ok := s.cookies.verify(cookie.Value)
	if !ok {
		return uuid.Nil, false
	}
	return id, s.sessions.exists(id)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
