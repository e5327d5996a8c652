package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkframe/internal/config"
	"linkframe/internal/http/handlers/admin/links"
	"linkframe/internal/http/handlers/auth/callback"
	"linkframe/internal/http/handlers/auth/signin"
	"linkframe/internal/http/handlers/auth/signout"
	"linkframe/internal/http/handlers/embed/check"
	"linkframe/internal/http/handlers/links/create"
	"linkframe/internal/http/handlers/links/create_text"
	"linkframe/internal/http/handlers/links/event"
	"linkframe/internal/http/handlers/links/events"
	"linkframe/internal/http/handlers/links/get"
	"linkframe/internal/http/handlers/links/redirect"
	"linkframe/internal/http/handlers/links/watch"
	"linkframe/internal/http/handlers/middlewares/auth"
	"linkframe/internal/http/handlers/middlewares/compressor"
	"linkframe/internal/http/handlers/middlewares/logger"
	"linkframe/internal/http/handlers/system/ping"
	userlinks "linkframe/internal/http/handlers/user/links"
	"linkframe/internal/http/handlers/user/me"
	"linkframe/internal/http/httputils"
	"linkframe/internal/metrics"
	"linkframe/internal/services/analytics"
	linkssvc "linkframe/internal/services/links"
	"linkframe/internal/services/embed"
	"linkframe/internal/services/oauth"
	"linkframe/internal/services/sessions"
)

// Deps - сервисы, которые обслуживает сервер. OAuth может быть nil, тогда
// вход отключен.
type Deps struct {
	Store    ping.Pinger
	Links    *linkssvc.Registry
	Clicks   *analytics.Recorder
	Sessions *sessions.Store
	Embed    *embed.Classifier
	OAuth    *oauth.Provider
	Metrics  *metrics.Metrics
}

type Server struct {
	httpServer *http.Server
	router     *mux.Router
	log        *zerolog.Logger
	deps       Deps
	cfg        config.Config
}

func NewServer(log *zerolog.Logger, cfg config.Config, deps Deps) (*Server, error) {
	if cfg.ServerAddress == "" {
		return nil, errors.New("server address cannot be empty")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if deps.Store == nil || deps.Links == nil || deps.Clicks == nil || deps.Sessions == nil || deps.Embed == nil {
		return nil, errors.New("services cannot be nil")
	}

	s := &Server{
		router: mux.NewRouter(),
		cfg:    cfg,
		log:    log,
		deps:   deps,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.setupRoutes()
	return s, nil
}

// Handler нужен тестам
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	log := *s.log
	base := s.cfg.BaseURL
	secure := s.cfg.SecureCookies

	s.router.Use(logger.MiddlewareLogging(s.log, s.deps.Metrics))
	s.router.Use(compressor.MiddlewareCompressing())
	s.router.Use(auth.MiddlewareSession(s.deps.Sessions, log))

	/*
		Public routes
	*/
	s.router.HandleFunc("/ping", ping.HandlerPing(s.deps.Store, log)).Methods(http.MethodGet)
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/api/check-embed", check.HandlerCheckEmbed(s.deps.Embed, log)).Methods(http.MethodPost)

	s.router.HandleFunc("/api/links/{shortCode}", get.HandlerGetLink(s.deps.Links, base, log)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/links/{shortCode}/watch", watch.HandlerWatchLink(s.deps.Links, s.deps.Metrics, log)).Methods(http.MethodGet)

	if s.deps.OAuth != nil {
		s.router.HandleFunc("/signin", signin.HandlerSignIn(s.deps.OAuth, secure, log)).Methods(http.MethodGet)
		s.router.HandleFunc("/auth/callback", callback.HandlerCallback(s.deps.OAuth, s.deps.Sessions, secure, log)).Methods(http.MethodGet)
	} else {
		disabled := func(w http.ResponseWriter, r *http.Request) {
			httputils.WriteTextError(w, http.StatusServiceUnavailable, "sign in is not configured")
		}
		s.router.HandleFunc("/signin", disabled).Methods(http.MethodGet)
		s.router.HandleFunc("/auth/callback", disabled).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/signout", signout.HandlerSignOut(s.deps.Sessions, secure, log)).Methods(http.MethodGet)

	/*
		Protected routes (session required)
	*/
	s.router.Handle("/api/links", auth.RequireSession(create.HandlerCreateLink(s.deps.Links, base, log))).Methods(http.MethodPost)
	s.router.Handle("/api/user", auth.RequireSession(me.HandlerCurrentUser(s.deps.Sessions, log))).Methods(http.MethodGet)
	s.router.Handle("/api/user/links", auth.RequireSession(userlinks.HandlerUserLinks(s.deps.Links, base, log))).Methods(http.MethodGet)
	s.router.Handle("/", auth.RequireSession(create_text.HandlerCreateLinkText(s.deps.Links, base, log))).Methods(http.MethodPost)

	ownerOnly := auth.RequireLinkOwner(s.deps.Links, s.cfg.AdminEmails, log)
	s.router.Handle("/api/links/{shortCode}/clicks", ownerOnly(events.HandlerListClickEvents(s.deps.Clicks, log))).Methods(http.MethodGet)
	s.router.Handle("/api/links/{shortCode}/clicks/{seq}", ownerOnly(event.HandlerGetClickEvent(s.deps.Clicks, log))).Methods(http.MethodGet)

	adminRouter := s.router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(auth.RequireAdmin(s.cfg.AdminEmails))
	adminRouter.HandleFunc("/links", links.HandlerGetAll(s.deps.Links, base, log)).Methods(http.MethodGet)

	// последним: перехватывает любой одиночный сегмент
	s.router.HandleFunc("/{shortCode}", redirect.HandlerRedirect(s.deps.Links, s.deps.Clicks, log)).Methods(http.MethodGet) // 302
}

func (s *Server) Start(ctx context.Context) error {
	s.log.Info().Str("address", s.cfg.ServerAddress).Msg("Starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
