package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/auth"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/config"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/ident"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/lifecycle"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type TasksApp struct {
	log     *logrus.Logger
	db      database.Repository
	manager *lifecycle.Manager
	stats   stats.StatsProvider

	// verifier is the configured default; the other two are pinned by
	// routes that always need one strategy.
	verifier       auth.Verifier
	storeVerifier  auth.Verifier
	headerVerifier auth.Verifier

	limiter    *rate.Limiter
	adminToken string

	generateID    func() (string, error)
	generateToken func() string
	now           func() time.Time

	handler http.Handler
	srv     *http.Server
}

func NewTasksApp(mux *http.ServeMux, logger *logrus.Logger, db database.Repository, manager *lifecycle.Manager, sp stats.StatsProvider, cfg *config.Config) *TasksApp {
	s := &TasksApp{
		log:            logger,
		db:             db,
		manager:        manager,
		stats:          sp,
		storeVerifier:  auth.NewStoreVerifier(db),
		headerVerifier: auth.HeaderVerifier{},
		adminToken:     cfg.AdminToken,
		generateID:     ident.NewID,
		generateToken:  ident.NewToken,
		now:            time.Now,
	}

	s.verifier = s.storeVerifier
	if cfg.Verifier == config.VerifierHeader {
		s.verifier = s.headerVerifier
	}

	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	s.routes(mux, cfg)

	// 429 responses need the CORS headers too
	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", auth.HeaderUID, auth.HeaderEmail, adminTokenHeader}),
	)(s.rateLimit(mux))

	h = s.requestLogger(h)
	h = s.errorHandler(h)

	s.handler = h
	s.srv = &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *TasksApp) routes(mux *http.ServeMux, cfg *config.Config) {
	base := cfg.BasePath

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST "+base+"/registration", s.registration)
	mux.HandleFunc("POST "+base+"/login", s.login)
	mux.HandleFunc("DELETE "+base+"/logout", s.authMiddleware(s.headerVerifier, NewInvalidTokenError, s.logout))
	mux.HandleFunc("GET "+base+"/users", s.authMiddleware(s.verifier, NewInvalidTokenError, s.listUsers))
	mux.HandleFunc("GET "+base+"/profile", s.authMiddleware(s.storeVerifier, profileNotFound, s.readProfile))
	mux.HandleFunc("PUT "+base+"/profile", s.authMiddleware(s.verifier, NewInvalidTokenError, s.updateProfile))

	mux.HandleFunc("GET "+base+"/conversations/list", s.authMiddleware(s.verifier, NewInvalidTokenError, s.listConversations))
	mux.HandleFunc("POST "+base+"/conversations/create", s.authMiddleware(s.verifier, NewInvalidTokenError, s.createConversation))
	mux.HandleFunc("GET "+base+"/groups/list", s.authMiddleware(s.verifier, NewInvalidTokenError, s.listGroups))
	mux.HandleFunc("POST "+base+"/groups/create", s.authMiddleware(s.verifier, NewInvalidTokenError, s.createGroup))

	for _, e := range []entity{conversationEntity, groupEntity} {
		prefix := base + "/" + e.path
		mux.HandleFunc("DELETE "+prefix+"/delete", s.authMiddleware(s.verifier, NewInvalidTokenError, s.deleteEntity(e)))
		mux.HandleFunc("GET "+prefix+"/read", s.authMiddleware(s.storeVerifier, NewInvalidTokenError, s.readMessages(e)))
		mux.HandleFunc("POST "+prefix+"/append", s.authMiddleware(s.storeVerifier, NewInvalidTokenError, s.appendMessage(e)))
	}

	if cfg.AdminEnabled {
		mux.HandleFunc("DELETE "+base+"/admin/users", s.adminMiddleware(s.clearUsers))
		mux.HandleFunc("DELETE "+base+"/admin/conversations", s.adminMiddleware(s.clearEntities(conversationEntity)))
		mux.HandleFunc("DELETE "+base+"/admin/groups", s.adminMiddleware(s.clearEntities(groupEntity)))
		mux.HandleFunc("GET "+base+"/admin/conversations/count", s.adminMiddleware(s.countConversations))
	}
}

// Handler is the full middleware chain, for transports other than Start.
func (s *TasksApp) Handler() http.Handler {
	return s.handler
}

func (s *TasksApp) Start() error {
	s.log.Infof("starting server on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *TasksApp) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
