package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/farxc/credit_ledger/internal/auth"
	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/logger"
	"github.com/farxc/credit_ledger/internal/store"
)

const defaultTokenTTL = 120 * time.Minute

// deadlineAlertWindow is how many days ahead the dashboard warns about
// notes approaching their commitment deadline.
const deadlineAlertWindow = 7

type application struct {
	config config
	store  store.Storage
	ledger *ledger.Engine
	tokens *auth.TokenManager
	log    *logger.Logger
}

type config struct {
	addr        string
	db          dbConfig
	jwtSecret   string
	tokenTTL    time.Duration
	lockTimeout time.Duration
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Post("/token", app.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(app.requireUser)

			r.Get("/users/me", app.handleCurrentUser)

			r.Route("/sections", func(r chi.Router) {
				r.Get("/", app.handleListSections)
				r.Post("/", app.handleCreateSection)
				r.With(app.requireAdmin).Put("/{id}", app.handleRenameSection)
				r.With(app.requireAdmin).Delete("/{id}", app.handleDeleteSection)
			})

			r.Route("/credit-notes", func(r chi.Router) {
				r.Get("/", app.handleListCreditNotes)
				r.Post("/", app.handleCreateCreditNote)
				r.Get("/{id}", app.handleGetCreditNote)
				r.Put("/{id}", app.handleUpdateCreditNote)
				r.With(app.requireAdmin).Delete("/{id}", app.handleDeleteCreditNote)
			})

			r.Route("/commitments", func(r chi.Router) {
				r.Get("/", app.handleListCommitments)
				r.Post("/", app.handleCreateCommitment)
				r.Get("/{id}", app.handleGetCommitment)
				r.Put("/{id}", app.handleUpdateCommitment)
				r.With(app.requireAdmin).Delete("/{id}", app.handleDeleteCommitment)
			})

			r.Route("/reversals", func(r chi.Router) {
				r.Get("/", app.handleListReversals)
				r.Post("/", app.handleCreateReversal)
			})

			r.Route("/returns", func(r chi.Router) {
				r.Get("/", app.handleListReturns)
				r.Post("/", app.handleCreateReturn)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/kpis", app.handleDashboardKPIs)
				r.Get("/alerts", app.handleDashboardAlerts)
			})

			r.Get("/reports/credit-notes.csv", app.handleCreditNotesReport)

			r.Group(func(r chi.Router) {
				r.Use(app.requireAdmin)
				r.Get("/users", app.handleListUsers)
				r.Post("/users", app.handleCreateUser)
				r.Delete("/users/{id}", app.handleDeleteUser)
				r.Get("/audit-logs", app.handleListAuditLogs)
			})
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	log.Printf("Server started on %s", app.config.addr)
	return srv.ListenAndServe()
}
