// main is the entry point of the cafe registration service.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file and/or the environment
//  2. Initialise the logger
//  3. Choose the submission collaborator (SQLite store or log only)
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/cafe-registration --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/cafe-registration
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/cafe-registration/internal/config"
	"github.com/aanand-mishra/cafe-registration/internal/form"
	"github.com/aanand-mishra/cafe-registration/internal/http/handlers/account"
	"github.com/aanand-mishra/cafe-registration/internal/http/handlers/registration"
	"github.com/aanand-mishra/cafe-registration/internal/logger"
	"github.com/aanand-mishra/cafe-registration/internal/session"
	"github.com/aanand-mishra/cafe-registration/internal/storage/sqlite"
	"github.com/aanand-mishra/cafe-registration/internal/submission"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting cafe-registration",
		slog.String("env", cfg.Env),
		slog.String("submission_mode", cfg.Submission.Mode),
		slog.String("version", "1.0.0"),
	)

	// Route table:
	//   GET    /api/registration/fields          → field catalogue
	//   GET    /api/registration                 → current values + errors
	//   PUT    /api/registration/fields/{field}  → update one field
	//   POST   /api/registration/validate        → validate all fields
	//   POST   /api/registration                 → submit
	//   DELETE /api/registration                 → reset
	// store mode only:
	//   GET    /api/registrations                → list stored registrations
	//   GET    /api/registrations/{id}           → one stored registration
	//   DELETE /api/registrations/{id}           → delete a stored registration
	router := http.NewServeMux()

	var submitter form.Submitter
	switch cfg.Submission.Mode {
	case config.ModeLog:
		submitter = submission.NewLog(log)
	default:
		storage, err := sqlite.New(cfg)
		if err != nil {
			log.Error("failed to initialise storage",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer storage.Close()

		log.Info("storage initialised",
			slog.String("path", cfg.StoragePath))

		submitter = submission.NewStore(storage, log)

		router.HandleFunc("GET /api/registrations", account.GetList(storage))
		router.HandleFunc("GET /api/registrations/{id}", account.GetByID(storage))
		router.HandleFunc("DELETE /api/registrations/{id}", account.Delete(storage))
	}

	sessions := registration.Sessions{
		Store: session.NewStore(func() *form.Controller {
			return form.New(submitter, form.WithLogger(log))
		}, cfg.Session.IdleTimeout, cfg.Session.MaxSessions),
		Cookie: cfg.Session.CookieName,
	}

	router.HandleFunc("GET /api/registration/fields", registration.Fields())
	router.HandleFunc("GET /api/registration", registration.Get(sessions))
	router.HandleFunc("PUT /api/registration/fields/{field}", registration.UpdateField(sessions))
	router.HandleFunc("POST /api/registration/validate", registration.Validate(sessions))
	router.HandleFunc("POST /api/registration", registration.Submit(sessions))
	router.HandleFunc("DELETE /api/registration", registration.Reset(sessions))

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed after Shutdown.
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
