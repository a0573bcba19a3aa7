package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domainhound/domainhound/internal/journal"
)

var servePort int
var serveDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve journaled runs and records over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if serveDir == "" {
			serveDir = cfg.Run.OutputDir
		}
		if servePort == 0 {
			servePort = cfg.Server.Port
		}

		j, err := journal.Open(ctx, cfg.Journal.Driver, journalDSN(serveDir), cfg.Journal.Pool)
		if err != nil {
			return err
		}
		defer j.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := j.ListRuns(req.Context(), 100)
			if err != nil {
				writeError(w, err)
				return
			}
			writeResponse(w, http.StatusOK, runs)
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := j.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeResponse(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeResponse(w, http.StatusOK, run)
		})

		r.Get("/records", func(w http.ResponseWriter, req *http.Request) {
			recs, err := j.Records(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeResponse(w, http.StatusOK, recs)
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", servePort),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("status server listening", zap.Int("port", servePort))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "shutdown server")
			}
			return nil
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "serve")
			}
			return nil
		}
	},
}

func writeResponse(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeResponse(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "run output directory holding the journal (default from config)")
	rootCmd.AddCommand(serveCmd)
}
