package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "pong")
}

// NewMux routes /ping, /game and /game/moves.
func NewMux(logger *slog.Logger, games GameSource) *http.ServeMux {
	handler := NewGameHandler(logger, games)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /game", handler.GameHandler)
	mux.HandleFunc("GET /game/moves", handler.MovesHandler)
	return mux
}

// Start serves the HTTP endpoints until ctx is done.
func Start(ctx context.Context, logger *slog.Logger, port string, games GameSource) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(logger, games),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
