// SPDX-License-Identifier: EPL-2.0

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ik5/multitrack/engine"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Handler serves the control API of one audio session.
type Handler struct {
	session  *engine.Session
	log      *zap.Logger
	upgrader websocket.Upgrader
	router   http.Handler
}

// New builds the router for session. A nil logger discards output.
func New(session *engine.Session, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}

	h := &Handler{
		session: session,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tracks", h.listTracks).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}", h.patchTrack).Methods(http.MethodPatch)
	api.HandleFunc("/tracks/{id}/mute", h.toggleMute).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{id}/solo", h.toggleSolo).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{id}/waveform", h.trackWaveform).Methods(http.MethodGet)

	api.HandleFunc("/transport", h.transportState).Methods(http.MethodGet)
	api.HandleFunc("/transport/ws", h.transportFeed).Methods(http.MethodGet)
	api.HandleFunc("/transport/seek", h.seek).Methods(http.MethodPost)
	api.HandleFunc("/transport/{action:play|pause|stop}", h.transportAction).Methods(http.MethodPost)

	api.HandleFunc("/mixdown", h.mixdown).Methods(http.MethodPost)

	// Preflight requests match no route.
	h.router = h.cors(r)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewHTTPServer wraps handler with the server timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
