// Package httpapi exposes the server's HTTP/JSON surface: health probe,
// terminal login, the per-type sync push endpoint, the changed-since diff,
// and static image assets.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/services"
)

const maxBodyBytes = 8 << 20

type Server struct {
	addr      string
	imageRoot string
	syncSvc   *services.SyncService
	authSvc   *services.AuthService
	logger    logging.Logger
}

func NewServer(addr, imageRoot string, syncSvc *services.SyncService, authSvc *services.AuthService, logger logging.Logger) *Server {
	return &Server{
		addr:      addr,
		imageRoot: imageRoot,
		syncSvc:   syncSvc,
		authSvc:   authSvc,
		logger:    logger,
	}
}

// Handler builds the route table. Sync endpoints require a bearer token;
// health, login, and images do not — terminals fetch images with a plain GET
// so a cache can sit in front.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("POST /api/sync/{type}", s.requireAuth(s.handlePush))
	mux.Handle("GET /api/sync/diff", s.requireAuth(s.handleDiff))
	mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imageRoot))))

	return s.withRequestLog(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Terminal string `json:"terminal"`
	Secret   string `json:"secret"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	token, err := s.authSvc.Login(r.Context(), req.Terminal, req.Secret)
	if err != nil {
		s.logger.Warn(r.Context(), "login rejected", "terminal", req.Terminal)
		writeError(w, http.StatusUnauthorized, "invalid terminal credentials")
		return
	}

	s.logger.Info(r.Context(), "terminal logged in", "terminal", req.Terminal)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handlePush applies one batch. The body wraps the records under the entity
// type's own key, e.g. {"cash-movements": [...]}; the key must match the
// path segment.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	entityType := models.EntityType(r.PathValue("type"))
	if !knownEntityType(entityType) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown entity type %q", entityType))
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	batch, ok := body[string(entityType)]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("body missing %q key", entityType))
		return
	}

	count, skipped, err := s.syncSvc.ApplyBatch(r.Context(), entityType, batch)
	if err != nil {
		s.logger.Error(r.Context(), "push batch failed", "type", entityType, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.PushResponse{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.PushResponse{Success: true, Count: count, SkippedLocalIDs: skipped})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		since = parsed
	}

	diff, err := s.syncSvc.Diff(r.Context(), since)
	if err != nil {
		s.logger.Error(r.Context(), "diff failed", "error", err)
		writeError(w, http.StatusInternalServerError, "diff failed")
		return
	}

	writeJSON(w, http.StatusOK, diff)
}

func knownEntityType(entityType models.EntityType) bool {
	for _, known := range models.KnownEntityTypes {
		if known == entityType {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
