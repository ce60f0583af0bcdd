package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"smart-international-shipping/services/outbox-worker/internal/metrics"
)

// PendingCounter is satisfied by *outbox.PGQueue.
type PendingCounter interface {
	Pending(ctx context.Context) (int, error)
}

type Server struct {
	Queue PendingCounter
	Log   zerolog.Logger
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/outbox/pending", s.pending)
	return r
}

func (s *Server) pending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	n, err := s.Queue.Pending(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("count pending outbox events")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Server Error!"})
		return
	}
	metrics.OutboxPending.Set(float64(n))
	_ = json.NewEncoder(w).Encode(map[string]int{"pending": n})
}
