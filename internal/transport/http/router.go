package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rajaravivarma-r/darkwire.io/internal/transport/ws"
)

func NewRouter(wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// WS endpoint: the room name is part of the path, its normalized form is
	// the room id.
	r.Get("/ws/{room}", wsServer.HandleWS)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
