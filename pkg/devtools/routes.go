package devtools

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	verrors "github.com/vango-dev/vstore/internal/errors"
)

// Routes returns the devtools HTTP surface. Mount it under a prefix:
//
//	r.Mount("/devtools", bridge.Routes())
func (b *Bridge) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/stores", b.handleStores)
	r.Get("/stores/{name}", b.handleStore)
	r.Get("/ws", b.HandleWebSocket)
	return r
}

func (b *Bridge) handleStores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Stores())
}

func (b *Bridge) handleStore(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	state, ok, err := b.Snapshot(name)
	if !ok {
		writeError(w, http.StatusNotFound, verrors.New("D004").
			Wrap(fmt.Errorf("no store named %q", name)).
			WithSuggestion("GET the stores endpoint to list attached stores."))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, verrors.New("D001").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e *verrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(e.FormatJSON()))
}
