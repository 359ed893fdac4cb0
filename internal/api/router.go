package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/antqd/emailsender/internal/module"
)

func NewRouter(h *Handler, mw *Middleware, modules module.Table) http.Handler {
	mux := chi.NewRouter()
	mux.Use(mw.Log, mw.Recover, mw.Cors)

	mux.Get("/api/health", h.Health)

	for _, d := range modules.Sorted() {
		mux.Post(d.Path, h.Submit(d))
	}

	return mux
}
