package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	httpapi "github.com/yourorg/cma-api/http"
	"github.com/yourorg/cma-api/internal/events"
	"github.com/yourorg/cma-api/internal/logger"
)

type RouterDeps struct {
	Engine      httpapi.Engine
	Events      events.Publisher
	Logger      *slog.Logger
	CORSOrigins []string
}

func BuildRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.Middleware(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", logger.TraceHeader},
		ExposedHeaders:   []string{logger.TraceHeader, "X-Search-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(100, 1*time.Minute)) // protect upstream quota
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"ok":true}`)) })

	httpapi.RegisterComparables(r, httpapi.ComparablesDeps{Engine: d.Engine, Events: d.Events})
	return r
}
