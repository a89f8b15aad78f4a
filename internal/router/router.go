package router

import (
	"context"
	"net/http"

	_ "pet-registry/docs" // registra la doc de swagger

	mem "pet-registry/internal/adapters/storage/memory"
	"pet-registry/internal/domain/pets"
	"pet-registry/internal/middleware"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/platform/metrics"
	"pet-registry/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, se arma un Service sobre el repo in-memory.
	Service *pets.Service

	Logger  logger.Logger   // opcional
	Metrics *metrics.Metrics // opcional
}

func NewRouter(opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	svc := opts.Service
	if svc == nil {
		var err error
		svc, err = pets.NewService(context.Background(), mem.NewPetRepo(), pets.Options{
			Recorder: m,
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.AccessLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	pets.RegisterRoutes(r, svc)

	return r, nil
}
