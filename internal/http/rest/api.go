package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/bwise1/snapguide_api/config"
	deps "github.com/bwise1/snapguide_api/internal/debs"
	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
}

// NewServer prepares api.Server. Serve calls it when the server was not
// built beforehand.
func (api *API) NewServer() *http.Server {
	api.Server = &http.Server{
		Addr:         ":" + api.Config.Port,
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.Handler(),
	}
	return api.Server
}

func (api *API) Serve() error {
	if api.Server == nil {
		api.NewServer()
	}
	logging.Info().Str("addr", api.Server.Addr).Msg("starting server")
	return api.Server.ListenAndServe()
}

// Handler builds the router.
func (api *API) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: api.Config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", values.HeaderRequestID, values.HeaderRequestSource},
		ExposedHeaders: []string{values.HeaderRequestID},
		MaxAge:         300,
	}))

	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health", api.Health)

	mux.Group(func(r chi.Router) {
		r.Use(RequestTracing)
		r.Use(api.OptionalViewer)
		r.Mount("/guides", api.GuideRoutes())
		r.Mount("/locations", api.LocationRoutes())
	})

	return mux
}

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := api.Deps.Ping(ctx); err != nil {
		writeErrorResponse(w, err, values.Unavailable, "database unreachable")
		return
	}
	b, _ := json.Marshal(ServerResponse{Status: values.Success, Message: "ok"})
	writeJSONResponse(w, b, http.StatusOK)
}

// Shutdown drains in-flight requests, waiting at most defaultShutdownPeriod.
func (api *API) Shutdown(ctx context.Context) error {
	if api.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultShutdownPeriod)
	defer cancel()
	return api.Server.Shutdown(ctx)
}
