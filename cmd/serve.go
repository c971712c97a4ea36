package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoenrich/internal/enrich"
	"github.com/sells-group/geoenrich/internal/metrics"
	"github.com/sells-group/geoenrich/internal/source"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP enrichment API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		provider := metrics.Init(metrics.BuildInfo{
			Version:   os.Getenv("BUILD_VERSION"),
			Revision:  os.Getenv("BUILD_REVISION"),
			BuildDate: os.Getenv("BUILD_DATE"),
		})
		instruments := metrics.NewInstruments(provider.Registerer())

		router := buildRouter(serverEnv{
			engine:  newEngine(instruments),
			reg:     reg,
			radius:  cfg.Query.RadiusMiles,
			metrics: provider.Handler(),
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// serverEnv carries the dependencies the HTTP handlers need.
type serverEnv struct {
	engine  *enrich.Engine
	reg     *source.Registry
	radius  float64 // default radius when the query omits radius_miles
	metrics http.Handler
}

func buildRouter(env serverEnv) chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if env.metrics != nil {
		r.Get("/metrics", env.metrics.ServeHTTP)
	}
	r.Get("/v1/sources", handleSources(env))
	r.Get("/v1/enrich", handleEnrich(env))
	return r
}

func handleSources(env serverEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		descriptors, err := selectSources(env.reg, nil, r.URL.Query().Get("category"))
		if err != nil {
			writeHTTPError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, toSourceInfos(descriptors))
	}
}

func handleEnrich(env serverEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseEnrichParams(r, env.radius)
		if err != nil {
			writeHTTPError(w, http.StatusBadRequest, err.Error())
			return
		}
		descriptors, err := selectSources(env.reg, params.sources, params.category)
		if err != nil {
			writeHTTPError(w, http.StatusBadRequest, err.Error())
			return
		}

		results, err := env.engine.QueryMany(r.Context(), params.point, params.radius, descriptors)
		if err != nil {
			if eris.Is(err, enrich.ErrInvalidArgument) {
				writeHTTPError(w, http.StatusBadRequest, err.Error())
				return
			}
			zap.L().Error("enrichment failed", zap.Error(err))
			writeHTTPError(w, http.StatusInternalServerError, "enrichment failed")
			return
		}

		respondJSON(w, http.StatusOK, enrichReport{
			QueryID:     uuid.New().String(),
			Point:       params.point,
			RadiusMiles: params.radius,
			GeneratedAt: time.Now().UTC(),
			Sources:     results,
		})
	}
}

// enrichParams are the parsed query parameters of /v1/enrich.
type enrichParams struct {
	point    enrich.QueryPoint
	radius   float64
	sources  []string
	category string
}

func parseEnrichParams(r *http.Request, defaultRadius float64) (enrichParams, error) {
	q := r.URL.Query()
	params := enrichParams{radius: defaultRadius, category: q.Get("category")}

	for _, name := range []string{"lat", "lon"} {
		if q.Get(name) == "" {
			return params, eris.Errorf("%s is required", name)
		}
	}
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return params, eris.Errorf("lat %q is not a number", q.Get("lat"))
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return params, eris.Errorf("lon %q is not a number", q.Get("lon"))
	}
	params.point = enrich.QueryPoint{Lat: lat, Lon: lon}

	if s := q.Get("radius_miles"); s != "" {
		radius, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return params, eris.Errorf("radius_miles %q is not a number", s)
		}
		params.radius = radius
	}
	if s := q.Get("sources"); s != "" {
		for _, name := range strings.Split(s, ",") {
			if name = strings.TrimSpace(name); name != "" {
				params.sources = append(params.sources, name)
			}
		}
	}
	return params, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTTPError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// requestLogger tags each request with an id and logs it on completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", reqID)

		start := time.Now()
		next.ServeHTTP(w, r)

		zap.L().Info("http request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.L().Error("panic recovered", zap.Any("panic", rec))
				writeHTTPError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
