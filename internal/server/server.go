package server

import (
	"VaultLedger/internal/observability"
	"VaultLedger/internal/query"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server hosts the HTTP/JSON query surface plus a gRPC endpoint carrying
// the standard health service and reflection for probes and tooling.
type Server struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	grpcAddr   string
	httpAddr   string
	log        zerolog.Logger
}

// Deps holds the dependencies needed by the handlers.
type Deps struct {
	QueryService  *query.Service
	HealthChecker *observability.HealthChecker
	Metrics       *observability.Metrics
	Logger        zerolog.Logger
}

func New(grpcAddr, httpAddr string, deps *Deps) *Server {
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Reflection for grpcurl / grpcui
	reflection.Register(grpcServer)

	mux := http.NewServeMux()
	registerQueryRoutes(mux, deps)
	mux.HandleFunc("/healthz", deps.HealthChecker.LivenessHandler)
	mux.HandleFunc("/readyz", deps.HealthChecker.ReadinessHandler)
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		grpcServer: grpcServer,
		httpServer: &http.Server{
			Addr:         httpAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		grpcAddr: grpcAddr,
		httpAddr: httpAddr,
		log:      deps.Logger,
	}
}

// StartGRPC starts the gRPC server (blocking).
func (s *Server) StartGRPC(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("gRPC server shutting down")
		s.grpcServer.GracefulStop()
	}()

	s.log.Info().Str("addr", s.grpcAddr).Msg("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

// StartHTTP starts the HTTP server (blocking).
func (s *Server) StartHTTP(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", s.httpAddr).Msg("HTTP server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func registerQueryRoutes(mux *http.ServeMux, deps *Deps) {
	qs := deps.QueryService
	metrics := deps.Metrics

	instrument := func(endpoint string, handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			if metrics != nil {
				metrics.QueryRequests.WithLabelValues(endpoint).Inc()
			}
			if err := handler(w, r); err != nil {
				if metrics != nil {
					metrics.QueryErrors.WithLabelValues(endpoint).Inc()
				}
				deps.Logger.Error().Err(err).Str("endpoint", endpoint).Msg("query failed")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			if metrics != nil {
				metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			}
		}
	}

	mux.HandleFunc("/v1/balances/", instrument("balance", func(w http.ResponseWriter, r *http.Request) error {
		idStr := strings.TrimPrefix(r.URL.Path, "/v1/balances/")
		userID, err := uuid.Parse(idStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return nil
		}

		resp, err := qs.GetBalance(r.Context(), userID)
		if err != nil {
			return err
		}
		return writeJSON(w, resp)
	}))

	mux.HandleFunc("/v1/vault", instrument("vault_state", func(w http.ResponseWriter, r *http.Request) error {
		resp, err := qs.GetVaultState(r.Context())
		if err != nil {
			return err
		}
		return writeJSON(w, resp)
	}))

	mux.HandleFunc("/v1/events", instrument("events", func(w http.ResponseWriter, r *http.Request) error {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := qs.GetRecentEvents(r.Context(), limit)
		if err != nil {
			return err
		}
		return writeJSON(w, events)
	}))
}

func writeJSON(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
