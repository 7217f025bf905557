package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ruteri/ans-registry/api"
	"github.com/ruteri/ans-registry/common"
	"github.com/ruteri/ans-registry/metrics"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// RouteRegistrar is implemented by API handlers mounted on the server.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type Server struct {
	cfg     *api.HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	mux        *chi.Mux
	srv        *http.Server
	metricsSrv *metrics.MetricsServer
}

func New(cfg *api.HTTPServerConfig) (srv *Server, err error) {
	metricsSrv, err := metrics.NewServer(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		return nil, err
	}

	srv = &Server{
		cfg:        cfg,
		log:        cfg.Log,
		metricsSrv: metricsSrv,
	}
	srv.isReady.Store(true)
	srv.mux = srv.getRouter()

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.TLSCert != nil {
		srv.srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*cfg.TLSCert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	return srv, nil
}

func (srv *Server) getRouter() *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)
	mux.With(srv.httpLogger).Get("/drain", srv.handleDrain)
	mux.With(srv.httpLogger).Get("/undrain", srv.handleUndrain)

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

// RegisterHandler mounts the routes of h behind the request logger.
func (srv *Server) RegisterHandler(h RouteRegistrar) {
	srv.mux.Group(func(r chi.Router) {
		r.Use(srv.httpLogger)
		h.RegisterRoutes(r)
	})
}

// Metrics returns the collectors served on the metrics listener.
func (srv *Server) Metrics() *metrics.Metrics {
	return srv.metricsSrv.Metrics
}

// Handler returns the API router.
func (srv *Server) Handler() http.Handler {
	return srv.mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "alive")
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeStatus(w, http.StatusOK, "ready")
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Swap(false) {
		writeStatus(w, http.StatusOK, "already draining")
		return
	}
	srv.log.Info("Server marked as not ready")
	writeStatus(w, http.StatusOK, "draining")
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Swap(true) {
		writeStatus(w, http.StatusOK, "already ready")
		return
	}
	srv.log.Info("Server marked as ready")
	writeStatus(w, http.StatusOK, "ready")
}

// Run serves the API and, when configured, the metrics listener until ctx is
// done. On cancellation the server reports not ready for DrainDuration and
// then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if srv.cfg.MetricsAddr != "" {
		g.Go(func() error {
			srv.log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			if err := srv.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr, "tls", srv.cfg.TLSCert != nil)
		var err error
		if srv.cfg.TLSCert != nil {
			err = srv.srv.ListenAndServeTLS("", "")
		} else {
			err = srv.srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil && srv.isReady.Swap(false) && srv.cfg.DrainDuration > 0 {
			srv.log.Info("Draining before shutdown", "duration", srv.cfg.DrainDuration)
			time.Sleep(srv.cfg.DrainDuration)
		}
		srv.Shutdown()
		return nil
	})

	return g.Wait()
}

// Shutdown stops both listeners, waiting at most GracefulShutdownDuration
// for in-flight requests.
func (srv *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	if len(srv.cfg.MetricsAddr) != 0 {
		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
}
