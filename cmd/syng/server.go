package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/syng-dev/syng/internal/metrics"
	"github.com/syng-dev/syng/internal/relay"
	"github.com/syng-dev/syng/internal/source"
	"github.com/syng-dev/syng/internal/source/file"
	"github.com/syng-dev/syng/internal/source/s3"
	"github.com/syng-dev/syng/internal/source/youtube"
	"github.com/syng-dev/syng/internal/transport"
	"github.com/syng-dev/syng/internal/webui"
)

func runServer(ctx context.Context, args []string) error {
	fs := newFlagSet("server")
	host := fs.String("host", "localhost", "listen host")
	port := fs.String("port", "8080", "listen port")
	rootFolder := fs.String("root-folder", "./web/dist", "web UI bundle directory")
	registrationKeyfile := fs.String("registration-keyfile", "", "path to a registration key file (accepted but not read by this server)")
	if err := fs.Parse(args); err != nil {
		return newConfigError(err)
	}
	// TODO: enforce registrationKeyfile as a playback-client registration allowlist.
	_ = registrationKeyfile

	registry := source.NewRegistry()
	registry.Register(file.Name, file.New)
	registry.Register(youtube.Name, youtube.New)
	registry.Register(s3.Name, s3.New)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	manager := relay.NewManager(registry, m)

	mux := http.NewServeMux()
	router := manager.Router()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := transport.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("server: websocket upgrade failed", "error", err)
			return
		}
		conn := transport.NewConn(ws)
		router.Serve(ctx, conn)
		manager.HandleDisconnect(conn)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/", webui.New(*rootFolder))

	addr := fmt.Sprintf("%s:%s", *host, *port)
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        securityHeaders(mux),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   0, // websocket connections are long-lived
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// securityHeaders sets a baseline of response headers: a plain
// http.Handler wrapper is all the relay's HTTP surface needs.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
