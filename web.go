package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/wordloop/hangman/internal/manager"
	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/metrics"
	"github.com/wordloop/hangman/internal/wordsource"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(w)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hangman-server v" + releaseVersion + "\n"))
	}
}

func serveHealthz(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(w)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}
}

// Serve loads the Word Source, builds the Game Manager, registers every
// route named in spec.md §6 (plus the ambient /metrics, /healthz,
// /version, and /api/game/:code/qr endpoints), and runs the HTTP server
// until ctx is cancelled.
func Serve(ctx context.Context, cfg *Config) error {
	logf(cfg, "START: hangman-server v%s", releaseVersion)

	words, err := wordsource.Load(cfg.wordlistsDir, message.AllLanguages())
	if err != nil {
		return fmt.Errorf("loading wordlists: %w", err)
	}

	reg := metrics.New()

	mgr := manager.New(manager.Deps{
		Words:   words,
		Metrics: reg,
		Logf: func(format string, args ...any) {
			logf(cfg, format, args...)
		},
	})

	mux := httprouter.New()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.address, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		securityHeaders(w)
		writeJSONError(w, http.StatusInternalServerError, "an internal error occurred")
	}

	mux.GET("/healthz", serveHealthz(cfg))
	mux.GET("/version", serveVersion(cfg))
	mux.Handler("GET", "/metrics", reg.Handler())

	mux.POST("/api/game", createGameHandler(cfg, mgr))
	mux.GET("/api/game/:code/ws", wsHandler(cfg, mgr))
	mux.GET("/api/game/:code/qr", qrHandler(cfg))

	if cfg.publicDir != "" {
		mux.ServeFiles("/public/*filepath", http.Dir(cfg.publicDir))
	}

	if cfg.profile {
		registerProfileHandlers(mux)
	}

	go func() {
		logf(cfg, "SERVE: Listening on http://%s/", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("%s | ERROR: %v\n", time.Now().Format(logDate), err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
