package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"keuangan/internal/auth"
	"keuangan/internal/cache"
	"keuangan/internal/core"
	"keuangan/internal/services"
)

type Server struct {
	http.Server
	finance  *services.FinanceService
	accounts *services.AccountService
	tokens   *auth.TokenIssuer

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Per-user dashboard caches, invalidated on every mutation.
	summaryCache *cache.LRUCache[core.Summary]
	chartCache   *cache.LRUCache[services.ChartData]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures all routes, returning a ready-to-run http.Server.
func NewServer(addr string, finance *services.FinanceService, accounts *services.AccountService, tokens *auth.TokenIssuer, uploadDir string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		finance:      finance,
		accounts:     accounts,
		tokens:       tokens,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		summaryCache: cache.NewLRUCache[core.Summary](1000, time.Minute),
		chartCache:   cache.NewLRUCache[services.ChartData](1000, time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.chartCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Public endpoints
	mux.HandleFunc("/api/auth/register", s.withSecurity(s.handleRegister))
	mux.HandleFunc("/api/auth/login", s.withSecurity(s.handleLogin))

	// Everything below requires a valid bearer token.
	mux.HandleFunc("/api/summary", s.withSecurity(s.authed(s.handleSummary)))
	mux.HandleFunc("/api/chart-data", s.withSecurity(s.authed(s.handleChartData)))
	mux.HandleFunc("/api/transaksi", s.withSecurity(s.authed(s.handleCreateTransaction)))
	mux.HandleFunc("/api/riwayat", s.withSecurity(s.authed(s.handleHistory)))
	mux.HandleFunc("/api/buku-besar", s.withSecurity(s.authed(s.handleLedger)))
	mux.HandleFunc("/api/tabungan", s.withSecurity(s.authed(s.handleSavings)))
	mux.HandleFunc("/api/tabungan/kelola", s.withSecurity(s.authed(s.handleManageSavings)))
	mux.HandleFunc("/api/profil", s.withSecurity(s.authed(s.handleProfile)))
	mux.HandleFunc("/api/profil/update", s.withSecurity(s.authed(s.handleUpdateProfile)))
	mux.HandleFunc("/api/profil/reset-password", s.withSecurity(s.authed(s.handleChangePassword)))
	mux.HandleFunc("/api/profil/upload-foto", s.withSecurity(s.authed(s.handleUploadPhoto)))
	mux.HandleFunc("/api/profil/reset-data", s.withSecurity(s.authed(s.handleResetData)))

	// Uploaded profile photos
	if uploadDir != "" {
		photos := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
		mux.Handle("/uploads/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			photos.ServeHTTP(w, r)
		}))
	}

	return s
}

func userCacheKey(uid int64) string {
	return strconv.FormatInt(uid, 10)
}

// invalidateUser drops the user's cached dashboard data after a mutation.
func (s *Server) invalidateUser(uid int64) {
	key := userCacheKey(uid)
	s.summaryCache.Delete(key)
	s.chartCache.Delete(key)
}

// authed wraps a handler with bearer-token auth.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return s.tokens.Middleware(next).ServeHTTP
}

// withSecurity adds security headers, rate limiting, and request logging.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.String())
		}

		// Rate limit mutating requests only
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "terlalu banyak permintaan, coba lagi nanti")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
