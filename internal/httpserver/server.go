// internal/httpserver/server.go
//
// HTTP server wiring for the pro-player guessing game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): /api/game/*, /api/players, /api/stats.
//   - Admin endpoint gated by X-Admin-Key; debug answer read in development.
//   - Multiplayer websocket endpoint under /ws/match.
//   - JWT + cookie handling, anonymous session cookie.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is
//     present; guests play under a stable anonymous cookie identity.

package httpserver

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/answer"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/attempt"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/match"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/stats"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

// Server bundles the router and the game components it fronts.
type Server struct {
	r        *chi.Mux
	db       *sql.DB // users table only; game data goes through store
	store    storage.Store
	selector *answer.Selector
	tracker  *attempt.Tracker
	stats    *stats.Aggregator
	mm       *match.Matchmaker
}

// New constructs a Server, installs middleware, and registers routes.
func New(db *sql.DB, store storage.Store, selector *answer.Selector,
	tracker *attempt.Tracker, agg *stats.Aggregator, mm *match.Matchmaker) *Server {

	s := &Server{
		r:        chi.NewRouter(),
		db:       db,
		store:    store,
		selector: selector,
		tracker:  tracker,
		stats:    agg,
		mm:       mm,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"leaguewordle-go","endpoints":["/health","/api/game/today","/api/players","POST /api/game/guess","/api/game/state","/api/stats","/ws/match","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints — OPTIONAL AUTH (guests play under the anon cookie).
	s.r.Route("/api", func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Get("/game/today", s.handleToday)
		r.Get("/game/state", s.handleState)
		r.Post("/game/guess", s.handleGuess)
		r.Get("/players", s.handlePlayers)
		r.Get("/stats", s.handleStats)

		r.With(requireAdminKey).Post("/admin/answers/ensure", s.handleEnsureAnswers)

		if getEnv("APP_ENV", "development") == "development" {
			r.Get("/debug/answer", s.handleDebugAnswer)
		}
	})

	// Multiplayer websocket.
	s.r.With(s.withOptionalAuth()).Get("/ws/match", s.handleMatchSocket)

	// Auth + profile.
	s.mountAuthRoutes()

	// JSON 404 for easier debugging.
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdminKey gates admin operations on the X-Admin-Key header. An unset
// ADMIN_API_KEY disables the endpoint entirely.
func requireAdminKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := os.Getenv("ADMIN_API_KEY")
		if key == "" || r.Header.Get("X-Admin-Key") != key {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ identity -----------------------------------

const anonCookieName = "lw_anon"

// identity returns the stable identity string for this request: the
// authenticated user id when present, otherwise the anonymous cookie token.
// The two namespaces are prefixed so they can never collide or merge.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return "user:" + me.ID
	}
	return "anon:" + s.ensureAnonID(w, r)
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	secure := getEnv("APP_ENV", "development") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// ------------------------------- small util --------------------------------

// gameToken derives the opaque per-day token from the date key. It identifies
// the day's game without leaking anything about the answer.
func gameToken(date string) string {
	mac := hmac.New(sha256.New, []byte(getEnv("GAME_TOKEN_SALT", "local_dev_salt")))
	mac.Write([]byte(date))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
