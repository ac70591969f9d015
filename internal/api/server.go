// Package api provides the HTTP API for browsing the galaxy and driving
// exploration.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/cors"

	"github.com/talgya/starfield/internal/galaxy"
	"github.com/talgya/starfield/internal/manager"
	"github.com/talgya/starfield/internal/persistence"
)

// MaxQueryRadius caps radius parameters on the spatial endpoints.
const MaxQueryRadius = 20000

// RateLimit configures per-IP limiting of POST endpoints.
type RateLimit struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// Server serves the galaxy over HTTP.
type Server struct {
	Manager        *manager.Manager
	Port           string
	AdminKey       string   // Bearer token for POST endpoints. Empty = POST disabled.
	AllowedOrigins []string // CORS origins; "*" allows any
	Backends       []string // storage backend names reported by /status
	RateLimit      RateLimit
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	limiter *RateLimiter
	srv     *http.Server
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		h = s.adminOnly(h)
		if s.RateLimit.Enabled {
			if s.limiter == nil {
				s.limiter = NewRateLimiter(s.RateLimit.RequestsPerSecond, s.RateLimit.Burst)
			}
			h = RateLimitMiddleware(s.limiter, h)
		}
		return h
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/stars", s.handleStars)
	mux.HandleFunc("GET /api/v1/system/{id}", s.handleSystem)
	mux.HandleFunc("GET /api/v1/current", s.handleCurrent)
	mux.HandleFunc("GET /api/v1/chunk", s.handleChunk)
	mux.HandleFunc("GET /api/v1/pause", s.handlePause)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/travel", admin(s.handleTravel))
	mux.HandleFunc("POST /api/v1/explore", admin(s.handleExplore))
	mux.HandleFunc("POST /api/v1/trade-route", admin(s.handleTradeRoute))
	mux.HandleFunc("POST /api/v1/reputation", admin(s.handleReputation))
	mux.HandleFunc("POST /api/v1/save", admin(s.handleSave))
	mux.HandleFunc("POST /api/v1/pause", admin(s.handlePause))

	c := cors.New(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

// Start begins serving the HTTP API in a goroutine. The rate limiter's idle
// sweep stops with ctx.
func (s *Server) Start(ctx context.Context) {
	handler := s.Handler()
	if s.limiter != nil {
		go s.limiter.RunCleanup(ctx, time.Minute, 3*time.Minute)
	}

	addr := ":" + s.Port
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "rate_limit", s.RateLimit.Enabled)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no STARFIELD_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Manager.Stats()
	saveID, savedAt := s.Manager.LastSave()

	status := map[string]any{
		"name":        "Starfield",
		"seed":        st.Seed,
		"stars":       st.TotalStars,
		"systems":     st.TotalSystems,
		"planets":     st.TotalPlanets,
		"explored":    st.ExploredSystems,
		"progress":    st.ExplorationProgress,
		"current":     st.CurrentSystemID,
		"paused":      s.Manager.Paused(),
		"backends":    s.Backends,
		"last_save":   saveID,
		"last_saved":  "never",
		"initialized": s.Manager.Galaxy() != nil,
	}
	if !savedAt.IsZero() {
		status["last_saved"] = humanize.Time(savedAt)
	}
	writeJSON(w, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	g := s.Manager.Galaxy()
	if g == nil {
		http.Error(w, "galaxy not initialized", http.StatusServiceUnavailable)
		return
	}

	spectral := make(map[string]int)
	for t, n := range g.SpectralCounts() {
		spectral[string(t)] = n
	}
	planets := make(map[string]int)
	for t, n := range g.PlanetTypeCounts() {
		planets[string(t)] = n
	}

	writeJSON(w, map[string]any{
		"exploration":   s.Manager.Stats(),
		"spectral":      spectral,
		"planet_types":  planets,
		"spiral_arms":   g.Config.SpiralArms,
		"galaxy_radius": g.Config.Size,
	})
}

// handleStars returns stars around x,y within radius, nearest first.
// Optional limit truncates the list.
func (s *Server) handleStars(w http.ResponseWriter, r *http.Request) {
	center, radius, err := parseRegion(r, galaxy.Vec2{}, 1000)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stars := s.Manager.StarsInRadius(center, radius)
	if lim, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && lim >= 0 && lim < len(stars) {
		stars = stars[:lim]
	}
	if stars == nil {
		stars = []galaxy.Star{}
	}
	writeJSON(w, map[string]any{
		"center": center,
		"radius": radius,
		"count":  len(stars),
		"stars":  stars,
	})
}

type systemView struct {
	*galaxy.StarSystem
	Explored   bool     `json:"explored"`
	Discovered []string `json:"discovered_planets"`
}

func (s *Server) viewOf(sys *galaxy.StarSystem) systemView {
	st := s.Manager.Exploration()
	v := systemView{StarSystem: sys, Explored: st.IsExplored(sys.ID), Discovered: []string{}}
	for _, p := range sys.Planets {
		if st.IsDiscovered(p.ID) {
			v.Discovered = append(v.Discovered, p.ID)
		}
	}
	return v
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sys, ok := s.Manager.SystemByID(id)
	if !ok {
		http.Error(w, "system not found", http.StatusNotFound)
		return
	}
	writeJSON(w, s.viewOf(sys))
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	sys, ok := s.Manager.CurrentSystem()
	if !ok {
		http.Error(w, "no current system", http.StatusNotFound)
		return
	}
	writeJSON(w, s.viewOf(sys))
}

// handleChunk returns compact systems for a region. Without x and y the
// region is centred on the player. all=true includes unexplored systems.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all := q.Get("all") == "true"

	var systems []persistence.CompactSystem
	if q.Get("x") == "" && q.Get("y") == "" && q.Get("radius") == "" {
		systems = s.Manager.Chunk(r.Context(), all)
	} else {
		center, radius, err := parseRegion(r, s.Manager.Position(), 2000)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		maxSystems := 200
		if v := q.Get("max"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "max must be a non-negative integer", http.StatusBadRequest)
				return
			}
			maxSystems = n
		}
		systems = s.Manager.ChunkAt(r.Context(), persistence.ChunkQuery{
			Center:            center,
			Radius:            radius,
			MaxSystems:        maxSystems,
			IncludeUnexplored: all,
		})
	}

	writeJSON(w, map[string]any{
		"count":   len(systems),
		"systems": systems,
	})
}

func (s *Server) handleTravel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SystemID string `json:"system_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SystemID == "" {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	sys, err := s.Manager.Travel(r.Context(), req.SystemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"system": s.viewOf(sys),
		"stats":  s.Manager.Stats(),
	})
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanetID string `json:"planet_id"`
		SystemID string `json:"system_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	resp := map[string]any{}
	switch {
	case req.PlanetID != "":
		isNew, err := s.Manager.DiscoverPlanet(req.PlanetID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp["planet_id"] = req.PlanetID
		resp["new"] = isNew
	case req.SystemID != "":
		isNew, err := s.Manager.MarkExplored(req.SystemID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp["system_id"] = req.SystemID
		resp["new"] = isNew
	default:
		http.Error(w, "planet_id or system_id required", http.StatusBadRequest)
		return
	}
	resp["stats"] = s.Manager.Stats()
	writeJSON(w, resp)
}

func (s *Server) handleTradeRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	isNew, err := s.Manager.OpenTradeRoute(req.From, req.To)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{"new": isNew, "routes": s.Manager.Exploration().TradeRoutes})
}

func (s *Server) handleReputation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Faction string  `json:"faction"`
		Delta   float64 `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Faction == "" {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"faction":    req.Faction,
		"reputation": s.Manager.AdjustReputation(req.Faction, req.Delta),
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Manager.Save(r.Context())
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"save_id":   snap.SaveID,
		"timestamp": snap.Timestamp,
		"systems":   len(snap.Systems),
		"message":   "snapshot saved",
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Paused bool `json:"paused"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.Manager.SetPaused(req.Paused)
	}
	writeJSON(w, map[string]bool{"paused": s.Manager.Paused()})
}

// parseRegion reads x, y and radius query parameters. Missing values take
// the given defaults; radius is capped at MaxQueryRadius.
func parseRegion(r *http.Request, center galaxy.Vec2, radius float64) (galaxy.Vec2, float64, error) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"x", &center.X}, {"y", &center.Y}, {"radius", &radius}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return center, 0, fmt.Errorf("invalid %s", p.name)
		}
		*p.dst = f
	}
	if radius < 0 {
		return center, 0, errors.New("radius must be non-negative")
	}
	if radius > MaxQueryRadius {
		radius = MaxQueryRadius
	}
	return center, radius, nil
}

// writeError maps manager errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrUnknownSystem), errors.Is(err, manager.ErrUnknownPlanet):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, manager.ErrNotInitialized):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, persistence.ErrNoBackends):
		http.Error(w, "storage not available", http.StatusServiceUnavailable)
	case errors.Is(err, manager.ErrInvalidRoute):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
