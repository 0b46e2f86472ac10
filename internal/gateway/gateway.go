package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	tierGateway  = "gateway"
	maxBodyBytes = 1 << 20
)

// Gateway validates incoming calls and forwards the valid ones to the server tier.
type Gateway struct {
	cfg      config.GatewayConfig
	client   *ServerClient
	limits   domain.LimitStore
	validate *validator.Validate
	logger   *zerolog.Logger
	now      func() time.Time
	router   chi.Router
	server   *http.Server
}

func NewGateway(cfg config.GatewayConfig, client *ServerClient, limits domain.LimitStore, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		cfg:      cfg,
		client:   client,
		limits:   limits,
		validate: newValidator(),
		logger:   logging.Component(logger, "gateway"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	g.router = g.routes()
	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           g.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return g
}

// SetClock replaces the time source used for booking validation.
func (g *Gateway) SetClock(now func() time.Time) {
	g.now = now
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Str("server_url", g.cfg.ServerURL).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

func (g *Gateway) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   g.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", models.UserIDHeader, logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(logging.RequestID)
	r.Use(logging.AccessLog(g.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware(tierGateway))
	r.Use(g.rateLimit)

	r.Get("/healthz", g.handleHealthz)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", g.handleCreateUser)
		r.Get("/", g.passThrough)
		r.Get("/{id}", g.withPathID(g.passThrough))
		r.Patch("/{id}", g.withPathID(g.handleUpdateUser))
		r.Delete("/{id}", g.withPathID(g.passThrough))
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", g.withUser(g.handleCreateItem))
		r.Get("/", g.withUser(g.withPaging(g.passThrough)))
		r.Get("/search", g.withPaging(g.passThrough))
		r.Get("/{id}", g.withUser(g.withPathID(g.passThrough)))
		r.Patch("/{id}", g.withUser(g.withPathID(g.handleUpdateItem)))
		r.Delete("/{id}", g.withUser(g.withPathID(g.passThrough)))
		r.Post("/{id}/comment", g.withUser(g.withPathID(g.handleAddComment)))
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", g.withUser(g.handleCreateBooking))
		r.Get("/", g.withUser(g.withState(g.withPaging(g.passThrough))))
		r.Get("/owner", g.withUser(g.withState(g.withPaging(g.passThrough))))
		r.Get("/export", g.withUser(g.withState(g.handleExport)))
		r.Get("/{id}", g.withUser(g.withPathID(g.passThrough)))
		r.Patch("/{id}", g.withUser(g.withPathID(g.handleSetApproval)))
	})

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", g.withUser(g.handleCreateRequest))
		r.Get("/", g.withUser(g.passThrough))
		r.Get("/all", g.withUser(g.withPaging(g.passThrough)))
		r.Get("/{id}", g.withUser(g.withPathID(g.passThrough)))
	})

	return r
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"breaker": g.client.State().String(),
	})
}

// rateLimit applies the shared fixed-window limit. A failing store lets the call through.
func (g *Gateway) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.limits == nil || g.cfg.RateLimit.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := clientKey(r)
		allowed, err := g.limits.CheckRateLimit(r.Context(), key, g.cfg.RateLimit.Requests, g.cfg.RateLimit.Window)
		if err != nil {
			g.logger.Error().Err(err).Str("key", key).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validation wrappers

func (g *Gateway) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(models.UserIDHeader))
		if raw == "" {
			writeError(w, http.StatusBadRequest, "missing "+models.UserIDHeader+" header")
			return
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid "+models.UserIDHeader+" header")
			return
		}
		next(w, r)
	}
}

func (g *Gateway) withPathID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64); err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		next(w, r)
	}
}

func (g *Gateway) withPaging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		from, err := intParam(query.Get("from"), models.DefaultPageFrom)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be an integer")
			return
		}
		size, err := intParam(query.Get("size"), models.DefaultPageSize)
		if err != nil {
			writeError(w, http.StatusBadRequest, "size must be an integer")
			return
		}
		if _, err := service.NewPage(from, size); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next(w, r)
	}
}

func (g *Gateway) withState(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := service.ParseBookingState(r.URL.Query().Get("state")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next(w, r)
	}
}

// body-validating handlers

func (g *Gateway) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var dto userCreateDTO
	g.validateAndForward(w, r, &dto, nil)
}

func (g *Gateway) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var dto userPatchDTO
	g.validateAndForward(w, r, &dto, nil)
}

func (g *Gateway) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var dto itemCreateDTO
	g.validateAndForward(w, r, &dto, nil)
}

func (g *Gateway) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var dto itemPatchDTO
	g.validateAndForward(w, r, &dto, nil)
}

func (g *Gateway) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var dto commentDTO
	g.validateAndForward(w, r, &dto, nil)
}

func (g *Gateway) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var dto itemRequestDTO
	g.validateAndForward(w, r, &dto, nil)
}

func (g *Gateway) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var dto bookingCreateDTO
	g.validateAndForward(w, r, &dto, func() error {
		return service.ValidateBookingTime(dto.Start.Time, dto.End.Time, g.now())
	})
}

func (g *Gateway) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	if _, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("approved"))); err != nil {
		writeError(w, http.StatusBadRequest, "approved must be true or false")
		return
	}
	g.forward(w, r, nil)
}

func (g *Gateway) handleExport(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("role") {
	case "", service.ExportRoleBooker, service.ExportRoleOwner:
		g.forward(w, r, nil)
	default:
		writeError(w, http.StatusBadRequest, "role must be booker or owner")
	}
}

func (g *Gateway) passThrough(w http.ResponseWriter, r *http.Request) {
	g.forward(w, r, nil)
}

// validateAndForward decodes the body into dto, validates it and forwards the raw body unchanged.
func (g *Gateway) validateAndForward(w http.ResponseWriter, r *http.Request, dto any, extra func() error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}
	if err := json.Unmarshal(body, dto); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	trimStrings(dto)
	if err := g.validate.Struct(dto); err != nil {
		writeError(w, http.StatusBadRequest, describeValidation(err))
		return
	}
	if extra != nil {
		if err := extra(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	g.forward(w, r, body)
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, body []byte) {
	userID := strings.TrimSpace(r.Header.Get(models.UserIDHeader))
	resp, err := g.client.Forward(r.Context(), r.Method, r.URL.RequestURI(), userID, body)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			g.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("server unavailable")
			writeError(w, http.StatusServiceUnavailable, "server is unavailable")
			return
		}
		g.logger.Error().Err(err).Str("path", r.URL.Path).Msg("forward failed")
		writeError(w, http.StatusBadGateway, "bad gateway")
		return
	}

	for _, h := range []string{"Content-Type", "Content-Disposition"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func clientKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(models.UserIDHeader)); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "ip:" + host
	}
	return "ip:unknown"
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
