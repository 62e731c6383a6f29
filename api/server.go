package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ogeth777/baseworld/broker"
	"github.com/ogeth777/baseworld/canvas"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"
	"github.com/ogeth777/baseworld/leaderboard"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

const maxBodySize = 1 << 16

// Engine is the canvas as seen by the API.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/engine_mock.go -package mocks github.com/ogeth777/baseworld/api Engine
type Engine interface {
	Paint(ctx context.Context, req canvas.PaintRequest) error
	UserState(actor string) canvas.UserState
	ClaimAirdrop(actor, id string) error
	Leaderboard() []leaderboard.Entry
	Stats(viewers int) canvas.Stats
	Subscribe() *broker.Subscription
}

// ViewerCounter returns the number of connected viewers.
type ViewerCounter interface {
	Count() int
}

type Server struct {
	*httprouter.Router

	log      *logging.Logger
	cfg      Config
	engine   Engine
	viewers  ViewerCounter
	limiter  *limiter.Limiter
	upgrader websocket.Upgrader
	s        *http.Server
}

func New(log *logging.Logger, cfg Config, metricsCfg metrics.Config, engine Engine, viewers ViewerCounter) *Server {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	s := &Server{
		Router:  httprouter.New(),
		log:     log,
		cfg:     cfg,
		engine:  engine,
		viewers: viewers,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1 << 15,
		CheckOrigin:     s.originAllowed,
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window.Get() > 0 {
		window := cfg.RateLimit.Window.Get()
		s.limiter = tollbooth.NewLimiter(
			float64(cfg.RateLimit.Requests)/window.Seconds(),
			&limiter.ExpirableOptions{DefaultExpirationTTL: window},
		)
		s.limiter.SetBurst(cfg.RateLimit.Requests)
	}

	s.POST("/api/paint", s.limit(s.Paint))
	s.GET("/api/user/:address", s.limit(s.User))
	s.POST("/api/airdrop/claim", s.limit(s.ClaimAirdrop))
	s.GET("/api/leaderboard", s.limit(s.Leaderboard))
	s.GET("/api/stats", s.limit(s.Stats))
	s.GET("/ws", s.Stream)
	if metricsCfg.Enabled {
		s.Handler(http.MethodGet, metricsCfg.Path, metrics.Handler())
	}
	return s
}

// ReloadConf updates the internal configuration.
func (s *Server) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
}

// HTTPHandler returns the router wrapped in the cors and security headers
// middlewares.
func (s *Server) HTTPHandler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(securityHeaders(s))
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.s = &http.Server{
		Addr:              fmt.Sprintf("%s:%v", s.cfg.IP, s.cfg.Port),
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("starting http server", logging.String("address", s.s.Addr))
	if err := s.s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.s == nil {
		return nil
	}
	s.log.Info("stopping http server")
	return s.s.Shutdown(ctx)
}

func (s *Server) limit(h httprouter.Handle) httprouter.Handle {
	if s.limiter == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if httpErr := tollbooth.LimitByRequest(s.limiter, w, r); httpErr != nil {
			s.log.Debug("rate limited", logging.String("remote", r.RemoteAddr))
			writeError(w, newError(CodeRateLimited, "too many requests"), httpErr.StatusCode)
			return
		}
		h(w, r, ps)
	}
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		next.ServeHTTP(w, r)
	})
}

func unmarshalBody(r *http.Request, into interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return ErrInvalidRequest
	}
	if err := json.Unmarshal(body, into); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

func writeError(w http.ResponseWriter, e error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(e)
	w.Write(buf)
}

func writeSuccess(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(data)
	w.Write(buf)
}
