package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"reflexion_agent/agent"
	"reflexion_agent/config"
	"reflexion_agent/generator"
	"reflexion_agent/render"
)

// Researcher is the loop behind the API.
type Researcher interface {
	Research(ctx context.Context, question string) (agent.Outcome, error)
}

type Server struct {
	loop   Researcher
	cfg    config.ServerConfig
	store  *runStore
	logger *zap.Logger
}

const defaultMaxRuns = 500

// runStore keeps the most recent runs; the oldest is evicted past max.
type runStore struct {
	mu    sync.Mutex
	max   int
	order []string
	runs  map[string]runResp
}

func newStore(limit int) *runStore {
	if limit <= 0 {
		limit = defaultMaxRuns
	}
	return &runStore{max: limit, runs: make(map[string]runResp)}
}

func (s *runStore) set(id string, run runResp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		s.order = append(s.order, id)
	}
	s.runs[id] = run
	for len(s.order) > s.max {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *runStore) get(id string) (runResp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	return run, ok
}

func New(loop Researcher, cfg config.ServerConfig, logger *zap.Logger) (*Server, error) {
	if loop == nil {
		return nil, errors.New("research loop required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		loop:   loop,
		cfg:    cfg,
		store:  newStore(cfg.MaxRuns),
		logger: logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/runs", s.handleRunCreate)
	api.GET("/runs/:id", s.handleRunGet)
	return r
}

// --- Handlers ---

type runCreateReq struct {
	Question string `json:"question" binding:"required"`
}

type roundResp struct {
	Phase   string   `json:"phase"`
	Queries []string `json:"queries"`
}

type runResp struct {
	RunID         string               `json:"run_id"`
	Question      string               `json:"question"`
	Answer        string               `json:"answer"`
	AnswerHTML    string               `json:"answer_html"`
	References    []string             `json:"references"`
	Reflection    generator.Reflection `json:"reflection"`
	DispatchCount int                  `json:"dispatch_count"`
	Drifts        int                  `json:"drifts"`
	Rounds        []roundResp          `json:"rounds"`
	CreatedAt     time.Time            `json:"created_at"`
}

func (s *Server) handleRunCreate(c *gin.Context) {
	var req runCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}
	out, err := s.loop.Research(ctx, req.Question)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := runResp{
		RunID:         out.RunID,
		Question:      req.Question,
		Answer:        out.Answer,
		References:    out.Final.Reference,
		Reflection:    out.Final.Reflection,
		DispatchCount: out.DispatchCount,
		Drifts:        out.Drifts,
		CreatedAt:     time.Now(),
	}
	if out.State != nil {
		for _, inv := range out.State.Invocations {
			resp.Rounds = append(resp.Rounds, roundResp{Phase: string(inv.Phase), Queries: inv.Queries})
		}
	}
	html, err := render.HTML(render.LinkCitations(out.Answer, out.Final.Reference))
	if err != nil {
		s.logger.Warn("render answer html", zap.String("run_id", out.RunID), zap.Error(err))
	}
	resp.AnswerHTML = html

	s.store.set(resp.RunID, resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRunGet(c *gin.Context) {
	run, ok := s.store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// --- Helpers ---

func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// generation failures and unparsable responses come from upstream
		return http.StatusBadGateway
	}
}

func (s *Server) logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if path == "" {
			path = "/"
		}
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
