// Package storeserver serves any service.Service over the REST task API that the
// rest backend speaks:
//
//	GET    /api/todos      list
//	POST   /api/todos      create  {"text"}            -> 201
//	PUT    /api/todos/:id  update  {"text","completed"} (partial)
//	DELETE /api/todos/:id  delete                       -> 204
//
// Errors are {"error": msg}. Prometheus metrics are exposed on /metrics.
package storeserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"todo/internal/backend/rest"
	"todo/internal/service"
)

// BasePath is the task collection route.
const BasePath = "/api/todos"

type createRequest struct {
	Text string `json:"text" validate:"required,notblank"`
}

type updateRequest struct {
	Text      *string `json:"text" validate:"omitempty,notblank"`
	Completed *bool   `json:"completed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the REST task store.
type Server struct {
	store    service.Service
	log      logrus.FieldLogger
	limiter  *rate.Limiter
	validate *validator.Validate
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithRateLimit throttles all task routes to rps requests per second with the
// given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a Server backed by store.
func New(store service.Service, opts ...Option) *Server {
	s := &Server{
		store:    store,
		log:      logrus.StandardLogger(),
		validate: validator.New(),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_store_requests_total",
			Help: "Task API requests by route and status code.",
		}, []string{"route", "code"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_store_errors_total",
			Help: "Task API requests that failed in the backing store.",
		}, []string{"op"}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	s.registry.MustRegister(s.requests, s.failures)

	router := gin.New()
	router.Use(gin.Recovery(), s.observe)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := router.Group(BasePath, s.rateLimit)
	{
		api.GET("", s.handleList)
		api.POST("", s.handleCreate)
		api.PUT("/:id", s.handleUpdate)
		api.DELETE("/:id", s.handleDelete)
	}
	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("task store listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	s.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	s.log.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"route":      route,
		"status":     c.Writer.Status(),
		"duration":   time.Since(start),
		"request_id": c.GetHeader(rest.RequestIDHeader),
	}).Debug("request")
}

func (s *Server) rateLimit(c *gin.Context) {
	if s.limiter != nil && !s.limiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests, try again later"})
		return
	}
	c.Next()
}

func (s *Server) handleList(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.fail(c, service.OpList, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if !s.bind(c, &req) {
		return
	}
	task, err := s.store.CreateTask(c.Request.Context(), req.Text)
	if err != nil {
		s.fail(c, service.OpCreate, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdate(c *gin.Context) {
	var req updateRequest
	if !s.bind(c, &req) {
		return
	}
	patch := service.TaskPatch{Text: req.Text, Completed: req.Completed}
	if patch.Empty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "nothing to update"})
		return
	}
	task, err := s.store.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, service.OpUpdate, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.store.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, service.OpDelete, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bind decodes and validates the JSON body, answering 400 on failure.
func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Text" {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "task text required"})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "task not found"})
	case errors.Is(err, service.ErrInvalidText):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "task text required"})
	default:
		s.failures.WithLabelValues(op).Inc()
		s.log.WithError(err).WithField("op", op).Error("store operation failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
