// Package server 提供 faleproxy 的 HTTP 接口
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nerdneilsfield/faleproxy/internal/config"
	"github.com/nerdneilsfield/faleproxy/internal/document"
	"github.com/nerdneilsfield/faleproxy/internal/fetch"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DocumentTransformer 对下载的 HTML 做改写
type DocumentTransformer interface {
	Transform(src string) (*document.Result, error)
}

// Options 服务依赖
type Options struct {
	Config      config.ServerConfig
	Fetcher     fetch.Fetcher
	Transformer DocumentTransformer
	Logger      *zap.Logger
}

// Server faleproxy HTTP 服务
type Server struct {
	config      config.ServerConfig
	fetcher     fetch.Fetcher
	transformer DocumentTransformer
	limiter     *rate.Limiter
	logger      *zap.Logger
	handler     http.Handler
}

// New 创建服务并注册路由
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:      opts.Config,
		fetcher:     opts.Fetcher,
		transformer: opts.Transformer,
		logger:      logger,
	}
	if opts.Config.RateLimit > 0 {
		burst := opts.Config.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.Config.RateLimit), burst)
	}

	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, s.accessLog, middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.With(s.rateLimit).Post("/fetch", s.handleFetch)
	r.Handle("/*", staticHandler())

	return r
}

// Handler 返回根 http.Handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run 监听配置的地址，直到 ctx 结束
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.config.Addr())
	}
	return s.Serve(ctx, ln)
}

// Serve 在 ln 上提供服务，ctx 结束后优雅关闭
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		ErrorLog:     zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("faleproxy server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
