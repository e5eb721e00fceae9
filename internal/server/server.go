package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/subview/internal/config"
	"github.com/mgpai22/subview/internal/logging"
	"github.com/mgpai22/subview/internal/subtitle"
	"github.com/mgpai22/subview/internal/video"
)

// Previewer burns subtitles into a video.
type Previewer interface {
	Preview(ctx context.Context, req video.PreviewRequest) error
}

type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	previewer Previewer
	rules     subtitle.Rules
	router    *gin.Engine
}

func New(
	cfg *config.Config,
	previewer Previewer,
	rules subtitle.Rules,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		previewer: previewer,
		rules:     rules,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	r.Use(requestLogger(s.logger))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(bodyLimit(s.cfg.MaxUploadMB << 20))

	r.GET("/health", s.health)
	r.POST("/validate", s.validate)
	r.POST("/preview", s.preview)

	editor := r.Group("/editor")
	{
		editor.POST("/parse", s.edit)
		editor.POST("/render", s.render)
	}

	r.Static("/uploads", s.cfg.UploadDir)

	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Server listening",
			"addr", srv.Addr,
			"uploads", s.cfg.UploadDir,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Infow("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "subview",
	})
}
