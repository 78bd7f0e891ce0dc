package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/moments/internal/api/handlers"
	"github.com/your-org/moments/internal/api/ws"
	"github.com/your-org/moments/internal/ingest"
	"github.com/your-org/moments/internal/queue"
	"github.com/your-org/moments/internal/session"
	"github.com/your-org/moments/internal/storage"
)

type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadMB    int
	Store          storage.MomentStore
	Objects        storage.ObjectStore
	Producer       *queue.Producer // nil in single-binary mode
	Service        *ingest.Service
	Hub            *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", session.HeaderName},
		ExposeHeaders:    []string{session.HeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// System endpoints (no session)
	systemH := handlers.NewSystemHandler(cfg.Store, cfg.Objects, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	apiGroup.Use(session.Middleware())

	// WebSocket
	if cfg.Hub != nil {
		apiGroup.GET("/ws", cfg.Hub.HandleWS)
	}

	// Moments
	momentH := handlers.NewMomentHandler(cfg.Service, cfg.MaxUploadMB)
	apiGroup.POST("/process", momentH.Process)
	apiGroup.POST("/upload", momentH.Upload)
	apiGroup.GET("/moments", momentH.List)
	apiGroup.GET("/moments/:id", momentH.Get)
	apiGroup.GET("/moments/:id/image", momentH.Image)

	return r
}
