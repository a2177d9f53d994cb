package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facegate/internal/api/handlers"
	"github.com/your-org/facegate/internal/api/ws"
	"github.com/your-org/facegate/internal/auth"
	"github.com/your-org/facegate/internal/embedder"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/queue"
	"github.com/your-org/facegate/internal/recognition"
	"github.com/your-org/facegate/internal/storage"
)

type RouterConfig struct {
	Sessions        *auth.Sessions
	DB              *storage.PostgresStore
	Evidence        *storage.EvidenceStore
	Engine          *recognition.Engine
	Embedder        *embedder.Client
	Producer        *queue.Producer
	Hub             *ws.Hub
	AllowedOrigins  []string
	ViewerListLimit int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Evidence, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := handlers.NewAuthHandler(cfg.DB, cfg.Sessions)

	// API v1
	v1 := r.Group("/v1")
	v1.POST("/login", authH.Login)

	// Everything below requires a valid session token.
	v1.Use(auth.Middleware(cfg.Sessions))

	// Live decision feed
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Users
	v1.POST("/users", auth.RequireRole(models.RoleAdmin), authH.CreateUser)
	v1.DELETE("/users/:id", auth.RequireRole(models.RoleAdmin), authH.DeactivateUser)

	// Persons
	personH := handlers.NewPersonHandler(cfg.DB, cfg.Evidence, cfg.Embedder, cfg.ViewerListLimit)
	v1.POST("/persons", auth.RequireRole(models.RoleAdmin), personH.Enroll)
	v1.GET("/persons", personH.List)
	v1.GET("/persons/:id", personH.Get)

	// Recognition
	recognizeH := handlers.NewRecognizeHandler(cfg.Engine, cfg.Embedder, cfg.Evidence, cfg.Producer)
	v1.POST("/recognize", auth.RequireRole(models.RoleAdmin, models.RoleViewer), recognizeH.Recognize)

	// Cameras
	cameraH := handlers.NewCameraHandler(cfg.DB)
	v1.POST("/cameras", auth.RequireRole(models.RoleAdmin), cameraH.Create)
	v1.GET("/cameras", cameraH.List)

	// Events
	eventH := handlers.NewEventHandler(cfg.DB, cfg.Evidence)
	v1.POST("/events", auth.RequireRole(models.RoleAdmin), eventH.Record)
	v1.GET("/events", eventH.List)
	v1.GET("/events/snapshot", eventH.Snapshot)

	return r
}
