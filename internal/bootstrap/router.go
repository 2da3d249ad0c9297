package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/planhaus/portal-backend/internal/api/http"
	"github.com/planhaus/portal-backend/internal/api/http/middleware"
	authhttp "github.com/planhaus/portal-backend/internal/auth/http"
	authmw "github.com/planhaus/portal-backend/internal/auth/middleware"
	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/payments"
	projecthttp "github.com/planhaus/portal-backend/internal/projects/http"
	"github.com/planhaus/portal-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Mode        string
	CORSOrigins []string
	Logger      *zap.Logger

	// nil in demo mode
	DB    *pgxpool.Pool
	Redis *redis.Client

	Events   events.Subscriber
	Auth     gin.HandlerFunc
	Profiles authhttp.ProfileReader
	Projects *service.ProjectService
	Activity *service.ActivityService
	Payments *payments.Service
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	if dep.Logger == nil {
		dep.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))

	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id", "X-User-Role", "X-User-Email"},
			ExposeHeaders:    []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Mode, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	// signed by the payment processor, not a user
	payments.NewHandler(dep.Payments).Register(r.Group("/webhooks"))

	api := r.Group("/api/v1")
	api.Use(dep.Auth)

	authhttp.New(dep.Profiles).Register(api)

	projects := projecthttp.New(dep.Projects, dep.Activity, dep.Events)
	projects.Register(api.Group("/projects"))

	admin := api.Group("/admin")
	admin.Use(authmw.RequireAdmin())
	projects.RegisterAdmin(admin)

	return r
}
