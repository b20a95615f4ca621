// Package routes wires the HTTP handlers into a gin engine.
package routes

import (
	"context"
	"net/http"
	"time"

	"dietcoach/auth"
	"dietcoach/logging"
	"dietcoach/repository"
	"dietcoach/services"
	"dietcoach/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Logger      *zap.Logger
	CORSOrigins []string

	Auth     *auth.Handler
	API      *services.API
	Tokens   *auth.Tokens
	Sessions repository.SessionRepository

	// Ping checks the database for /health. Nil skips the check.
	Ping func(ctx context.Context) error
}

func SetupRouter(d Deps) *gin.Engine {
	validation.Register()

	r := gin.New()
	r.Use(logging.RequestLogger(d.Logger), logging.Recovery(d.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.GET("/health", health(d.Ping))

	requireAuth := auth.AuthMiddleware(d.Tokens, d.Sessions)

	a := r.Group("/auth")
	a.POST("/register", d.Auth.Register)
	a.POST("/login", d.Auth.Login)
	a.GET("/google/login", d.Auth.GoogleLogin)
	a.GET("/google/callback", d.Auth.GoogleCallback)
	a.POST("/logout", requireAuth, d.Auth.Logout)
	a.GET("/me", requireAuth, d.Auth.Me)
	a.PUT("/me", requireAuth, d.Auth.UpdateMe)
	a.PUT("/password", requireAuth, d.Auth.ChangePassword)

	api := d.API
	p := r.Group("/", requireAuth)

	p.GET("/clients", api.ListClients)
	p.POST("/clients", api.CreateClient)
	p.GET("/clients/:id", api.GetClient)
	p.PUT("/clients/:id", api.UpdateClient)
	p.DELETE("/clients/:id", api.DeleteClient)
	p.POST("/clients/:id/avatar", api.UploadClientAvatar)
	p.POST("/clients/:id/reference-code", api.RegenerateReferenceCode)
	p.DELETE("/clients/:id/telegram", api.UnlinkTelegram)
	p.GET("/clients/:id/progress", api.ClientProgress)

	p.GET("/measurements", api.ListMeasurements)
	p.POST("/measurements", api.CreateMeasurement)
	p.GET("/measurements/:id", api.GetMeasurement)
	p.PUT("/measurements/:id", api.UpdateMeasurement)
	p.DELETE("/measurements/:id", api.DeleteMeasurement)

	p.GET("/dietplans", api.ListDietPlans)
	p.POST("/dietplans", api.CreateDietPlan)
	p.GET("/dietplans/:id", api.GetDietPlan)
	p.PUT("/dietplans/:id", api.UpdateDietPlan)
	p.DELETE("/dietplans/:id", api.DeleteDietPlan)
	p.POST("/dietplans/:id/activate", api.ActivateDietPlan)

	p.GET("/appointments", api.ListAppointments)
	p.POST("/appointments", api.CreateAppointment)
	p.GET("/appointments/:id", api.GetAppointment)
	p.PUT("/appointments/:id", api.UpdateAppointment)
	p.DELETE("/appointments/:id", api.DeleteAppointment)
	p.POST("/appointments/:id/cancel", api.CancelAppointment)
	p.POST("/appointments/:id/complete", api.CompleteAppointment)

	p.GET("/activities", api.ListActivities)
	p.POST("/activities", api.CreateActivity)
	p.DELETE("/activities/:id", api.DeleteActivity)

	p.GET("/dashboard", api.Dashboard)

	p.POST("/upload", api.Upload)
	p.DELETE("/upload", api.DeleteUpload)

	return r
}

func health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				zap.L().Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}
