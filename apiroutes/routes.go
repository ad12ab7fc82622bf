package apiroutes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lettermail/go-lettermail-server/api"
	restinterceptors "github.com/lettermail/go-lettermail-server/api/interceptors"
	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/metrics"
	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/services"
)

// REST API routes
func ConfigRoutes(router *gin.Engine, db *sql.DB, store services.AttachmentStore, loginLimiter services.LoginLimiter, taskClient *asynq.Client) *gin.Engine {
	// init metrics
	if global.Conf.Prometheus.Enabled {

		metrics.InitMetrics()

		authorized := router.Group("/metrics", gin.BasicAuth(gin.Accounts{
			global.Conf.Prometheus.Username: global.Conf.Prometheus.Password,
		}))

		authorized.GET("", gin.WrapH(promhttp.Handler()))
	}

	// REPOSITORY definitions
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	emailRepo := repository.NewEmailRepository(db)

	// SERVICE definitions
	userService := services.NewUserService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, global.Conf.Session.DurationHours)
	mailService := services.NewMailService(emailRepo, userRepo)
	deleteService := services.NewDeleteService(emailRepo, store, taskClient)

	// API definitions
	accountApi := api.NewUserAccountApi(userService, sessionService, loginLimiter)
	mailApi := api.NewMailApi(mailService, store)
	mailDeleteApi := api.NewMailDeleteApi(deleteService)
	healthApi := api.NewHealthCheckAPI()

	// PUBLIC API
	publicApi := router.Group("/api", metrics.MetricsMiddleware(), restinterceptors.RateLimitMiddleware())
	{
		publicApi.GET("/v1/healthcheck", healthApi.HealthCheck)
		publicApi.POST("/v1/signup", accountApi.Signup)
		publicApi.POST("/v1/signin", accountApi.Signin)
	}

	// SESSION protected API
	rootApi := router.Group("/api", metrics.MetricsMiddleware(), restinterceptors.RateLimitMiddleware(), restinterceptors.SessionMiddleware(sessionService))
	{
		rootApi.POST("/v1/signout", accountApi.Signout)
		rootApi.GET("/v1/user/me", accountApi.Me)
		rootApi.GET("/v1/user/recipients", accountApi.ListRecipients)

		rootApi.POST("/v1/emails", mailApi.Send)
		rootApi.GET("/v1/inbox", mailApi.Inbox)
		rootApi.GET("/v1/outbox", mailApi.Outbox)
		rootApi.GET("/v1/emails/:id", mailApi.GetEmail)
		rootApi.GET("/v1/emails/:id/attachment", mailApi.DownloadAttachment)

		rootApi.DELETE("/v1/emails/:id", mailDeleteApi.DeleteEmail)
		rootApi.DELETE("/v1/emails", mailDeleteApi.BulkDelete)
	}

	return router
}
