package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/handler"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/service"
	"github.com/noah-isme/campus-placement-api/pkg/config"
	"github.com/noah-isme/campus-placement-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-placement-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth         middleware.TokenValidator
	audit        middleware.AuditWriter
	metrics      *service.MetricsService
	applications *handler.ApplicationHandler
	jobs         *handler.JobHandler
	drives       *handler.DriveHandler
	exports      *handler.ExportHandler
	reconcile    *handler.ReconcileHandler
	health       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	tpo := string(models.RoleTPO)
	management := string(models.RoleManagement)
	superUser := string(models.RoleSuperUser)
	audit := func(action, resource, param string) gin.HandlerFunc {
		return middleware.Audit(deps.audit, logr, action, resource, param)
	}

	api := r.Group(cfg.APIPrefix)

	// Signed links authenticate themselves.
	api.GET("/placement/exports/:token", deps.exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))

	students := secured.Group("/students/:studentId")
	{
		students.PUT("/jobs/:jobId/apply", middleware.RBAC(middleware.Self, tpo), deps.applications.Apply)
		students.GET("/jobs/:jobId/applied", middleware.RBAC(middleware.Self, tpo, management, superUser), deps.applications.CheckApplied)
		students.GET("/placement-status", middleware.RBAC(middleware.Self, tpo, management, superUser), deps.applications.PlacementStatus)
		students.POST("/jobs/:jobId/status", middleware.RBAC(tpo), audit(models.AuditActionStatusUpdate, "application", "jobId"), deps.applications.UpdateStatus)
	}

	jobs := secured.Group("/jobs")
	jobs.Use(middleware.RBAC(tpo))
	{
		jobs.POST("", audit(models.AuditActionJobCreate, "job", ""), deps.jobs.Create)
		jobs.GET("/:jobId", deps.jobs.Get)
		jobs.PUT("/:jobId", audit(models.AuditActionJobUpdate, "job", "jobId"), deps.jobs.Update)
		jobs.DELETE("/:jobId", audit(models.AuditActionJobDelete, "job", "jobId"), deps.jobs.Delete)
		jobs.POST("/:jobId/notify-eligible", audit(models.AuditActionEligibilitySweep, "job", "jobId"), deps.jobs.NotifyEligible)
	}

	drives := secured.Group("/placement")
	{
		staff := drives.Group("")
		staff.Use(middleware.RBAC(tpo))
		staff.GET("/export/:jobId", deps.exports.Export)
		staff.POST("/shortlist/:jobId", audit(models.AuditActionShortlistBatch, "job", "jobId"), deps.drives.Shortlist)
		staff.POST("/interview-round/:jobId/:studentId", audit(models.AuditActionRoundUpdate, "application", "jobId"), deps.drives.InterviewRound)
		staff.POST("/mark-placed/:jobId", audit(models.AuditActionMarkPlaced, "job", "jobId"), deps.drives.MarkPlaced)
		staff.POST("/finish-drive/:jobId", audit(models.AuditActionFinishDrive, "job", "jobId"), deps.drives.FinishDrive)
		staff.GET("/status/:jobId", deps.drives.WorkflowStatus)
		staff.GET("/recent", deps.drives.Recent)

		admin := drives.Group("")
		admin.Use(middleware.RBAC(management, superUser))
		admin.POST("/reconcile", audit(models.AuditActionReconcile, "application", ""), deps.reconcile.RunOnce)
		admin.POST("/repair/:jobId/:studentId", audit(models.AuditActionReconcile, "application", "jobId"), deps.reconcile.Repair)
		admin.DELETE("/students/:studentId/applications", audit(models.AuditActionStudentPrune, "student", "studentId"), deps.applications.PruneStudent)
	}

	return r
}
