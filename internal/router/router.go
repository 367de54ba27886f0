package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/grading-admin-api/internal/handler"
	"github.com/noah-isme/grading-admin-api/internal/middleware"
	"github.com/noah-isme/grading-admin-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	APIPrefix     string
	EnableDocs    bool
	Auth          middleware.TokenValidator
	Catalog       *handler.CatalogHandler
	Grading       *handler.GradingHandler
	TeacherReport *handler.TeacherReportHandler
	Students      *handler.StudentHandler
	Reports       *handler.ReportHandler
	Metrics       *handler.MetricsHandler
}

// Register wires the HTTP routes into the gin engine.
func Register(r *gin.Engine, deps Dependencies) {
	if deps.Metrics != nil {
		r.GET("/health", deps.Metrics.Health)
		r.GET("/ready", deps.Metrics.Ready)
		r.GET("/metrics", deps.Metrics.Prometheus)
	}
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := strings.TrimRight(deps.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	// Signed download links carry their own authorisation.
	if deps.Reports != nil {
		api.GET("/export/:token", deps.Reports.DownloadReport)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))
	secured.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))

	if deps.Catalog != nil {
		secured.GET("/courses", deps.Catalog.Courses)
		secured.GET("/topics", deps.Catalog.Topics)
	}

	if deps.Grading != nil {
		topics := secured.Group("/topics/:topicId/assignments")
		topics.GET("", deps.Grading.Assignments)
		topics.GET("/:title/submissions", deps.Grading.Submissions)
		topics.PUT("/:title/submissions/:student/grade", deps.Grading.Grade)
		topics.PUT("/:title/submissions/:student/supervision", deps.Grading.Supervision)

		grading := secured.Group("/grading")
		grading.GET("/pending", deps.Grading.Pending)
		grading.GET("/unmarked", deps.Grading.Unmarked)
		grading.GET("/marked", deps.Grading.Marked)
		if deps.TeacherReport != nil {
			grading.GET("/teachers", deps.TeacherReport.Report)
			grading.GET("/teachers/:teacher/assignments", deps.TeacherReport.GradedStudents)
		}
	}

	if deps.Students != nil {
		students := secured.Group("/students")
		students.GET("", deps.Students.List)
		students.GET("/:student/topics", deps.Students.Topics)
		students.GET("/:student/performance", deps.Students.Performance)
	}

	if deps.Reports != nil {
		reports := secured.Group("/reports")
		reports.POST("/generate", deps.Reports.GenerateReport)
		reports.GET("/:id", deps.Reports.ReportStatus)
	}
}
