package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/noah-isme/grading-admin-api/internal/middleware"
	"github.com/noah-isme/grading-admin-api/internal/models"
	"github.com/noah-isme/grading-admin-api/internal/service"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
	"github.com/noah-isme/grading-admin-api/pkg/export"
	"github.com/noah-isme/grading-admin-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Topics(ctx context.Context, key string) ([]models.TopicEntry, error)
}

type performanceService interface {
	Report(ctx context.Context, req service.PerformanceRequest) (*models.StudentPerformanceReport, bool, error)
}

type documentRenderer interface {
	Render(doc export.Document, format models.ReportFormat) ([]byte, string, error)
}

// StudentHandler exposes student lookups and the performance report.
type StudentHandler struct {
	students    studentService
	performance performanceService
	renderer    documentRenderer
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, performance performanceService, renderer documentRenderer) *StudentHandler {
	return &StudentHandler{students: students, performance: performance, renderer: renderer}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name, ID or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     cast.ToInt(c.DefaultQuery("page", "1")),
		PageSize: cast.ToInt(c.DefaultQuery("limit", "20")),
	}
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Topics godoc
// @Summary Topics a student is rostered in
// @Tags Students
// @Produce json
// @Param student path string true "Student ID or name"
// @Success 200 {object} response.Envelope
// @Router /students/{student}/topics [get]
func (h *StudentHandler) Topics(c *gin.Context) {
	topics, err := h.students.Topics(c.Request.Context(), c.Param("student"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topics, nil)
}

// Performance godoc
// @Summary Student performance report
// @Description Classes, weekly tests and assignments over a date window. Defaults to the last 7 days.
// @Tags Students
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param student path string true "Student ID or name"
// @Param topicId query string false "Restrict to one topic"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Param format query string false "json | csv | pdf"
// @Success 200 {object} response.Envelope
// @Router /students/{student}/performance [get]
func (h *StudentHandler) Performance(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json")))
	if format != "json" && format != string(models.ReportFormatCSV) && format != string(models.ReportFormatPDF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
		return
	}
	report, hit, err := h.performance.Report(c.Request.Context(), service.PerformanceRequest{
		Student:   c.Param("student"),
		TopicID:   c.Query("topicId"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if format == "json" {
		middleware.SetCacheHit(c, hit)
		if report.FailedLoads > 0 {
			middleware.SetMeta(c, failedFetchesMeta, report.FailedLoads)
		}
		response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
		return
	}

	reportFormat := models.ReportFormat(format)
	data, contentType, err := h.renderer.Render(service.PerformanceDocument(*report), reportFormat)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report"))
		return
	}
	filename := service.ExportFilename(models.ReportTypeStudentPerformance, report.StudentName, reportFormat, time.Now())
	response.Attachment(c, filename, contentType, data)
}
