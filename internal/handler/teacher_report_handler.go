package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grading-admin-api/internal/middleware"
	"github.com/noah-isme/grading-admin-api/internal/models"
	"github.com/noah-isme/grading-admin-api/internal/service"
	"github.com/noah-isme/grading-admin-api/pkg/response"
)

type teacherReportService interface {
	Report(ctx context.Context, query service.TeacherReportQuery) (*models.TeacherReport, bool, error)
	GradedStudents(ctx context.Context, teacher, topicID, title string) ([]models.GradedStudentEntry, error)
}

// TeacherReportHandler exposes the grading leaderboard.
type TeacherReportHandler struct {
	service teacherReportService
}

// NewTeacherReportHandler constructs the handler.
func NewTeacherReportHandler(service teacherReportService) *TeacherReportHandler {
	return &TeacherReportHandler{service: service}
}

// Report godoc
// @Summary Teacher grading leaderboard
// @Tags Grading
// @Produce json
// @Param search query string false "Teacher name"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /grading/teachers [get]
func (h *TeacherReportHandler) Report(c *gin.Context) {
	report, hit, err := h.service.Report(c.Request.Context(), service.TeacherReportQuery{
		Search:    c.Query("search"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	if report.FailedFetches > 0 {
		middleware.SetMeta(c, failedFetchesMeta, report.FailedFetches)
	}
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// GradedStudents godoc
// @Summary Students graded by a teacher in one assignment
// @Tags Grading
// @Produce json
// @Param teacher path string true "Teacher name"
// @Param topicId query string true "Topic ID"
// @Param title query string true "Assignment title"
// @Success 200 {object} response.Envelope
// @Router /grading/teachers/{teacher}/assignments [get]
func (h *TeacherReportHandler) GradedStudents(c *gin.Context) {
	students, err := h.service.GradedStudents(c.Request.Context(), c.Param("teacher"), c.Query("topicId"), c.Query("title"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
