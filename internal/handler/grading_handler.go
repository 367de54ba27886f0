package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/noah-isme/grading-admin-api/internal/middleware"
	"github.com/noah-isme/grading-admin-api/internal/models"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
	"github.com/noah-isme/grading-admin-api/pkg/response"
)

type gradingService interface {
	Pending(ctx context.Context, filter models.PendingGradingFilter) (*models.PendingGradingOverview, bool, error)
	Unmarked(ctx context.Context) (*models.UnmarkedPapersReport, bool, error)
	Marked(ctx context.Context) (*models.MarkedPapersSummary, bool, error)
	Assignments(ctx context.Context, topicID string, filter models.AssignmentFilter) ([]models.Assignment, error)
	Submissions(ctx context.Context, topicID, title string, status models.SubmissionStatusFilter, search string) (*models.SubmissionOverview, error)
	Grade(ctx context.Context, key models.SubmissionKey, req models.GradeRequest, grader *models.JWTClaims) (*models.Submission, error)
	Supervision(ctx context.Context, key models.SubmissionKey, req models.SupervisionRequest) (*models.Submission, error)
}

// failedFetchesMeta reports how many store reads were skipped while building a view.
const failedFetchesMeta = "failed_fetches"

// GradingHandler exposes the grading overview and mutation endpoints.
type GradingHandler struct {
	service gradingService
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service gradingService) *GradingHandler {
	return &GradingHandler{service: service}
}

// Pending godoc
// @Summary Ungraded weekly tests grouped by course
// @Tags Grading
// @Produce json
// @Param courseId query string false "Course ID"
// @Param deadline query string false "all | overdue | progress"
// @Param urgent query bool false "Only entries past their grading deadline"
// @Success 200 {object} response.Envelope
// @Router /grading/pending [get]
func (h *GradingHandler) Pending(c *gin.Context) {
	filter := models.PendingGradingFilter{
		CourseID:   strings.TrimSpace(c.Query("courseId")),
		Deadline:   models.GradingDeadlineFilter(strings.TrimSpace(c.Query("deadline"))),
		UrgentOnly: cast.ToBool(c.Query("urgent")),
	}
	overview, hit, err := h.service.Pending(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	if overview.FailedFetches > 0 {
		middleware.SetMeta(c, failedFetchesMeta, overview.FailedFetches)
	}
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}

// Unmarked godoc
// @Summary Submitted but ungraded papers
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading/unmarked [get]
func (h *GradingHandler) Unmarked(c *gin.Context) {
	report, hit, err := h.service.Unmarked(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Marked godoc
// @Summary Marked papers split by grading deadline
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading/marked [get]
func (h *GradingHandler) Marked(c *gin.Context) {
	summary, hit, err := h.service.Marked(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Assignments godoc
// @Summary Weekly tests of a topic
// @Tags Grading
// @Produce json
// @Param topicId path string true "Topic ID"
// @Param status query string false "all | overdue | in-progress"
// @Param search query string false "Title or teacher name"
// @Success 200 {object} response.Envelope
// @Router /topics/{topicId}/assignments [get]
func (h *GradingHandler) Assignments(c *gin.Context) {
	filter := models.AssignmentFilter{
		Status: models.AssignmentFilterStatus(strings.TrimSpace(c.Query("status"))),
		Search: strings.TrimSpace(c.Query("search")),
	}
	assignments, err := h.service.Assignments(c.Request.Context(), c.Param("topicId"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Submissions godoc
// @Summary Submissions of an assignment grouped by category
// @Tags Grading
// @Produce json
// @Param topicId path string true "Topic ID"
// @Param title path string true "Assignment title"
// @Param status query string false "all | graded | submitted | pending"
// @Param search query string false "Student name"
// @Success 200 {object} response.Envelope
// @Router /topics/{topicId}/assignments/{title}/submissions [get]
func (h *GradingHandler) Submissions(c *gin.Context) {
	status := models.SubmissionStatusFilter(strings.TrimSpace(c.Query("status")))
	overview, err := h.service.Submissions(c.Request.Context(), c.Param("topicId"), c.Param("title"), status, strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Grade godoc
// @Summary Grade a submission
// @Description Records marks and feedback; the grader is taken from the access token.
// @Tags Grading
// @Accept json
// @Produce json
// @Param topicId path string true "Topic ID"
// @Param title path string true "Assignment title"
// @Param student path string true "Student name or ID"
// @Param payload body models.GradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /topics/{topicId}/assignments/{title}/submissions/{student}/grade [put]
func (h *GradingHandler) Grade(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid grade payload"))
		return
	}
	sub, err := h.service.Grade(c.Request.Context(), submissionKey(c), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Supervision godoc
// @Summary Set or clear a supervision verdict
// @Description A null approval clears the verdict and its timestamp.
// @Tags Grading
// @Accept json
// @Produce json
// @Param topicId path string true "Topic ID"
// @Param title path string true "Assignment title"
// @Param student path string true "Student name or ID"
// @Param payload body models.SupervisionRequest true "Supervision payload"
// @Success 200 {object} response.Envelope
// @Router /topics/{topicId}/assignments/{title}/submissions/{student}/supervision [put]
func (h *GradingHandler) Supervision(c *gin.Context) {
	var req models.SupervisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid supervision payload"))
		return
	}
	sub, err := h.service.Supervision(c.Request.Context(), submissionKey(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

func submissionKey(c *gin.Context) models.SubmissionKey {
	return models.SubmissionKey{
		TopicID:         c.Param("topicId"),
		AssignmentTitle: c.Param("title"),
		Student:         c.Param("student"),
	}
}
