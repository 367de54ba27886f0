package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grading-admin-api/internal/models"
	appErrors "github.com/noah-isme/grading-admin-api/pkg/errors"
)

type fakeGradingService struct {
	pendingFilter models.PendingGradingFilter
	assignFilter  models.AssignmentFilter
	subStatus     models.SubmissionStatusFilter
	gradeKey      models.SubmissionKey
	gradeReq      models.GradeRequest
	grader        *models.JWTClaims
	supervision   models.SupervisionRequest
	hit           bool
	failed        int
	err           error
}

func (f *fakeGradingService) Pending(_ context.Context, filter models.PendingGradingFilter) (*models.PendingGradingOverview, bool, error) {
	f.pendingFilter = filter
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.PendingGradingOverview{TotalAssignments: 2, FailedFetches: f.failed}, f.hit, nil
}

func (f *fakeGradingService) Unmarked(context.Context) (*models.UnmarkedPapersReport, bool, error) {
	return &models.UnmarkedPapersReport{Total: 3}, f.hit, f.err
}

func (f *fakeGradingService) Marked(context.Context) (*models.MarkedPapersSummary, bool, error) {
	return &models.MarkedPapersSummary{Total: 4, Overdue: 1, OnTime: 3}, f.hit, f.err
}

func (f *fakeGradingService) Assignments(_ context.Context, topicID string, filter models.AssignmentFilter) ([]models.Assignment, error) {
	f.assignFilter = filter
	return []models.Assignment{{TopicID: topicID, Title: "WT1"}}, f.err
}

func (f *fakeGradingService) Submissions(_ context.Context, topicID, title string, status models.SubmissionStatusFilter, search string) (*models.SubmissionOverview, error) {
	f.subStatus = status
	if f.err != nil {
		return nil, f.err
	}
	return &models.SubmissionOverview{TopicID: topicID, AssignmentTitle: title}, nil
}

func (f *fakeGradingService) Grade(_ context.Context, key models.SubmissionKey, req models.GradeRequest, grader *models.JWTClaims) (*models.Submission, error) {
	f.gradeKey, f.gradeReq, f.grader = key, req, grader
	if f.err != nil {
		return nil, f.err
	}
	return &models.Submission{Submission: true, Graded: true, GradedByTeacher: grader.DisplayName()}, nil
}

func (f *fakeGradingService) Supervision(_ context.Context, key models.SubmissionKey, req models.SupervisionRequest) (*models.Submission, error) {
	f.supervision = req
	return &models.Submission{SupervisionApproval: req.Approval}, f.err
}

func TestGradingHandlerPendingParsesFilters(t *testing.T) {
	svc := &fakeGradingService{hit: true}
	h := NewGradingHandler(svc)

	c, w := newGinContext(http.MethodGet, "/grading/pending?courseId=c1&deadline=overdue&urgent=true", nil)
	h.Pending(c)

	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, models.PendingGradingFilter{CourseID: "c1", Deadline: models.DeadlineFilterOverdue, UrgentOnly: true}, svc.pendingFilter)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.NotContains(t, envelope.Meta, "failed_fetches")
}

func TestGradingHandlerPendingReportsFailedFetches(t *testing.T) {
	h := NewGradingHandler(&fakeGradingService{failed: 2})

	c, w := newGinContext(http.MethodGet, "/grading/pending", nil)
	h.Pending(c)

	assertStatus(t, w, http.StatusOK)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, float64(2), envelope.Meta["failed_fetches"])
}

func TestGradingHandlerPendingMapsErrors(t *testing.T) {
	h := NewGradingHandler(&fakeGradingService{err: appErrors.Clone(appErrors.ErrValidation, "deadline must be one of all, overdue, progress")})

	c, w := newGinContext(http.MethodGet, "/grading/pending?deadline=soon", nil)
	h.Pending(c)

	assertStatus(t, w, http.StatusBadRequest)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error["code"])
}

func TestGradingHandlerMarkedAndUnmarked(t *testing.T) {
	h := NewGradingHandler(&fakeGradingService{})

	c, w := newGinContext(http.MethodGet, "/grading/marked", nil)
	h.Marked(c)
	assertStatus(t, w, http.StatusOK)
	var marked models.MarkedPapersSummary
	decodeData(t, w, &marked)
	assert.Equal(t, models.MarkedPapersSummary{Total: 4, Overdue: 1, OnTime: 3}, marked)

	c, w = newGinContext(http.MethodGet, "/grading/unmarked", nil)
	h.Unmarked(c)
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
}

func TestGradingHandlerAssignmentsAndSubmissions(t *testing.T) {
	svc := &fakeGradingService{}
	h := NewGradingHandler(svc)

	c, w := newGinContext(http.MethodGet, "/topics/t1/assignments?status=in-progress&search=khan", nil)
	c.Params = gin.Params{{Key: "topicId", Value: "t1"}}
	h.Assignments(c)
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, models.AssignmentFilter{Status: models.AssignmentFilterInProgress, Search: "khan"}, svc.assignFilter)

	c, w = newGinContext(http.MethodGet, "/topics/t1/assignments/WT1/submissions?status=graded", nil)
	c.Params = gin.Params{{Key: "topicId", Value: "t1"}, {Key: "title", Value: "WT1"}}
	h.Submissions(c)
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, models.SubmissionFilterGraded, svc.subStatus)
	var overview models.SubmissionOverview
	decodeData(t, w, &overview)
	assert.Equal(t, "WT1", overview.AssignmentTitle)
}

func TestGradingHandlerGradeUsesTokenIdentity(t *testing.T) {
	svc := &fakeGradingService{}
	h := NewGradingHandler(svc)

	body, _ := json.Marshal(models.GradeRequest{Marks: 18, Feedback: "Good"})
	c, w := newGinContext(http.MethodPut, "/topics/t1/assignments/WT1/submissions/Bina/grade", body)
	c.Params = gin.Params{{Key: "topicId", Value: "t1"}, {Key: "title", Value: "WT1"}, {Key: "student", Value: "Bina"}}
	withClaims(c, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher, FullName: "Ms. Khan"})
	h.Grade(c)

	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, models.SubmissionKey{TopicID: "t1", AssignmentTitle: "WT1", Student: "Bina"}, svc.gradeKey)
	assert.Equal(t, 18.0, svc.gradeReq.Marks)
	require.NotNil(t, svc.grader)
	var sub models.Submission
	decodeData(t, w, &sub)
	assert.Equal(t, "Ms. Khan", sub.GradedByTeacher)
}

func TestGradingHandlerGradeRejections(t *testing.T) {
	h := NewGradingHandler(&fakeGradingService{})

	c, w := newGinContext(http.MethodPut, "/grade", []byte(`{"marks":1}`))
	h.Grade(c)
	assertStatus(t, w, http.StatusUnauthorized)

	c, w = newGinContext(http.MethodPut, "/grade", []byte(`{"marks":`))
	withClaims(c, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher})
	h.Grade(c)
	assertStatus(t, w, http.StatusBadRequest)

	conflict := NewGradingHandler(&fakeGradingService{err: appErrors.Clone(appErrors.ErrNotSubmitted, "submission has not been submitted")})
	c, w = newGinContext(http.MethodPut, "/grade", []byte(`{"marks":1}`))
	withClaims(c, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher})
	conflict.Grade(c)
	assertStatus(t, w, http.StatusConflict)
}

func TestGradingHandlerSupervisionNullClears(t *testing.T) {
	svc := &fakeGradingService{}
	h := NewGradingHandler(svc)

	c, w := newGinContext(http.MethodPut, "/supervision", []byte(`{"approval":null}`))
	h.Supervision(c)
	assertStatus(t, w, http.StatusOK)
	assert.Nil(t, svc.supervision.Approval)

	c, w = newGinContext(http.MethodPut, "/supervision", []byte(`{"approval":"approved"}`))
	h.Supervision(c)
	assertStatus(t, w, http.StatusOK)
	require.NotNil(t, svc.supervision.Approval)
	assert.Equal(t, models.SupervisionApproved, *svc.supervision.Approval)
}
