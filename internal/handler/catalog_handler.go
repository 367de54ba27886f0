package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grading-admin-api/internal/models"
	"github.com/noah-isme/grading-admin-api/pkg/response"
)

type catalogService interface {
	Courses(ctx context.Context) ([]models.Course, error)
	Topics(ctx context.Context, courseID string) ([]models.TopicEntry, error)
}

// CatalogHandler exposes course and topic reference data.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Courses godoc
// @Summary List courses
// @Description The first entry is always the "all" sentinel.
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Topics godoc
// @Summary List topics of a course
// @Tags Catalog
// @Produce json
// @Param courseId query string false "Course ID, all or empty for every topic"
// @Success 200 {object} response.Envelope
// @Router /topics [get]
func (h *CatalogHandler) Topics(c *gin.Context) {
	topics, err := h.service.Topics(c.Request.Context(), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topics, nil)
}
