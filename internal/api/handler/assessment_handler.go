package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/plan2protect/platform/internal/api/metrics"
	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// AssessmentHandler handles HTTP requests for assessment operations.
type AssessmentHandler struct {
	service ports.AssessmentService
}

func NewAssessmentHandler(service ports.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// Create handles POST /api/assessments/create. The plan quota is checked
// before the image is stored.
//
// @Summary      Upload a floor plan
// @Tags         assessments
// @Accept       multipart/form-data
// @Produce      json
// @Param        user_id  formData  string  true   "Owner id"
// @Param        image    formData  file    true   "Floor plan image"
// @Param        analyze  formData  bool    false  "Queue server-side analysis"
// @Success      201      {object}  domain.Assessment
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /api/assessments/create [post]
func (h *AssessmentHandler) Create(c echo.Context) error {
	ownerID := c.FormValue("user_id")
	if ownerID == "" {
		return fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	img, err := readImage(c)
	if err != nil {
		return err
	}
	analyze, _ := strconv.ParseBool(c.FormValue("analyze"))

	a, err := h.service.Create(c.Request().Context(), ports.CreateAssessmentInput{
		OwnerID: ownerID,
		Image:   img,
		Analyze: analyze,
	})
	if err != nil {
		var qe *domain.QuotaError
		if errors.As(err, &qe) {
			metrics.QuotaRejectionsTotal.WithLabelValues(qe.Resource).Inc()
		}
		return err
	}

	metrics.AssessmentsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, a)
}

func readImage(c echo.Context) (domain.Image, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	if fh.Size > maxImageBytes {
		return domain.Image{}, fmt.Errorf("%w: image exceeds %d MB", domain.ErrInvalidInput, maxImageBytes>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return domain.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return domain.Image{}, err
	}
	if len(data) == 0 {
		return domain.Image{}, fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}

	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" || ct == echo.MIMEOctetStream {
		ct = http.DetectContentType(data)
	}
	return domain.Image{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

// ListByOwner handles GET /api/assessments/user/:id.
//
// @Summary      List a user's assessments, newest first
// @Tags         assessments
// @Produce      json
// @Param        id   path      string  true  "Owner id"
// @Success      200  {object}  assessmentsResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/assessments/user/{id} [get]
func (h *AssessmentHandler) ListByOwner(c echo.Context) error {
	list, err := h.service.ListByOwner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []domain.Assessment{}
	}
	return c.JSON(http.StatusOK, assessmentsResponse{Assessments: list})
}

// Get handles GET /api/assessments/:id.
//
// @Summary      Get an assessment
// @Tags         assessments
// @Produce      json
// @Param        id   path      string  true  "Assessment id"
// @Success      200  {object}  domain.Assessment
// @Failure      404  {object}  map[string]string
// @Router       /api/assessments/{id} [get]
func (h *AssessmentHandler) Get(c echo.Context) error {
	a, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Complete handles PUT /api/assessments/:id/complete.
//
// @Summary      Complete a processing assessment
// @Tags         assessments
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Assessment id"
// @Param        body  body      completeRequest  true  "Safety metrics and model reference"
// @Success      200   {object}  domain.Assessment
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/assessments/{id}/complete [put]
func (h *AssessmentHandler) Complete(c echo.Context) error {
	var req completeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.Complete(c.Request().Context(), c.Param("id"), *req.SafetyMetrics, req.Model3DURL)
	if err != nil {
		return err
	}

	metrics.AssessmentTransitionsTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	return c.JSON(http.StatusOK, a)
}

// Fail handles PUT /api/assessments/:id/fail.
//
// @Summary      Mark a processing assessment as failed
// @Tags         assessments
// @Produce      json
// @Param        id   path      string  true  "Assessment id"
// @Success      200  {object}  domain.Assessment
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/assessments/{id}/fail [put]
func (h *AssessmentHandler) Fail(c echo.Context) error {
	a, err := h.service.Fail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	metrics.AssessmentTransitionsTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
	return c.JSON(http.StatusOK, a)
}
