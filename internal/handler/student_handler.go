package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, ownerID, groupID string) ([]models.Student, error)
	Get(ctx context.Context, ownerID, studentID string) (*models.Student, error)
	AddForm(ctx context.Context, ownerID, selectedGroupID string) (*dto.StudentForm, error)
	EditForm(ctx context.Context, ownerID, studentID string) (*dto.StudentForm, error)
	Create(ctx context.Context, ownerID string, req dto.StudentRequest) (*dto.StudentResult, error)
	Update(ctx context.Context, ownerID, studentID string, req dto.StudentRequest) (*dto.StudentResult, error)
	Delete(ctx context.Context, ownerID, studentID string) error
}

type importService interface {
	Form(ctx context.Context, ownerID, selectedGroupID string) (*dto.ImportForm, error)
	Import(ctx context.Context, ownerID, groupID string, file io.Reader) (*dto.ImportResult, error)
}

// StudentHandler exposes roster endpoints, including CSV import.
type StudentHandler struct {
	students      studentService
	importer      importService
	maxUploadSize int64
}

// NewStudentHandler builds a new handler. maxUploadSize bounds import request bodies.
func NewStudentHandler(students studentService, importer importService, maxUploadSize int64) *StudentHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 5 << 20
	}
	return &StudentHandler{students: students, importer: importer, maxUploadSize: maxUploadSize}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param group query string false "Class ID filter"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	groupID := firstQuery(c, "group", "groupId")
	students, err := h.students.List(c.Request.Context(), identity.OwnerID(), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"selectedGroupId": groupID})
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/api/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), identity.OwnerID(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// AddForm godoc
// @Summary Add student form data
// @Tags Students
// @Produce json
// @Param group query string false "Preselected class ID"
// @Success 200 {object} response.Envelope
// @Router /students/add [get]
func (h *StudentHandler) AddForm(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	form, err := h.students.AddForm(c.Request.Context(), identity.OwnerID(), firstQuery(c, "group", "groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/add [post]
func (h *StudentHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req dto.StudentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	res, err := h.students.Create(c.Request.Context(), identity.OwnerID(), req)
	if err != nil {
		response.Error(c, err, inputMeta(req))
		return
	}
	response.Created(c, res.Student, map[string]interface{}{"redirect": res.Redirect})
}

// EditForm godoc
// @Summary Edit student form data
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/edit/{id} [get]
func (h *StudentHandler) EditForm(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	form, err := h.students.EditForm(c.Request.Context(), identity.OwnerID(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/edit/{id} [post]
func (h *StudentHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req dto.StudentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	res, err := h.students.Update(c.Request.Context(), identity.OwnerID(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err, inputMeta(req))
		return
	}
	response.JSON(c, http.StatusOK, res.Student, map[string]interface{}{"redirect": res.Redirect})
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/delete/{id} [post]
func (h *StudentHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), identity.OwnerID(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"redirect": "/students"})
}

// ImportForm godoc
// @Summary Import form data
// @Tags Students
// @Produce json
// @Param group query string false "Preselected class ID"
// @Success 200 {object} response.Envelope
// @Router /students/import [get]
func (h *StudentHandler) ImportForm(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	form, err := h.importer.Form(c.Request.Context(), identity.OwnerID(), firstQuery(c, "group", "groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form)
}

// Import godoc
// @Summary Import students from CSV
// @Description Rows missing roll number, name or email are skipped and reported
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param group formData string true "Class ID"
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /students/import [post]
func (h *StudentHandler) Import(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	var file io.Reader
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		f, openErr := header.Open()
		if openErr != nil {
			response.Error(c, appErrors.Wrap(openErr, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "Could not read the CSV file"))
			return
		}
		defer f.Close()
		file = f
	case errors.Is(err, http.ErrMissingFile):
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, "CSV file is too large"))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid upload"))
			return
		}
	}

	groupID := c.PostForm("group")
	if groupID == "" {
		groupID = c.PostForm("groupId")
	}
	result, err := h.importer.Import(c.Request.Context(), identity.OwnerID(), groupID, file)
	if err != nil {
		response.Error(c, err, inputMeta(gin.H{"group": groupID}))
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := c.Query(key); v != "" {
			return v
		}
	}
	return ""
}
