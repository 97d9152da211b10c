package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type groupService interface {
	List(ctx context.Context, ownerID string) ([]models.GroupWithCount, error)
	Create(ctx context.Context, ownerID string, req dto.CreateGroupRequest) (*models.Group, error)
	Dashboard(ctx context.Context, ownerID, groupID string) (*dto.GroupDashboard, error)
	Delete(ctx context.Context, ownerID, groupID string) error
}

// GroupHandler exposes class/group endpoints.
type GroupHandler struct {
	service groupService
}

// NewGroupHandler builds a new handler.
func NewGroupHandler(service groupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// List godoc
// @Summary List classes
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	groups, err := h.service.List(c.Request.Context(), identity.OwnerID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups)
}

// Create godoc
// @Summary Create class
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.CreateGroupRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /groups/create [post]
func (h *GroupHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	group, err := h.service.Create(c.Request.Context(), identity.OwnerID(), req)
	if err != nil {
		response.Error(c, err, inputMeta(req))
		return
	}
	response.Created(c, group, map[string]interface{}{"redirect": "/groups"})
}

// Dashboard godoc
// @Summary Class dashboard
// @Description Class details with its students sorted by name
// @Tags Groups
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Dashboard(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	dashboard, err := h.service.Dashboard(c.Request.Context(), identity.OwnerID(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard)
}

// Delete godoc
// @Summary Delete class
// @Description Deletes the class and every student in it
// @Tags Groups
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /groups/delete/{id} [post]
func (h *GroupHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity.OwnerID(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"redirect": "/groups"})
}
