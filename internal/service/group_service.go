package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type groupRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Group, error)
	CountStudents(ctx context.Context, groupIDs []string) (map[string]int, error)
	FindByOwner(ctx context.Context, ownerID, id string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	DeleteCascade(ctx context.Context, ownerID, id string) (bool, error)
}

type rosterReader interface {
	ListByGroup(ctx context.Context, ownerID, groupID string) ([]models.Student, error)
}

var errGroupNotFound = appErrors.Clone(appErrors.ErrNotFound, "Class not found")

// GroupService manages classes and their rosters.
type GroupService struct {
	groups    groupRepository
	roster    rosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(groups groupRepository, roster rosterReader, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{groups: groups, roster: roster, validator: registerValidations(validate), logger: logger}
}

// List returns the owner's groups sorted by name with their roster sizes.
func (s *GroupService) List(ctx context.Context, ownerID string) ([]models.GroupWithCount, error) {
	groups, err := s.groups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve classes")
	}
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	counts, err := s.groups.CountStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	result := make([]models.GroupWithCount, len(groups))
	for i, g := range groups {
		result[i] = models.GroupWithCount{Group: g, StudentCount: counts[g.ID]}
	}
	return result, nil
}

// Create stores a new group for the owner.
func (s *GroupService) Create(ctx context.Context, ownerID string, req dto.CreateGroupRequest) (*models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	schedule := make([]string, 0, len(req.Schedule))
	for _, tag := range req.Schedule {
		if tag = strings.TrimSpace(tag); tag != "" {
			if day, ok := models.NormalizeWeekday(tag); ok {
				tag = day
			}
			schedule = append(schedule, tag)
		}
	}
	req.Schedule = schedule
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		UserID:      ownerID,
		Schedule:    schedule,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return group, nil
}

// Get returns one of the owner's groups. Missing and foreign groups are
// both NotFound.
func (s *GroupService) Get(ctx context.Context, ownerID, groupID string) (*models.Group, error) {
	if !validID(groupID) {
		return nil, errGroupNotFound
	}
	group, err := s.groups.FindByOwner(ctx, ownerID, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errGroupNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return group, nil
}

// Dashboard returns a group with its roster sorted by name.
func (s *GroupService) Dashboard(ctx context.Context, ownerID, groupID string) (*dto.GroupDashboard, error) {
	group, err := s.Get(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	students, err := s.roster.ListByGroup(ctx, ownerID, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return &dto.GroupDashboard{Group: *group, Students: students}, nil
}

// Delete removes the owner's group and its students. Deleting a group the
// owner does not have is a silent no-op.
func (s *GroupService) Delete(ctx context.Context, ownerID, groupID string) error {
	if !validID(groupID) {
		return nil
	}
	deleted, err := s.groups.DeleteCascade(ctx, ownerID, groupID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	if deleted {
		s.logger.Info("group deleted", zap.String("group_id", groupID), zap.String("user_id", ownerID))
	}
	return nil
}

// Options returns the owner's groups for selection widgets.
func (s *GroupService) Options(ctx context.Context, ownerID string) ([]models.Group, error) {
	groups, err := s.groups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve classes")
	}
	return groups, nil
}
