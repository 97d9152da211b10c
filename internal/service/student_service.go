package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type studentRepository interface {
	ListByOwner(ctx context.Context, ownerID string, filter models.StudentFilter) ([]models.Student, error)
	ListByGroup(ctx context.Context, ownerID, groupID string) ([]models.Student, error)
	FindByOwner(ctx context.Context, ownerID, id string) (*models.Student, error)
	FindOwnedByIDs(ctx context.Context, ownerID string, ids []string) ([]models.Student, error)
	ExistsByRollNumber(ctx context.Context, ownerID, rollNumber, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) (bool, error)
	Delete(ctx context.Context, ownerID, id string) error
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type groupFinder interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Group, error)
	FindByOwner(ctx context.Context, ownerID, id string) (*models.Group, error)
}

var (
	errStudentNotFound  = appErrors.Clone(appErrors.ErrNotFound, "Student not found")
	errDuplicateRoll    = appErrors.Clone(appErrors.ErrDuplicateKey, "A student with this roll number already exists")
	errRollTakenByOther = appErrors.Clone(appErrors.ErrDuplicateKey, "This roll number is already assigned to another student")
)

// StudentService manages roster entries. Roll numbers are unique per owner.
type StudentService struct {
	students studentRepository
	groups   groupFinder
	logger   *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students studentRepository, groups groupFinder, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, groups: groups, logger: logger}
}

// List returns the owner's students sorted by name, optionally limited to one group.
func (s *StudentService) List(ctx context.Context, ownerID, groupID string) ([]models.Student, error) {
	if groupID != "" && !validID(groupID) {
		return []models.Student{}, nil
	}
	students, err := s.students.ListByOwner(ctx, ownerID, models.StudentFilter{GroupID: groupID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve students")
	}
	return students, nil
}

// Get returns one of the owner's students.
func (s *StudentService) Get(ctx context.Context, ownerID, studentID string) (*models.Student, error) {
	if !validID(studentID) {
		return nil, errStudentNotFound
	}
	student, err := s.students.FindByOwner(ctx, ownerID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve student")
	}
	return student, nil
}

// AddForm returns the owner's groups for the create screen.
func (s *StudentService) AddForm(ctx context.Context, ownerID, selectedGroupID string) (*dto.StudentForm, error) {
	groups, err := s.groups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve classes")
	}
	return &dto.StudentForm{Groups: groups, SelectedGroupID: selectedGroupID}, nil
}

// EditForm returns an owned student and the owner's groups for the edit screen.
func (s *StudentService) EditForm(ctx context.Context, ownerID, studentID string) (*dto.StudentForm, error) {
	student, err := s.Get(ctx, ownerID, studentID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve classes")
	}
	return &dto.StudentForm{Student: student, Groups: groups, SelectedGroupID: student.GroupID}, nil
}

// Create adds a student to one of the owner's groups.
func (s *StudentService) Create(ctx context.Context, ownerID string, req dto.StudentRequest) (*dto.StudentResult, error) {
	fields, err := normaliseStudent(req, true)
	if err != nil {
		return nil, err
	}
	if err := s.requireGroup(ctx, ownerID, fields.GroupID); err != nil {
		return nil, err
	}

	exists, err := s.students.ExistsByRollNumber(ctx, ownerID, fields.RollNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll number")
	}
	if exists {
		return nil, errDuplicateRoll
	}

	fields.UserID = ownerID
	if err := s.students.Create(ctx, fields); err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, errDuplicateRoll
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "An error occurred while saving the student. Please try again.")
	}
	return &dto.StudentResult{Student: *fields, Redirect: "/groups/" + fields.GroupID}, nil
}

// Update rewrites an owned student. When no group is supplied the student
// keeps its current group.
func (s *StudentService) Update(ctx context.Context, ownerID, studentID string, req dto.StudentRequest) (*dto.StudentResult, error) {
	fields, err := normaliseStudent(req, false)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, ownerID, studentID)
	if err != nil {
		return nil, err
	}
	if fields.GroupID == "" {
		fields.GroupID = current.GroupID
	} else if fields.GroupID != current.GroupID {
		if err := s.requireGroup(ctx, ownerID, fields.GroupID); err != nil {
			return nil, err
		}
	}

	exists, err := s.students.ExistsByRollNumber(ctx, ownerID, fields.RollNumber, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll number")
	}
	if exists {
		return nil, errRollTakenByOther
	}

	fields.ID = current.ID
	fields.UserID = ownerID
	fields.CreatedAt = current.CreatedAt
	updated, err := s.students.Update(ctx, fields)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, errRollTakenByOther
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "An error occurred while updating the student. Please try again.")
	}
	if !updated {
		return nil, errStudentNotFound
	}
	return &dto.StudentResult{Student: *fields, Redirect: "/students"}, nil
}

// Delete removes an owned student; unknown ids are ignored.
func (s *StudentService) Delete(ctx context.Context, ownerID, studentID string) error {
	if !validID(studentID) {
		return nil
	}
	if err := s.students.Delete(ctx, ownerID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func (s *StudentService) requireGroup(ctx context.Context, ownerID, groupID string) error {
	if !validID(groupID) {
		return errGroupNotFound
	}
	if _, err := s.groups.FindByOwner(ctx, ownerID, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errGroupNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

// normaliseStudent trims the payload and collects every missing or invalid
// field into one ValidationError.
func normaliseStudent(req dto.StudentRequest, requireGroup bool) (*models.Student, error) {
	student := &models.Student{
		GroupID:    strings.TrimSpace(req.GroupID),
		RollNumber: strings.TrimSpace(req.RollNumber),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      strings.TrimSpace(req.Phone),
		Course:     strings.TrimSpace(req.Course),
	}

	var problems []string
	if requireGroup && student.GroupID == "" {
		problems = append(problems, "Class/Group is required")
	}
	if student.RollNumber == "" {
		problems = append(problems, "Roll number is required")
	}
	if student.Name == "" {
		problems = append(problems, "Name is required")
	}
	if student.Email == "" {
		problems = append(problems, "Email is required")
	}
	if student.Phone == "" {
		problems = append(problems, "Phone is required")
	}
	if student.Course == "" {
		problems = append(problems, "Course is required")
	}
	semester := req.Semester.String()
	if semester == "" {
		problems = append(problems, "Semester is required")
	} else if n, err := strconv.Atoi(semester); err != nil || n < 1 {
		problems = append(problems, "Semester must be a whole number of at least 1")
	} else {
		student.Semester = n
	}

	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, problems[0], problems)
	}
	return student, nil
}
