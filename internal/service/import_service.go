package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/tabular"
)

const maxReportedImportErrors = 5

// Header aliases accepted per field, matched after trimming and lowercasing.
var (
	rollNumberHeaders = []string{"roll number", "rollnumber", "roll_number"}
	nameHeaders       = []string{"name", "student name", "full name"}
	emailHeaders      = []string{"email", "email address"}
	phoneHeaders      = []string{"phone", "phone number", "mobile"}
	courseHeaders     = []string{"course"}
	semesterHeaders   = []string{"semester"}
)

type importStudentRepository interface {
	ExistsByRollNumber(ctx context.Context, ownerID, rollNumber, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// ImportService creates students from uploaded CSV files.
type ImportService struct {
	students importStudentRepository
	groups   groupFinder
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(students importStudentRepository, groups groupFinder, metrics *MetricsService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{students: students, groups: groups, metrics: metrics, logger: logger}
}

// Form returns the owner's groups for the import screen.
func (s *ImportService) Form(ctx context.Context, ownerID, selectedGroupID string) (*dto.ImportForm, error) {
	groups, err := s.groups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve classes")
	}
	return &dto.ImportForm{Groups: groups, SelectedGroupID: selectedGroupID}, nil
}

// Import adds every usable row of file to one of the owner's groups. Rows are
// processed in order and a bad row never stops the ones after it. file is
// nil when no upload was attached.
func (s *ImportService) Import(ctx context.Context, ownerID, groupID string, file io.Reader) (*dto.ImportResult, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please select a class")
	}
	if file == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please upload a CSV file")
	}
	if !validID(groupID) {
		return nil, errGroupNotFound
	}
	if _, err := s.groups.FindByOwner(ctx, ownerID, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errGroupNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	rows, err := tabular.ReadCSV(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "Could not read the CSV file")
	}

	var (
		successCount int
		problems     []string
	)
	for _, raw := range rows {
		row := normaliseRow(raw)
		roll := pick(row, rollNumberHeaders)
		name := pick(row, nameHeaders)
		email := pick(row, emailHeaders)
		if roll == "" || name == "" || email == "" {
			problems = append(problems, fmt.Sprintf("Skipped row: Missing required fields (Roll: %s, Name: %s, Email: %s)",
				orMissing(roll), orMissing(name), orMissing(email)))
			continue
		}

		exists, err := s.students.ExistsByRollNumber(ctx, ownerID, roll, "")
		if err != nil {
			problems = append(problems, fmt.Sprintf("Error adding %s: %s", roll, "could not check roll number"))
			s.logger.Error("import roll number check failed", zap.String("roll_number", roll), zap.Error(err))
			continue
		}
		if exists {
			problems = append(problems, fmt.Sprintf("Skipped %s: Already exists", roll))
			continue
		}

		semester, err := strconv.Atoi(orDefault(pick(row, semesterHeaders), "1"))
		if err != nil || semester < 1 {
			problems = append(problems, fmt.Sprintf("Error adding %s: semester must be a whole number of at least 1", roll))
			continue
		}

		student := &models.Student{
			UserID:     ownerID,
			GroupID:    groupID,
			RollNumber: roll,
			Name:       name,
			Email:      strings.ToLower(email),
			Phone:      orDefault(pick(row, phoneHeaders), "N/A"),
			Course:     orDefault(pick(row, courseHeaders), "N/A"),
			Semester:   semester,
		}
		if err := s.students.Create(ctx, student); err != nil {
			problems = append(problems, fmt.Sprintf("Error adding %s: %s", roll, importFailureReason(err)))
			s.logger.Error("import row failed", zap.String("roll_number", roll), zap.Error(err))
			continue
		}
		successCount++
	}

	s.metrics.RecordImportRows("imported", successCount)
	s.metrics.RecordImportRows("skipped", len(problems))

	result := &dto.ImportResult{
		SuccessCount: successCount,
		Errors:       firstN(problems, maxReportedImportErrors),
		TotalErrors:  len(problems),
		Success:      fmt.Sprintf("Successfully imported %d students!", successCount),
	}
	if len(problems) > 0 {
		result.Error = fmt.Sprintf("Imported %d students. Errors:\n%s", successCount, strings.Join(result.Errors, "\n"))
	}
	return result, nil
}

func normaliseRow(raw tabular.Row) map[string]string {
	row := make(map[string]string, len(raw))
	for k, v := range raw {
		row[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return row
}

// pick returns the first non-empty value among the aliases.
func pick(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v := row[alias]; v != "" {
			return v
		}
	}
	return ""
}

func orMissing(v string) string {
	return orDefault(v, "Missing")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	return append([]string{}, items...)
}

func importFailureReason(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if database.IsUniqueViolation(err, "") {
		return "duplicate roll number"
	}
	return "could not be saved"
}
