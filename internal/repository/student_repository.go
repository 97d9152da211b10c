package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const studentColumns = `id, user_id, group_id, roll_number, name, email, phone, course, semester, created_at`

// StudentRepository persists roster entries. Every query is scoped by owner.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByOwner returns the owner's students sorted by name.
func (r *StudentRepository) ListByOwner(ctx context.Context, ownerID string, filter models.StudentFilter) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1`
	args := []interface{}{ownerID}
	if filter.GroupID != "" {
		query += ` AND group_id = $2`
		args = append(args, filter.GroupID)
	}
	query += ` ORDER BY name ASC`

	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListByGroup returns the roster of one of the owner's groups sorted by name.
func (r *StudentRepository) ListByGroup(ctx context.Context, ownerID, groupID string) ([]models.Student, error) {
	return r.ListByOwner(ctx, ownerID, models.StudentFilter{GroupID: groupID})
}

// FindByOwner returns a student only when it belongs to ownerID.
func (r *StudentRepository) FindByOwner(ctx context.Context, ownerID, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND user_id = $2 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindOwnedByIDs returns the subset of ids that belong to ownerID.
func (r *StudentRepository) FindOwnedByIDs(ctx context.Context, ownerID string, ids []string) ([]models.Student, error) {
	students := make([]models.Student, 0, len(ids))
	if len(ids) == 0 {
		return students, nil
	}
	query := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1 AND id = ANY($2)`
	if err := r.db.SelectContext(ctx, &students, query, ownerID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find owned students: %w", err)
	}
	return students, nil
}

// ExistsByRollNumber reports whether the owner already has a student with the
// roll number. excludeID, when set, ignores that student.
func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, ownerID, rollNumber, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM students WHERE user_id = $1 AND roll_number = $2`
	args := []interface{}{ownerID, rollNumber}
	if excludeID != "" {
		query += ` AND id <> $3`
		args = append(args, excludeID)
	}
	query += `)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return exists, nil
}

// Create inserts a student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, user_id, group_id, roll_number, name, email, phone, course, semester, created_at)
VALUES (:id, :user_id, :group_id, :roll_number, :name, :email, :phone, :course, :semester, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of an owned student. The flag is false
// when no row matched the owner scope.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (bool, error) {
	const query = `UPDATE students SET group_id = :group_id, roll_number = :roll_number, name = :name, email = :email,
phone = :phone, course = :course, semester = :semester
WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return false, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update student rows affected: %w", err)
	}
	return affected > 0, nil
}

// Delete removes an owned student; a missing row is not an error.
func (r *StudentRepository) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1 AND user_id = $2`, id, ownerID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// CountByOwner returns how many students the owner has.
func (r *StudentRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students WHERE user_id = $1`, ownerID); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}
