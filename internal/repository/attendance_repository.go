package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const attendanceRecordColumns = `a.id, a.student_id, a.date, a.status, a.notes, a.marked_by, a.created_at, a.updated_at,
s.id AS "student.id", s.user_id AS "student.user_id", s.group_id AS "student.group_id",
s.roll_number AS "student.roll_number", s.name AS "student.name", s.email AS "student.email",
s.phone AS "student.phone", s.course AS "student.course", s.semester AS "student.semester",
s.created_at AS "student.created_at"`

// AttendanceRepository persists the attendance ledger. Ownership is enforced
// through the students table since attendance rows carry no owner column.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertBatch writes every record keyed by (student_id, date). An existing
// row for the pair is overwritten in place. All statements share one
// transaction and the number of written records is returned.
func (r *AttendanceRepository) UpsertBatch(ctx context.Context, records []models.AttendanceUpsert) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin attendance batch: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance (id, student_id, date, status, notes, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_id, date)
DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, rec.ID, rec.StudentID, rec.Date, rec.Status, rec.Notes, rec.MarkedBy, now, now); err != nil {
			return 0, fmt.Errorf("upsert attendance for student %s on %s: %w", rec.StudentID, rec.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attendance batch: %w", err)
	}
	commit = true
	return len(records), nil
}

// UpdateStatus changes status and notes of a record whose student belongs to
// ownerID and returns it joined with the student. Nil notes leave the stored
// notes untouched.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, ownerID, id string, status models.AttendanceStatus, notes *string) (*models.AttendanceRecord, error) {
	query := `UPDATE attendance a SET status = $1, notes = COALESCE($2, a.notes), updated_at = $3
FROM students s
WHERE a.id = $4 AND s.id = a.student_id AND s.user_id = $5
RETURNING ` + attendanceRecordColumns
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, status, notes, time.Now().UTC(), id, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	return &record, nil
}

// Delete removes a record whose student belongs to ownerID. The flag reports
// whether a row was removed.
func (r *AttendanceRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	const query = `DELETE FROM attendance a USING students s
WHERE a.id = $1 AND s.id = a.student_id AND s.user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete attendance rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns records for the permitted student set joined with their
// students, newest first. An empty permitted set yields no rows.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	records := make([]models.AttendanceRecord, 0)
	if len(filter.StudentIDs) == 0 {
		return records, nil
	}

	where := []string{"a.student_id = ANY($1)"}
	args := []interface{}{pq.Array(filter.StudentIDs)}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	query := fmt.Sprintf(`SELECT %s
FROM attendance a
JOIN students s ON s.id = a.student_id
WHERE %s
ORDER BY a.date DESC, s.name ASC`, attendanceRecordColumns, strings.Join(where, " AND "))
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// StatusCounts aggregates the owner's records in [from, to) by status.
func (r *AttendanceRepository) StatusCounts(ctx context.Context, ownerID string, from, to time.Time) ([]models.AttendanceStatusCount, error) {
	const query = `SELECT a.status, COUNT(*) AS count
FROM attendance a
JOIN students s ON s.id = a.student_id
WHERE s.user_id = $1 AND a.date >= $2 AND a.date < $3
GROUP BY a.status`
	rows := make([]models.AttendanceStatusCount, 0)
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, from, to); err != nil {
		return nil, fmt.Errorf("attendance status counts: %w", err)
	}
	return rows, nil
}
