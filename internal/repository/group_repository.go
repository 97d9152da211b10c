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

const groupColumns = `id, name, description, user_id, schedule, created_at`

// GroupRepository persists groups. Every query is scoped by owner.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// ListByOwner returns the owner's groups sorted by name.
func (r *GroupRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE user_id = $1 ORDER BY name ASC`
	groups := make([]models.Group, 0)
	if err := r.db.SelectContext(ctx, &groups, query, ownerID); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// CountStudents returns roster sizes for the given groups in one aggregate query.
// Groups without students are absent from the map.
func (r *GroupRepository) CountStudents(ctx context.Context, groupIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(groupIDs))
	if len(groupIDs) == 0 {
		return counts, nil
	}
	const query = `SELECT group_id, COUNT(*) AS count FROM students WHERE group_id = ANY($1) GROUP BY group_id`
	var rows []models.GroupStudentCount
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(groupIDs)); err != nil {
		return nil, fmt.Errorf("count group students: %w", err)
	}
	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	return counts, nil
}

// FindByOwner returns a group only when it belongs to ownerID.
func (r *GroupRepository) FindByOwner(ctx context.Context, ownerID, id string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1 AND user_id = $2 LIMIT 1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	if group.Schedule == nil {
		group.Schedule = pq.StringArray{}
	}
	const query = `INSERT INTO groups (id, name, description, user_id, schedule, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, group.ID, group.Name, group.Description, group.UserID, group.Schedule, group.CreatedAt); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// DeleteCascade removes the owner's group and, only when that removed a row,
// every student assigned to it. Both deletes share one transaction. The
// returned flag reports whether the group existed under the owner.
func (r *GroupRepository) DeleteCascade(ctx context.Context, ownerID, id string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete group: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete group rows affected: %w", err)
	}
	if affected == 1 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE group_id = $1 AND user_id = $2`, id, ownerID); err != nil {
			return false, fmt.Errorf("delete group students: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete group: %w", err)
	}
	commit = true
	return affected == 1, nil
}
