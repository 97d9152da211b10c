package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

var studentRowColumns = []string{"id", "user_id", "group_id", "roll_number", "name", "email", "phone", "course", "semester", "created_at"}

func TestStudentListByGroup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "u1", "g1", "A1", "Ana", "ana@example.com", "N/A", "N/A", 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE user_id = $1 AND group_id = $2 ORDER BY name ASC")).
		WithArgs("u1", "g1").
		WillReturnRows(rows)

	students, err := repo.ListByGroup(context.Background(), "u1", "g1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "A1", students[0].RollNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentExistsByRollNumberExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM students WHERE user_id = $1 AND roll_number = $2 AND id <> $3)")).
		WithArgs("u1", "A1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsByRollNumber(context.Background(), "u1", "A1", "s1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpdateOutsideOwnerScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND user_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.Update(context.Background(), &models.Student{ID: "s1", UserID: "intruder", RollNumber: "A1"})
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFindOwnedByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "u1", "g1", "A1", "Ana", "ana@example.com", "N/A", "N/A", 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE user_id = $1 AND id = ANY($2)")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	students, err := repo.FindOwnedByIDs(context.Background(), "u1", []string{"s1", "foreign"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCountByOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.CountByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
