package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

func newStudentFixture() (*memStore, *StudentService) {
	store := newMemStore()
	return store, NewStudentService(memStudents{store}, memGroups{store}, zap.NewNop())
}

func studentRequest(groupID, roll string) dto.StudentRequest {
	return dto.StudentRequest{
		RollNumber: roll,
		Name:       "Ana Lima",
		Email:      " Ana@Example.com ",
		Phone:      "555-0100",
		Course:     "Physics",
		Semester:   dto.FlexString("3"),
		GroupID:    groupID,
	}
}

func TestStudentCreate(t *testing.T) {
	store, svc := newStudentFixture()
	g := store.addGroup(t, ownerA, "G1")

	res, err := svc.Create(context.Background(), ownerA, studentRequest(g.ID, "R1"))
	require.NoError(t, err)
	assert.Equal(t, "/groups/"+g.ID, res.Redirect)
	assert.Equal(t, "ana@example.com", res.Student.Email)
	assert.Equal(t, 3, res.Student.Semester)
	assert.Equal(t, ownerA, res.Student.UserID)
	assert.Equal(t, 1, store.studentCount())
}

func TestStudentCreateDuplicateRollLeavesStoreUnchanged(t *testing.T) {
	store, svc := newStudentFixture()
	g := store.addGroup(t, ownerA, "G1")
	store.addStudent(t, g, "R1", "Existing")

	_, err := svc.Create(context.Background(), ownerA, studentRequest(g.ID, "R1"))
	appErr := requireAppError(t, err, appErrors.ErrDuplicateKey)
	assert.Equal(t, "A student with this roll number already exists", appErr.Message)
	assert.Equal(t, 1, store.studentCount())

	other := store.addGroup(t, ownerB, "Theirs")
	_, err = svc.Create(context.Background(), ownerB, studentRequest(other.ID, "R1"))
	require.NoError(t, err)
}

func TestStudentCreateCollectsMissingFields(t *testing.T) {
	_, svc := newStudentFixture()

	_, err := svc.Create(context.Background(), ownerA, dto.StudentRequest{Name: "Only Name", Semester: dto.FlexString("zero")})
	appErr := requireAppError(t, err, appErrors.ErrValidation)
	assert.Equal(t, "Class/Group is required", appErr.Message)
	assert.Equal(t, []string{
		"Class/Group is required",
		"Roll number is required",
		"Email is required",
		"Phone is required",
		"Course is required",
		"Semester must be a whole number of at least 1",
	}, appErr.Details)
}

func TestStudentCreateInForeignGroup(t *testing.T) {
	store, svc := newStudentFixture()
	foreign := store.addGroup(t, ownerB, "Theirs")

	_, err := svc.Create(context.Background(), ownerA, studentRequest(foreign.ID, "R1"))
	requireAppError(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 0, store.studentCount())
}

func TestStudentUpdate(t *testing.T) {
	store, svc := newStudentFixture()
	g := store.addGroup(t, ownerA, "G1")
	s := store.addStudent(t, g, "R1", "Ana")
	store.addStudent(t, g, "R2", "Ben")

	req := studentRequest("", "R1")
	req.Name = "Ana Maria"
	res, err := svc.Update(context.Background(), ownerA, s.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "/students", res.Redirect)
	assert.Equal(t, g.ID, res.Student.GroupID)
	assert.Equal(t, "Ana Maria", store.students[s.ID].Name)

	_, err = svc.Update(context.Background(), ownerA, s.ID, studentRequest("", "R2"))
	appErr := requireAppError(t, err, appErrors.ErrDuplicateKey)
	assert.Equal(t, "This roll number is already assigned to another student", appErr.Message)

	_, err = svc.Update(context.Background(), ownerB, s.ID, studentRequest("", "R9"))
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestStudentGetAndDeleteScopedByOwner(t *testing.T) {
	store, svc := newStudentFixture()
	g := store.addGroup(t, ownerA, "G1")
	s := store.addStudent(t, g, "R1", "Ana")

	_, err := svc.Get(context.Background(), ownerB, s.ID)
	requireAppError(t, err, appErrors.ErrNotFound)
	_, err = svc.Get(context.Background(), ownerA, "42")
	requireAppError(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), ownerB, s.ID))
	assert.Equal(t, 1, store.studentCount())
	require.NoError(t, svc.Delete(context.Background(), ownerA, s.ID))
	assert.Equal(t, 0, store.studentCount())
	require.NoError(t, svc.Delete(context.Background(), ownerA, uuid.NewString()))
}

func TestStudentForms(t *testing.T) {
	store, svc := newStudentFixture()
	g := store.addGroup(t, ownerA, "G1")
	s := store.addStudent(t, g, "R1", "Ana")

	add, err := svc.AddForm(context.Background(), ownerA, g.ID)
	require.NoError(t, err)
	assert.Len(t, add.Groups, 1)
	assert.Equal(t, g.ID, add.SelectedGroupID)

	edit, err := svc.EditForm(context.Background(), ownerA, s.ID)
	require.NoError(t, err)
	require.NotNil(t, edit.Student)
	assert.Equal(t, g.ID, edit.SelectedGroupID)

	list, err := svc.List(context.Background(), ownerB, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
