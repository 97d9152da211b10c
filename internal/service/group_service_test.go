package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

func newGroupFixture() (*memStore, *GroupService) {
	store := newMemStore()
	return store, NewGroupService(memGroups{store}, memStudents{store}, nil, zap.NewNop())
}

func TestGroupListIncludesStudentCounts(t *testing.T) {
	store, svc := newGroupFixture()
	science := store.addGroup(t, ownerA, "Science")
	arts := store.addGroup(t, ownerA, "Arts")
	store.addGroup(t, ownerB, "Elsewhere")
	store.addStudent(t, science, "S1", "Ana")
	store.addStudent(t, science, "S2", "Ben")

	groups, err := svc.List(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, arts.ID, groups[0].ID)
	assert.Equal(t, 0, groups[0].StudentCount)
	assert.Equal(t, science.ID, groups[1].ID)
	assert.Equal(t, 2, groups[1].StudentCount)
}

func TestGroupCreateAcceptsScalarSchedule(t *testing.T) {
	store, svc := newGroupFixture()
	var req dto.CreateGroupRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"  Physics ","schedule":"Monday"}`), &req))

	group, err := svc.Create(context.Background(), ownerA, req)
	require.NoError(t, err)
	assert.Equal(t, "Physics", group.Name)
	assert.Equal(t, []string{"Mon"}, []string(group.Schedule))
	assert.Equal(t, ownerA, group.UserID)
	assert.Contains(t, store.groups, group.ID)
}

func TestGroupCreateNormalisesDayNames(t *testing.T) {
	_, svc := newGroupFixture()

	group, err := svc.Create(context.Background(), ownerA, dto.CreateGroupRequest{
		Name:     "Chemistry",
		Schedule: dto.ScheduleTags{"monday", "WED", " Friday ", "sun"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Wed", "Fri", "Sun"}, []string(group.Schedule))
}

func TestGroupCreateValidation(t *testing.T) {
	_, svc := newGroupFixture()

	_, err := svc.Create(context.Background(), ownerA, dto.CreateGroupRequest{Name: " "})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), ownerA, dto.CreateGroupRequest{Name: "Maths", Schedule: dto.ScheduleTags{"Funday"}})
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestGroupDashboardScopedByOwner(t *testing.T) {
	store, svc := newGroupFixture()
	g := store.addGroup(t, ownerA, "G1")
	store.addStudent(t, g, "A2", "Zoe")
	store.addStudent(t, g, "A1", "Adam")

	dash, err := svc.Dashboard(context.Background(), ownerA, g.ID)
	require.NoError(t, err)
	require.Len(t, dash.Students, 2)
	assert.Equal(t, "Adam", dash.Students[0].Name)

	_, err = svc.Dashboard(context.Background(), ownerB, g.ID)
	requireAppError(t, err, appErrors.ErrNotFound)

	_, err = svc.Dashboard(context.Background(), ownerA, "not-a-uuid")
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestGroupDeleteCascades(t *testing.T) {
	store, svc := newGroupFixture()
	g := store.addGroup(t, ownerA, "G1")
	keep := store.addGroup(t, ownerA, "G2")
	store.addStudent(t, g, "A1", "Ana")
	store.addStudent(t, keep, "B1", "Bo")

	require.NoError(t, svc.Delete(context.Background(), ownerB, g.ID))
	assert.Equal(t, 2, store.studentCount())

	require.NoError(t, svc.Delete(context.Background(), ownerA, g.ID))
	groups, err := svc.List(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, keep.ID, groups[0].ID)
	assert.Equal(t, 1, store.studentCount())

	require.NoError(t, svc.Delete(context.Background(), ownerA, uuid.NewString()))
}
