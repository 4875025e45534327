package cascade

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/huddle-dev/huddle/internal/models"
	"github.com/huddle-dev/huddle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*gorm.DB, *store.Stores) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the concurrent cascade steps serialized at
	// the pool, which sqlite needs and postgres does not.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Update{},
		&models.Thanks{},
		&models.EyesWanted{},
	))

	return gdb, store.New(gdb)
}

func createUser(t *testing.T, stores *store.Stores, email string) *models.User {
	t.Helper()

	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
	}
	require.NoError(t, stores.Users.Insert(context.Background(), user))
	return user
}

func createProject(t *testing.T, stores *store.Stores, creator *models.User, participants ...*models.User) *models.Project {
	t.Helper()

	project := &models.Project{Name: "proj", CreatorID: creator.ID, Active: true}
	require.NoError(t, stores.Projects.Insert(context.Background(), project))

	members := append([]*models.User{creator}, participants...)
	for _, member := range members {
		membership := &models.ProjectMembership{
			UserID:    member.ID,
			ProjectID: project.ID,
			Role:      models.RoleParticipant,
		}
		require.NoError(t, stores.Memberships.Insert(context.Background(), membership))
	}

	return project
}

func createUpdate(t *testing.T, stores *store.Stores, project *models.Project, author *models.User) *models.Update {
	t.Helper()

	update := &models.Update{
		ProjectID: project.ID,
		AuthorID:  author.ID,
		Status:    "on track",
		Summary:   "summary",
		Details:   "details",
	}
	require.NoError(t, stores.Updates.Insert(context.Background(), update))
	return update
}

func addThanks(t *testing.T, stores *store.Stores, user *models.User, update *models.Update) {
	t.Helper()
	require.NoError(t, stores.Thanks.Insert(context.Background(), &models.Thanks{
		PostUserID: user.ID,
		UpdateID:   update.ID,
	}))
}

func addEyesWanted(t *testing.T, stores *store.Stores, user *models.User, update *models.Update) {
	t.Helper()
	require.NoError(t, stores.EyesWanted.Insert(context.Background(), &models.EyesWanted{
		UserID:   user.ID,
		UpdateID: update.ID,
	}))
}

func count(t *testing.T, gdb *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestResolveUserUnionsBothPaths(t *testing.T) {
	_, stores := newTestDB(t)
	ctx := context.Background()

	owner := createUser(t, stores, "owner@x.com")
	other := createUser(t, stores, "other@x.com")
	project := createProject(t, stores, owner, other)

	// Authored by the owner inside the owner's project: reachable via both
	// the authorship edge and the ownership edge.
	both := createUpdate(t, stores, project, owner)
	// Only reachable via ownership.
	byOther := createUpdate(t, stores, project, other)

	resolver := NewResolver(stores)
	plan, err := resolver.ResolveUser(ctx, owner.ID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint{both.ID, byOther.ID}, plan.UpdateIDs)
	assert.Len(t, plan.UpdateIDs, 2, "union must deduplicate, not concatenate")
	assert.Equal(t, []uint{project.ID}, plan.OwnedProjectIDs)
	assert.Empty(t, plan.MemberProjectIDs)
}

func TestResolveUserWithNothing(t *testing.T) {
	_, stores := newTestDB(t)

	user := createUser(t, stores, "lonely@x.com")

	plan, err := NewResolver(stores).ResolveUser(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Empty(t, plan.UpdateIDs)
	assert.Empty(t, plan.OwnedProjectIDs)
	assert.Empty(t, plan.MemberProjectIDs)
}

func TestDeleteUserEndToEnd(t *testing.T) {
	gdb, stores := newTestDB(t)
	ctx := context.Background()

	u := createUser(t, stores, "u@x.com")
	v := createUser(t, stores, "v@x.com")
	project := createProject(t, stores, u, v)

	m1 := createUpdate(t, stores, project, u)
	m2 := createUpdate(t, stores, project, v)

	addThanks(t, stores, v, m1)
	addThanks(t, stores, u, m2)
	addEyesWanted(t, stores, v, m1)
	addEyesWanted(t, stores, u, m2)

	orchestrator := NewOrchestrator(stores)
	result, err := orchestrator.DeleteUser(ctx, u.ID)
	require.NoError(t, err)

	// M1 goes because U authored it, M2 because U owned the project.
	assert.Equal(t, int64(2), result.UpdatesDeleted)
	assert.Equal(t, int64(1), result.ProjectsDeleted)
	assert.Equal(t, int64(1), result.UsersDeleted)
	assert.Equal(t, int64(2), result.ThanksDeleted)
	assert.Equal(t, int64(2), result.EyesWantedDeleted)
	// U's row plus V's row in the deleted project.
	assert.Equal(t, int64(2), result.MembershipsDeleted)

	assert.Equal(t, int64(0), count(t, gdb, &models.Update{}))
	assert.Equal(t, int64(0), count(t, gdb, &models.Project{}))
	assert.Equal(t, int64(0), count(t, gdb, &models.Thanks{}))
	assert.Equal(t, int64(0), count(t, gdb, &models.EyesWanted{}))
	assert.Equal(t, int64(0), count(t, gdb, &models.ProjectMembership{}))

	// V survives untouched.
	_, err = stores.Users.Find(ctx, v.ID)
	assert.NoError(t, err)
}

func TestDeleteUserIdempotent(t *testing.T) {
	gdb, stores := newTestDB(t)
	ctx := context.Background()

	u := createUser(t, stores, "u@x.com")
	project := createProject(t, stores, u)
	createUpdate(t, stores, project, u)

	orchestrator := NewOrchestrator(stores)

	first, err := orchestrator.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.UsersDeleted)

	second, err := orchestrator.DeleteUser(ctx, u.ID)
	require.NoError(t, err, "re-running a cascade must not fail")
	assert.Equal(t, &Result{}, second, "second run affects nothing")

	assert.Equal(t, int64(0), count(t, gdb, &models.User{}))
}

func TestDeleteUserNoDuplicateDeletes(t *testing.T) {
	gdb, stores := newTestDB(t)
	ctx := context.Background()

	u := createUser(t, stores, "u@x.com")
	project := createProject(t, stores, u)

	// One update reachable via authorship and ownership at once.
	createUpdate(t, stores, project, u)
	before := count(t, gdb, &models.Update{})

	result, err := NewOrchestrator(stores).DeleteUser(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.UpdatesDeleted)
	assert.Equal(t, before-1, count(t, gdb, &models.Update{}))
}

func TestDeleteUserKeepsOtherProjects(t *testing.T) {
	_, stores := newTestDB(t)
	ctx := context.Background()

	u := createUser(t, stores, "u@x.com")
	w := createUser(t, stores, "w@x.com")
	theirs := createProject(t, stores, w, u)
	update := createUpdate(t, stores, theirs, w)

	// U reacted to someone else's update in someone else's project.
	addThanks(t, stores, u, update)
	addEyesWanted(t, stores, u, update)

	result, err := NewOrchestrator(stores).DeleteUser(ctx, u.ID)
	require.NoError(t, err)

	// The membership row is gone, the project and its update are not.
	assert.Equal(t, int64(0), result.ProjectsDeleted)
	assert.Equal(t, int64(0), result.UpdatesDeleted)
	assert.Equal(t, int64(1), result.MembershipsDeleted)
	assert.Equal(t, int64(1), result.ThanksDeleted)
	assert.Equal(t, int64(1), result.EyesWantedDeleted)

	_, err = stores.Projects.Find(ctx, theirs.ID)
	assert.NoError(t, err)
	_, err = stores.Updates.Find(ctx, update.ID)
	assert.NoError(t, err)

	memberships, err := stores.Memberships.FindMany(ctx, store.MembershipFilter{UserID: &u.ID})
	require.NoError(t, err)
	assert.Empty(t, memberships, "no dangling membership may survive the user")
}

func TestDeleteProjectScoped(t *testing.T) {
	gdb, stores := newTestDB(t)
	ctx := context.Background()

	owner := createUser(t, stores, "owner@x.com")
	other := createUser(t, stores, "other@x.com")

	doomed := createProject(t, stores, owner, other)
	spared := createProject(t, stores, owner, other)

	doomedUpdate := createUpdate(t, stores, doomed, other)
	sparedUpdate := createUpdate(t, stores, spared, other)

	addThanks(t, stores, owner, doomedUpdate)
	addThanks(t, stores, owner, sparedUpdate)
	addEyesWanted(t, stores, owner, doomedUpdate)

	result, err := NewOrchestrator(stores).DeleteProject(ctx, doomed.ID)
	require.NoError(t, err)

	// Updates authored by others still go with the project.
	assert.Equal(t, int64(1), result.UpdatesDeleted)
	assert.Equal(t, int64(1), result.ProjectsDeleted)
	assert.Equal(t, int64(1), result.ThanksDeleted)
	assert.Equal(t, int64(1), result.EyesWantedDeleted)
	assert.Equal(t, int64(2), result.MembershipsDeleted)

	// The sibling project is untouched.
	_, err = stores.Updates.Find(ctx, sparedUpdate.ID)
	assert.NoError(t, err)
	_, err = stores.Thanks.FindOne(ctx, owner.ID, sparedUpdate.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count(t, gdb, &models.Project{}))
}

func TestDeleteProjectIdempotent(t *testing.T) {
	_, stores := newTestDB(t)
	ctx := context.Background()

	owner := createUser(t, stores, "owner@x.com")
	project := createProject(t, stores, owner)
	createUpdate(t, stores, project, owner)

	orchestrator := NewOrchestrator(stores)

	_, err := orchestrator.DeleteProject(ctx, project.ID)
	require.NoError(t, err)

	second, err := orchestrator.DeleteProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, second)
}

func TestNoDanglingReferencesAfterUserDelete(t *testing.T) {
	gdb, stores := newTestDB(t)
	ctx := context.Background()

	u := createUser(t, stores, "u@x.com")
	v := createUser(t, stores, "v@x.com")

	doomed := createProject(t, stores, u, v)
	survivor := createProject(t, stores, v, u)
	createUpdate(t, stores, survivor, u)

	_, err := NewOrchestrator(stores).DeleteUser(ctx, u.ID)
	require.NoError(t, err)

	var updates []models.Update
	require.NoError(t, gdb.Where("author_id = ?", u.ID).Find(&updates).Error)
	assert.Empty(t, updates)

	var memberships []models.ProjectMembership
	require.NoError(t, gdb.Where("user_id = ?", u.ID).Find(&memberships).Error)
	assert.Empty(t, memberships)

	// V's membership in U's deleted project must not outlive the project.
	require.NoError(t, gdb.Where("project_id = ?", doomed.ID).Find(&memberships).Error)
	assert.Empty(t, memberships)

	var projects []models.Project
	require.NoError(t, gdb.Where("creator_id = ?", u.ID).Find(&projects).Error)
	assert.Empty(t, projects)
}

var errConnReset = errors.New("connection reset by peer")

// failingUpdateStore delegates everything to the real store but can be made
// to fail bulk deletes, simulating the store going away mid-cascade.
type failingUpdateStore struct {
	store.UpdateStore
	fail bool
}

func (s *failingUpdateStore) DeleteMany(ctx context.Context, filter store.UpdateFilter) (int64, error) {
	if s.fail {
		return 0, errConnReset
	}
	return s.UpdateStore.DeleteMany(ctx, filter)
}

func TestDeleteUserHaltsAtFailingStep(t *testing.T) {
	gdb, stores := newTestDB(t)
	ctx := context.Background()

	u := createUser(t, stores, "u@x.com")
	v := createUser(t, stores, "v@x.com")
	project := createProject(t, stores, u, v)
	update := createUpdate(t, stores, project, u)
	addThanks(t, stores, v, update)

	flaky := &failingUpdateStore{UpdateStore: stores.Updates, fail: true}
	stores.Updates = flaky

	orchestrator := NewOrchestrator(stores)

	result, err := orchestrator.DeleteUser(ctx, u.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errConnReset, "the step's failure is surfaced, wrapped")
	assert.Contains(t, err.Error(), "delete updates")

	// Steps after the failing one never ran.
	assert.Equal(t, int64(1), count(t, gdb, &models.Project{}))
	assert.Equal(t, int64(2), count(t, gdb, &models.User{}))
	assert.Equal(t, int64(2), count(t, gdb, &models.ProjectMembership{}))

	// The partial result reports what the completed steps removed.
	require.NotNil(t, result)
	assert.Equal(t, int64(1), result.ThanksDeleted)
	assert.Zero(t, result.UpdatesDeleted)
	assert.Zero(t, result.ProjectsDeleted)
	assert.Zero(t, result.UsersDeleted)

	// No rollback means a retry picks up where the failure left off and
	// converges on the same end state.
	flaky.fail = false

	retried, err := orchestrator.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), retried.UpdatesDeleted)
	assert.Equal(t, int64(1), retried.UsersDeleted)

	assert.Equal(t, int64(0), count(t, gdb, &models.Update{}))
	assert.Equal(t, int64(0), count(t, gdb, &models.Project{}))
	assert.Equal(t, int64(0), count(t, gdb, &models.ProjectMembership{}))
	assert.Equal(t, int64(1), count(t, gdb, &models.User{}))
}

func TestCascadeNotifiesTouchedProjects(t *testing.T) {
	_, stores := newTestDB(t)
	ctx := context.Background()

	u := createUser(t, stores, "u@x.com")
	v := createUser(t, stores, "v@x.com")
	owned := createProject(t, stores, u)
	joined := createProject(t, stores, v, u)

	orchestrator := NewOrchestrator(stores)

	var notified []uint
	orchestrator.Notify = func(projectID uint) {
		notified = append(notified, projectID)
	}

	_, err := orchestrator.DeleteUser(ctx, u.ID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint{owned.ID, joined.ID}, notified)
}
