package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/huddle-dev/huddle/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStores(t *testing.T) *Stores {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

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

	return New(gdb)
}

func seedUser(t *testing.T, stores *Stores, email string) *models.User {
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

func TestFindMapsMissingRecordToErrNotFound(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	_, err := stores.Users.Find(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = stores.Users.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = stores.Projects.Find(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = stores.Thanks.FindOne(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteManyRefusesEmptyFilter(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	_, err := stores.Projects.DeleteMany(ctx, ProjectFilter{})
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, err = stores.Updates.DeleteMany(ctx, UpdateFilter{})
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, err = stores.Memberships.DeleteMany(ctx, MembershipFilter{})
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, err = stores.Thanks.DeleteMany(ctx, ReactionFilter{})
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, err = stores.EyesWanted.DeleteMany(ctx, ReactionFilter{})
	assert.ErrorIs(t, err, ErrEmptyFilter)
}

func TestDeleteManyExplicitEmptySetIsNoop(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	user := seedUser(t, stores, "u@x.com")
	project := &models.Project{Name: "p", CreatorID: user.ID, Active: true}
	require.NoError(t, stores.Projects.Insert(ctx, project))

	// An empty ID set came out of a resolver that found nothing dependent.
	// It must delete nothing, not fall through to an unscoped delete.
	n, err := stores.Projects.DeleteMany(ctx, ProjectFilter{IDs: []uint{}})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = stores.Updates.DeleteMany(ctx, UpdateFilter{IDs: []uint{}})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = stores.Memberships.DeleteMany(ctx, MembershipFilter{ProjectIDs: []uint{}})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = stores.Thanks.DeleteMany(ctx, ReactionFilter{UpdateIDs: []uint{}})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = stores.Projects.Find(ctx, project.ID)
	assert.NoError(t, err, "the seeded project must survive every no-op")
}

func TestThanksDeleteOneIsIdempotent(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	author := seedUser(t, stores, "author@x.com")
	fan := seedUser(t, stores, "fan@x.com")

	project := &models.Project{Name: "p", CreatorID: author.ID, Active: true}
	require.NoError(t, stores.Projects.Insert(ctx, project))

	update := &models.Update{ProjectID: project.ID, AuthorID: author.ID, Status: "on track", Summary: "s"}
	require.NoError(t, stores.Updates.Insert(ctx, update))

	require.NoError(t, stores.Thanks.Insert(ctx, &models.Thanks{PostUserID: fan.ID, UpdateID: update.ID}))

	n, err := stores.Thanks.DeleteOne(ctx, fan.ID, update.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = stores.Thanks.DeleteOne(ctx, fan.ID, update.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "deleting an absent reaction reports zero rows, no error")

	// The pair is free again after a hard delete.
	assert.NoError(t, stores.Thanks.Insert(ctx, &models.Thanks{PostUserID: fan.ID, UpdateID: update.ID}))
}

func TestDuplicateReactionRejected(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	user := seedUser(t, stores, "u@x.com")
	project := &models.Project{Name: "p", CreatorID: user.ID, Active: true}
	require.NoError(t, stores.Projects.Insert(ctx, project))

	update := &models.Update{ProjectID: project.ID, AuthorID: user.ID, Status: "on track", Summary: "s"}
	require.NoError(t, stores.Updates.Insert(ctx, update))

	require.NoError(t, stores.EyesWanted.Insert(ctx, &models.EyesWanted{UserID: user.ID, UpdateID: update.ID}))
	err := stores.EyesWanted.Insert(ctx, &models.EyesWanted{UserID: user.ID, UpdateID: update.ID})
	assert.Error(t, err, "one flag per user per update")
}

func TestMembershipRoleFilter(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	owner := seedUser(t, stores, "owner@x.com")
	invited := seedUser(t, stores, "invited@x.com")

	project := &models.Project{Name: "p", CreatorID: owner.ID, Active: true}
	require.NoError(t, stores.Projects.Insert(ctx, project))

	require.NoError(t, stores.Memberships.Insert(ctx, &models.ProjectMembership{
		UserID: owner.ID, ProjectID: project.ID, Role: models.RoleParticipant,
	}))
	require.NoError(t, stores.Memberships.Insert(ctx, &models.ProjectMembership{
		UserID: invited.ID, ProjectID: project.ID, Role: models.RoleInvited,
	}))

	participants, err := stores.Memberships.FindMany(ctx, MembershipFilter{
		ProjectID: &project.ID,
		Role:      models.RoleParticipant,
	})
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, owner.ID, participants[0].UserID)

	invitees, err := stores.Memberships.FindMany(ctx, MembershipFilter{
		ProjectID: &project.ID,
		Role:      models.RoleInvited,
	})
	require.NoError(t, err)
	require.Len(t, invitees, 1)
	assert.Equal(t, invited.ID, invitees[0].UserID)
}

func TestUserFindManyEmptyInput(t *testing.T) {
	stores := newTestStores(t)

	users, err := stores.Users.FindMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
