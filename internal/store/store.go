package store

import (
	"context"
	"errors"

	"github.com/huddle-dev/huddle/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound reports that the requested record does not exist. Deletion
// paths treat it as already satisfied; read paths surface it to the caller.
var ErrNotFound = errors.New("record not found")

// ErrEmptyFilter guards bulk deletes from running unscoped.
var ErrEmptyFilter = errors.New("filter matches everything")

type UserStore interface {
	Find(ctx context.Context, id uint) (*models.User, error)
	FindMany(ctx context.Context, ids []uint) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	UpdateOne(ctx context.Context, id uint, patch map[string]interface{}) error
	DeleteOne(ctx context.Context, id uint) (int64, error)
}

// ProjectFilter scopes project reads and deletes. Set fields combine with AND.
type ProjectFilter struct {
	IDs       []uint
	CreatorID *uint
}

type ProjectStore interface {
	Find(ctx context.Context, id uint) (*models.Project, error)
	FindMany(ctx context.Context, filter ProjectFilter) ([]models.Project, error)
	Insert(ctx context.Context, project *models.Project) error
	UpdateOne(ctx context.Context, id uint, patch map[string]interface{}) error
	DeleteMany(ctx context.Context, filter ProjectFilter) (int64, error)
}

type MembershipFilter struct {
	UserID     *uint
	ProjectID  *uint
	ProjectIDs []uint
	Role       string
}

type MembershipStore interface {
	FindOne(ctx context.Context, projectID, userID uint) (*models.ProjectMembership, error)
	FindMany(ctx context.Context, filter MembershipFilter) ([]models.ProjectMembership, error)
	Insert(ctx context.Context, membership *models.ProjectMembership) error
	UpdateOne(ctx context.Context, id uint, patch map[string]interface{}) error
	DeleteMany(ctx context.Context, filter MembershipFilter) (int64, error)
}

type UpdateFilter struct {
	IDs        []uint
	AuthorID   *uint
	ProjectIDs []uint
}

type UpdateStore interface {
	Find(ctx context.Context, id uint) (*models.Update, error)
	FindMany(ctx context.Context, filter UpdateFilter) ([]models.Update, error)
	Insert(ctx context.Context, update *models.Update) error
	UpdateOne(ctx context.Context, id uint, patch map[string]interface{}) error
	DeleteMany(ctx context.Context, filter UpdateFilter) (int64, error)
}

type ReactionFilter struct {
	UserID    *uint
	UpdateIDs []uint
}

type ThanksStore interface {
	FindOne(ctx context.Context, userID, updateID uint) (*models.Thanks, error)
	FindMany(ctx context.Context, filter ReactionFilter) ([]models.Thanks, error)
	Insert(ctx context.Context, thanks *models.Thanks) error
	DeleteOne(ctx context.Context, userID, updateID uint) (int64, error)
	DeleteMany(ctx context.Context, filter ReactionFilter) (int64, error)
}

type EyesWantedStore interface {
	FindOne(ctx context.Context, userID, updateID uint) (*models.EyesWanted, error)
	FindMany(ctx context.Context, filter ReactionFilter) ([]models.EyesWanted, error)
	Insert(ctx context.Context, eyes *models.EyesWanted) error
	DeleteOne(ctx context.Context, userID, updateID uint) (int64, error)
	DeleteMany(ctx context.Context, filter ReactionFilter) (int64, error)
}

// Stores bundles one store per entity over a shared gorm connection.
type Stores struct {
	Users       UserStore
	Projects    ProjectStore
	Memberships MembershipStore
	Updates     UpdateStore
	Thanks      ThanksStore
	EyesWanted  EyesWantedStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Users:       &userStore{db: db},
		Projects:    &projectStore{db: db},
		Memberships: &membershipStore{db: db},
		Updates:     &updateStore{db: db},
		Thanks:      &thanksStore{db: db},
		EyesWanted:  &eyesWantedStore{db: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
