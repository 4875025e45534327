package cascade

import (
	"context"
	"fmt"

	"github.com/huddle-dev/huddle/internal/models"
	"github.com/huddle-dev/huddle/internal/store"
)

// Resolver walks the reference graph ahead of a deletion and produces the
// full set of dependent record IDs. Updates are reachable from a user along
// two independent edges (authorship and project ownership), so the update
// set is computed as an explicit deduplicated union before anything is
// deleted, never as a sequence of overlapping delete-by-filter calls.
type Resolver struct {
	stores *store.Stores
}

func NewResolver(stores *store.Stores) *Resolver {
	return &Resolver{stores: stores}
}

// UserPlan is everything that has to go, or change, when one user is removed.
type UserPlan struct {
	UserID uint

	// UpdateIDs is the union of updates authored by the user and updates
	// living in projects the user owns, each ID exactly once.
	UpdateIDs []uint

	OwnedProjectIDs []uint

	// MemberProjectIDs are projects the user belongs to but does not own.
	// Those projects survive; only the membership rows are removed.
	MemberProjectIDs []uint
}

// ProjectPlan is the restriction of a UserPlan to a single project.
type ProjectPlan struct {
	ProjectID uint
	UpdateIDs []uint
}

func (r *Resolver) ResolveUser(ctx context.Context, userID uint) (*UserPlan, error) {
	authored, err := r.stores.Updates.FindMany(ctx, store.UpdateFilter{AuthorID: &userID})
	if err != nil {
		return nil, fmt.Errorf("resolve authored updates: %w", err)
	}

	owned, err := r.stores.Projects.FindMany(ctx, store.ProjectFilter{CreatorID: &userID})
	if err != nil {
		return nil, fmt.Errorf("resolve owned projects: %w", err)
	}

	ownedIDs := make([]uint, 0, len(owned))
	ownedSet := make(map[uint]bool, len(owned))
	for _, project := range owned {
		ownedIDs = append(ownedIDs, project.ID)
		ownedSet[project.ID] = true
	}

	var inOwned []models.Update
	if len(ownedIDs) > 0 {
		inOwned, err = r.stores.Updates.FindMany(ctx, store.UpdateFilter{ProjectIDs: ownedIDs})
		if err != nil {
			return nil, fmt.Errorf("resolve updates in owned projects: %w", err)
		}
	}

	memberships, err := r.stores.Memberships.FindMany(ctx, store.MembershipFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("resolve memberships: %w", err)
	}

	var memberIDs []uint
	for _, membership := range memberships {
		if !ownedSet[membership.ProjectID] {
			memberIDs = append(memberIDs, membership.ProjectID)
		}
	}

	return &UserPlan{
		UserID:           userID,
		UpdateIDs:        unionUpdateIDs(authored, inOwned),
		OwnedProjectIDs:  ownedIDs,
		MemberProjectIDs: memberIDs,
	}, nil
}

func (r *Resolver) ResolveProject(ctx context.Context, projectID uint) (*ProjectPlan, error) {
	updates, err := r.stores.Updates.FindMany(ctx, store.UpdateFilter{ProjectIDs: []uint{projectID}})
	if err != nil {
		return nil, fmt.Errorf("resolve project updates: %w", err)
	}

	ids := make([]uint, 0, len(updates))
	for _, update := range updates {
		ids = append(ids, update.ID)
	}

	return &ProjectPlan{ProjectID: projectID, UpdateIDs: ids}, nil
}

// unionUpdateIDs merges the two reachability paths, keeping first-occurrence
// order so repeated resolutions produce the same plan. The result is always
// an explicit set; an empty one scopes downstream deletes to nothing.
func unionUpdateIDs(groups ...[]models.Update) []uint {
	seen := make(map[uint]bool)
	ids := []uint{}

	for _, group := range groups {
		for _, update := range group {
			if seen[update.ID] {
				continue
			}
			seen[update.ID] = true
			ids = append(ids, update.ID)
		}
	}

	return ids
}
