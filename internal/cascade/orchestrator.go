package cascade

import (
	"context"
	"fmt"

	"github.com/huddle-dev/huddle/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Orchestrator executes deletion plans in dependency order: reactions before
// the updates they annotate, updates before the projects that own them, the
// user record last. Every step is a bulk operation scoped by the IDs the
// resolver computed up front, so re-running a cascade after a partial
// failure deletes nothing twice and errors on nothing already gone.
//
// There is no cross-step atomicity and no rollback. A failing step halts the
// cascade and is reported; retrying the whole cascade is always safe.
type Orchestrator struct {
	stores   *store.Stores
	resolver *Resolver

	// Notify, when set, is called once per project a completed cascade
	// touched, so read-through caches and live feeds can invalidate.
	Notify func(projectID uint)
}

func NewOrchestrator(stores *store.Stores) *Orchestrator {
	return &Orchestrator{
		stores:   stores,
		resolver: NewResolver(stores),
	}
}

// Result reports how many records each step of a cascade removed. A cascade
// re-run against an already-deleted root reports success with all zeroes.
type Result struct {
	EyesWantedDeleted  int64 `json:"eyes_wanted_deleted"`
	ThanksDeleted      int64 `json:"thanks_deleted"`
	UpdatesDeleted     int64 `json:"updates_deleted"`
	ProjectsDeleted    int64 `json:"projects_deleted"`
	MembershipsDeleted int64 `json:"memberships_deleted"`
	UsersDeleted       int64 `json:"users_deleted"`
}

// DeleteUser removes a user and every record that would otherwise dangle:
// updates they authored, updates in projects they own, reactions on all of
// those, reactions they posted anywhere, their projects, and their
// memberships in projects that survive them.
func (o *Orchestrator) DeleteUser(ctx context.Context, userID uint) (*Result, error) {
	plan, err := o.resolver.ResolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"updates":        len(plan.UpdateIDs),
		"owned_projects": len(plan.OwnedProjectIDs),
	})

	result := &Result{}

	// Reactions on the dependent update set have no ordering dependency on
	// each other, only on the updates they point at.
	if err := o.deleteReactionsByUpdates(ctx, plan.UpdateIDs, result); err != nil {
		return result, err
	}

	n, err := o.stores.Updates.DeleteMany(ctx, store.UpdateFilter{IDs: plan.UpdateIDs})
	if err != nil {
		return result, fmt.Errorf("delete updates: %w", err)
	}
	result.UpdatesDeleted = n

	// The user's own reactions on updates outside the dependent set.
	if err := o.deleteReactionsByUser(ctx, userID, result); err != nil {
		return result, err
	}

	n, err = o.stores.Projects.DeleteMany(ctx, store.ProjectFilter{IDs: plan.OwnedProjectIDs})
	if err != nil {
		return result, fmt.Errorf("delete owned projects: %w", err)
	}
	result.ProjectsDeleted = n

	// Other members' rows in the projects that just went away.
	n, err = o.stores.Memberships.DeleteMany(ctx, store.MembershipFilter{ProjectIDs: plan.OwnedProjectIDs})
	if err != nil {
		return result, fmt.Errorf("delete owned-project memberships: %w", err)
	}
	result.MembershipsDeleted += n

	// The user's own rows everywhere else. Those projects keep existing; the
	// dangling member reference must not.
	n, err = o.stores.Memberships.DeleteMany(ctx, store.MembershipFilter{UserID: &userID})
	if err != nil {
		return result, fmt.Errorf("delete memberships: %w", err)
	}
	result.MembershipsDeleted += n

	n, err = o.stores.Users.DeleteOne(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("delete user: %w", err)
	}
	result.UsersDeleted = n

	log.WithField("result", result).Info("user cascade complete")

	o.notifyProjects(plan.OwnedProjectIDs, plan.MemberProjectIDs)

	return result, nil
}

// DeleteProject removes one project, its updates, and the reactions on those
// updates. Updates authored by other participants go with the project.
func (o *Orchestrator) DeleteProject(ctx context.Context, projectID uint) (*Result, error) {
	plan, err := o.resolver.ResolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	if err := o.deleteReactionsByUpdates(ctx, plan.UpdateIDs, result); err != nil {
		return result, err
	}

	n, err := o.stores.Updates.DeleteMany(ctx, store.UpdateFilter{IDs: plan.UpdateIDs})
	if err != nil {
		return result, fmt.Errorf("delete updates: %w", err)
	}
	result.UpdatesDeleted = n

	n, err = o.stores.Memberships.DeleteMany(ctx, store.MembershipFilter{ProjectID: &projectID})
	if err != nil {
		return result, fmt.Errorf("delete memberships: %w", err)
	}
	result.MembershipsDeleted = n

	n, err = o.stores.Projects.DeleteMany(ctx, store.ProjectFilter{IDs: []uint{projectID}})
	if err != nil {
		return result, fmt.Errorf("delete project: %w", err)
	}
	result.ProjectsDeleted = n

	logrus.WithFields(logrus.Fields{
		"project_id": projectID,
		"result":     result,
	}).Info("project cascade complete")

	o.notifyProjects([]uint{projectID}, nil)

	return result, nil
}

func (o *Orchestrator) deleteReactionsByUpdates(ctx context.Context, updateIDs []uint, result *Result) error {
	var eyes, thanks int64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := o.stores.EyesWanted.DeleteMany(gctx, store.ReactionFilter{UpdateIDs: updateIDs})
		if err != nil {
			return fmt.Errorf("delete eyes wanted by updates: %w", err)
		}
		eyes = n
		return nil
	})

	g.Go(func() error {
		n, err := o.stores.Thanks.DeleteMany(gctx, store.ReactionFilter{UpdateIDs: updateIDs})
		if err != nil {
			return fmt.Errorf("delete thanks by updates: %w", err)
		}
		thanks = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	result.EyesWantedDeleted += eyes
	result.ThanksDeleted += thanks

	return nil
}

func (o *Orchestrator) deleteReactionsByUser(ctx context.Context, userID uint, result *Result) error {
	var eyes, thanks int64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := o.stores.EyesWanted.DeleteMany(gctx, store.ReactionFilter{UserID: &userID})
		if err != nil {
			return fmt.Errorf("delete eyes wanted by user: %w", err)
		}
		eyes = n
		return nil
	})

	g.Go(func() error {
		n, err := o.stores.Thanks.DeleteMany(gctx, store.ReactionFilter{UserID: &userID})
		if err != nil {
			return fmt.Errorf("delete thanks by user: %w", err)
		}
		thanks = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	result.EyesWantedDeleted += eyes
	result.ThanksDeleted += thanks

	return nil
}

func (o *Orchestrator) notifyProjects(groups ...[]uint) {
	if o.Notify == nil {
		return
	}

	for _, group := range groups {
		for _, projectID := range group {
			o.Notify(projectID)
		}
	}
}
