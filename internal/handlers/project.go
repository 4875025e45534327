package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huddle-dev/huddle/internal/models"
	"github.com/huddle-dev/huddle/internal/projection"
	"github.com/huddle-dev/huddle/internal/store"
	"github.com/huddle-dev/huddle/internal/utils"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type CreateProjectRequest struct {
	Name             string      `json:"name" binding:"required"`
	Tags             []string    `json:"tags"`
	ScheduledUpdates []time.Time `json:"scheduled_updates"`
}

type UpdateProjectRequest struct {
	Name             string      `json:"name"`
	Tags             []string    `json:"tags"`
	Active           *bool       `json:"active"`
	ScheduledUpdates []time.Time `json:"scheduled_updates"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func CreateProject(ctx *gin.Context) {
	var req CreateProjectRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:             strings.TrimSpace(req.Name),
		CreatorID:        userID,
		Active:           true,
		Tags:             pq.StringArray(projection.CleanTags(req.Tags)),
		ScheduledUpdates: datatypes.NewJSONSlice(req.ScheduledUpdates),
	}

	if err := stores.Projects.Insert(ctx, &project); err != nil {
		logrus.WithError(err).Error("creating project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	// The creator starts out as the project's only participant.
	membership := models.ProjectMembership{
		UserID:    userID,
		ProjectID: project.ID,
		Role:      models.RoleParticipant,
	}

	if err := stores.Memberships.Insert(ctx, &membership); err != nil {
		logrus.WithError(err).Error("creating creator membership")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	response, err := projectResponse(ctx, &project, true)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}

	ctx.JSON(http.StatusCreated, response)
}

// ListProjects returns the caller's projects; with ?invited=true it returns
// the projects the caller has a pending invite to instead.
func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	role := models.RoleParticipant
	if ctx.Query("invited") == "true" {
		role = models.RoleInvited
	}

	memberships, err := stores.Memberships.FindMany(ctx, store.MembershipFilter{UserID: &userID, Role: role})
	if err != nil {
		logrus.WithError(err).Error("listing memberships")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	projectIDs := make([]uint, 0, len(memberships))
	for _, membership := range memberships {
		projectIDs = append(projectIDs, membership.ProjectID)
	}

	var projects []models.Project
	if len(projectIDs) > 0 {
		projects, err = stores.Projects.FindMany(ctx, store.ProjectFilter{IDs: projectIDs})
		if err != nil {
			logrus.WithError(err).Error("listing projects")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
			return
		}
	}

	response := make([]projection.ProjectResponse, 0, len(projects))

	for i := range projects {
		projected, err := projectResponse(ctx, &projects[i], projects[i].CreatorID == userID)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
			return
		}
		response = append(response, projected)
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := findProjectForMember(ctx, userID)
	if !ok {
		return
	}

	response, err := projectResponse(ctx, project, project.CreatorID == userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateProjectRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, ok := findProjectForOwner(ctx, userID)
	if !ok {
		return
	}

	patch := make(map[string]interface{})

	if req.Name != "" {
		patch["name"] = strings.TrimSpace(req.Name)
	}

	if req.Tags != nil {
		patch["tags"] = pq.StringArray(projection.CleanTags(req.Tags))
	}

	if req.Active != nil {
		patch["active"] = *req.Active
	}

	if req.ScheduledUpdates != nil {
		patch["scheduled_updates"] = datatypes.NewJSONSlice(req.ScheduledUpdates)
	}

	if len(patch) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := stores.Projects.UpdateOne(ctx, project.ID, patch); err != nil {
		logrus.WithError(err).Error("updating project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	project, err = stores.Projects.Find(ctx, project.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}

	BroadcastRefresh(project.ID)

	response, err := projectResponse(ctx, project, true)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// DeleteProject removes the project, every update in it regardless of
// author, and all reactions on those updates.
func DeleteProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := findProjectForOwner(ctx, userID)
	if !ok {
		return
	}

	result, err := cascades.DeleteProject(ctx, project.ID)
	if err != nil {
		logrus.WithError(err).Error("project cascade failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
		"deleted": result,
	})
}

func InviteToProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req InviteRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, ok := findProjectForOwner(ctx, userID)
	if !ok {
		return
	}

	invitee, err := stores.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "No user with that email"})
			return
		}
		logrus.WithError(err).Error("fetching invitee")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// A user holds at most one membership row per project, participant or
	// invited, so a second invite (or inviting a participant) is a conflict.
	if _, err := stores.Memberships.FindOne(ctx, project.ID, invitee.ID); err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "User is already a member or invitee of this project"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		logrus.WithError(err).Error("checking membership")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	membership := models.ProjectMembership{
		UserID:    invitee.ID,
		ProjectID: project.ID,
		Role:      models.RoleInvited,
	}

	if err := stores.Memberships.Insert(ctx, &membership); err != nil {
		logrus.WithError(err).Error("creating invite")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invite user"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "User invited successfully"})
}

func AcceptInvite(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := stores.Memberships.FindOne(ctx, projectID, userID)
	if err != nil || membership.Role != models.RoleInvited {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No pending invite for this project"})
		return
	}

	patch := map[string]interface{}{"role": models.RoleParticipant}

	if err := stores.Memberships.UpdateOne(ctx, membership.ID, patch); err != nil {
		logrus.WithError(err).Error("accepting invite")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invite"})
		return
	}

	// A fresh participant gets eyes-wanted rows for the project's existing
	// updates, so their attention queue starts out complete.
	if err := flagProjectUpdatesForUser(ctx, projectID, userID); err != nil {
		logrus.WithError(err).Error("flagging updates for new participant")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invite"})
		return
	}

	BroadcastRefresh(projectID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Invite accepted"})
}

func DeclineInvite(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := stores.Memberships.FindOne(ctx, projectID, userID)
	if err != nil || membership.Role != models.RoleInvited {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No pending invite for this project"})
		return
	}

	filter := store.MembershipFilter{UserID: &userID, ProjectID: &projectID}

	if _, err := stores.Memberships.DeleteMany(ctx, filter); err != nil {
		logrus.WithError(err).Error("declining invite")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline invite"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Invite declined"})
}

// LeaveProject removes the caller's membership. The owner cannot leave their
// own project; they delete it instead.
func LeaveProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := stores.Projects.Find(ctx, projectID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	if project.CreatorID == userID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "The project creator cannot leave; delete the project instead"})
		return
	}

	filter := store.MembershipFilter{UserID: &userID, ProjectID: &projectID}

	n, err := stores.Memberships.DeleteMany(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("leaving project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave project"})
		return
	}

	if n == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "You are not a member of this project"})
		return
	}

	if err := clearProjectFlagsForUser(ctx, projectID, userID); err != nil {
		logrus.WithError(err).Error("clearing attention flags")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave project"})
		return
	}

	BroadcastRefresh(projectID)

	ctx.JSON(http.StatusOK, gin.H{"message": "You have left the project"})
}

// findProjectForOwner loads the project from the route and checks the caller
// owns it, writing the error response itself when not.
func findProjectForOwner(ctx *gin.Context, userID uint) (*models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	project, err := stores.Projects.Find(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			logrus.WithError(err).Error("fetching project")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, false
	}

	if project.CreatorID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the project creator can do this"})
		return nil, false
	}

	return project, true
}

func findProjectForMember(ctx *gin.Context, userID uint) (*models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	project, err := stores.Projects.Find(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			logrus.WithError(err).Error("fetching project")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, false
	}

	if project.CreatorID != userID {
		membership, err := stores.Memberships.FindOne(ctx, projectID, userID)
		if err != nil || membership.Role != models.RoleParticipant {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this project"})
			return nil, false
		}
	}

	return project, true
}

// projectResponse assembles the outward shape of a project: the creator and
// member references are flattened to emails, admin mode adds the invite list.
func projectResponse(ctx *gin.Context, project *models.Project, admin bool) (projection.ProjectResponse, error) {
	creator, err := stores.Users.Find(ctx, project.CreatorID)
	if err != nil {
		logrus.WithError(err).Error("fetching project creator")
		return projection.ProjectResponse{}, err
	}

	participants, err := membersWithRole(ctx, project.ID, models.RoleParticipant)
	if err != nil {
		return projection.ProjectResponse{}, err
	}

	if !admin {
		return projection.ProjectUser(project, creator, participants), nil
	}

	invitees, err := membersWithRole(ctx, project.ID, models.RoleInvited)
	if err != nil {
		return projection.ProjectResponse{}, err
	}

	return projection.ProjectAdmin(project, creator, participants, invitees), nil
}

func membersWithRole(ctx *gin.Context, projectID uint, role string) ([]models.User, error) {
	memberships, err := stores.Memberships.FindMany(ctx, store.MembershipFilter{ProjectID: &projectID, Role: role})
	if err != nil {
		logrus.WithError(err).Error("fetching memberships")
		return nil, err
	}

	ids := make([]uint, 0, len(memberships))
	for _, membership := range memberships {
		ids = append(ids, membership.UserID)
	}

	users, err := stores.Users.FindMany(ctx, ids)
	if err != nil {
		logrus.WithError(err).Error("fetching members")
		return nil, err
	}

	return users, nil
}
