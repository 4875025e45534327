package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/huddle-dev/huddle/internal/models"
	"github.com/huddle-dev/huddle/internal/projection"
	"github.com/huddle-dev/huddle/internal/store"
	"github.com/huddle-dev/huddle/internal/types"
	"github.com/huddle-dev/huddle/internal/utils"
	"github.com/sirupsen/logrus"
)

type CreateUpdateRequest struct {
	ProjectID uint   `json:"project_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Summary   string `json:"summary" binding:"required"`
	Details   string `json:"details" binding:"required"`
	Todos     string `json:"todos"`
	Blockers  string `json:"blockers"`
}

type EditUpdateRequest struct {
	Status   string  `json:"status"`
	Summary  string  `json:"summary"`
	Details  string  `json:"details"`
	Todos    *string `json:"todos"`
	Blockers *string `json:"blockers"`
}

func validStatus(status string) bool {
	for _, s := range types.UpdateStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ListUpdates returns a project's updates, newest first, visible to any
// participant of that project.
func ListUpdates(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := findProjectForMember(ctx, userID)
	if !ok {
		return
	}

	updates, err := stores.Updates.FindMany(ctx, store.UpdateFilter{ProjectIDs: []uint{project.ID}})
	if err != nil {
		logrus.WithError(err).Error("listing updates")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve updates"})
		return
	}

	response := make([]projection.UpdateResponse, 0, len(updates))

	for i := range updates {
		projected, err := updateResponse(ctx, &updates[i])
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updates"})
			return
		}
		response = append(response, projected)
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateUpdate(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateUpdateRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	summary := strings.TrimSpace(req.Summary)

	if utf8.RuneCountInString(summary) > types.SummaryMaxLength {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Summary must be at most 60 characters"})
		return
	}

	if !validStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if ok := requireParticipant(ctx, req.ProjectID, userID); !ok {
		return
	}

	update := models.Update{
		ProjectID: req.ProjectID,
		AuthorID:  userID,
		Status:    req.Status,
		Summary:   summary,
		Details:   req.Details,
		Todos:     req.Todos,
		Blockers:  req.Blockers,
	}

	if err := stores.Updates.Insert(ctx, &update); err != nil {
		logrus.WithError(err).Error("creating update")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create update"})
		return
	}

	// Every other participant gets an eyes-wanted row for the new update.
	if err := flagUpdateForParticipants(ctx, &update); err != nil {
		logrus.WithError(err).Error("flagging update for participants")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create update"})
		return
	}

	BroadcastRefresh(update.ProjectID)

	response, err := updateResponse(ctx, &update)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load update"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Your update was created successfully",
		"update":  response,
	})
}

func EditUpdate(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	update, ok := findUpdateForAuthor(ctx, userID)
	if !ok {
		return
	}

	var req EditUpdateRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	patch := make(map[string]interface{})

	if req.Status != "" {
		if !validStatus(req.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		patch["status"] = req.Status
	}

	if req.Summary != "" {
		summary := strings.TrimSpace(req.Summary)
		if utf8.RuneCountInString(summary) > types.SummaryMaxLength {
			ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Summary must be at most 60 characters"})
			return
		}
		patch["summary"] = summary
	}

	if req.Details != "" {
		patch["details"] = req.Details
	}

	if req.Todos != nil {
		patch["todos"] = *req.Todos
	}

	if req.Blockers != nil {
		patch["blockers"] = *req.Blockers
	}

	if len(patch) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := stores.Updates.UpdateOne(ctx, update.ID, patch); err != nil {
		logrus.WithError(err).Error("editing update")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update"})
		return
	}

	update, err = stores.Updates.Find(ctx, update.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load update"})
		return
	}

	BroadcastRefresh(update.ProjectID)

	response, err := updateResponse(ctx, update)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load update"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Your update was updated successfully",
		"update":  response,
	})
}

// DeleteUpdate removes one update and the reactions hanging off it,
// children first.
func DeleteUpdate(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	update, ok := findUpdateForAuthor(ctx, userID)
	if !ok {
		return
	}

	filter := store.ReactionFilter{UpdateIDs: []uint{update.ID}}

	if _, err := stores.EyesWanted.DeleteMany(ctx, filter); err != nil {
		logrus.WithError(err).Error("deleting eyes wanted")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete update"})
		return
	}

	if _, err := stores.Thanks.DeleteMany(ctx, filter); err != nil {
		logrus.WithError(err).Error("deleting thanks")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete update"})
		return
	}

	if _, err := stores.Updates.DeleteMany(ctx, store.UpdateFilter{IDs: []uint{update.ID}}); err != nil {
		logrus.WithError(err).Error("deleting update")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete update"})
		return
	}

	BroadcastRefresh(update.ProjectID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Your update was deleted successfully"})
}

func findUpdateForAuthor(ctx *gin.Context, userID uint) (*models.Update, bool) {
	updateID, err := utils.GetUpdateID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	update, err := stores.Updates.Find(ctx, updateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Update not found"})
		} else {
			logrus.WithError(err).Error("fetching update")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve update"})
		}
		return nil, false
	}

	if update.AuthorID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the author can modify this update"})
		return nil, false
	}

	return update, true
}

func requireParticipant(ctx *gin.Context, projectID, userID uint) bool {
	project, err := stores.Projects.Find(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			logrus.WithError(err).Error("fetching project")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return false
	}

	if project.CreatorID == userID {
		return true
	}

	membership, err := stores.Memberships.FindOne(ctx, projectID, userID)
	if err != nil || membership.Role != models.RoleParticipant {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this project"})
		return false
	}

	return true
}

func updateResponse(ctx *gin.Context, update *models.Update) (projection.UpdateResponse, error) {
	author, err := stores.Users.Find(ctx, update.AuthorID)
	if err != nil {
		logrus.WithError(err).Error("fetching update author")
		return projection.UpdateResponse{}, err
	}

	project, err := stores.Projects.Find(ctx, update.ProjectID)
	if err != nil {
		logrus.WithError(err).Error("fetching update project")
		return projection.UpdateResponse{}, err
	}

	return projection.Update(update, author, project), nil
}
