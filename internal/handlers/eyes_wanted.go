package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-dev/huddle/internal/models"
	"github.com/huddle-dev/huddle/internal/projection"
	"github.com/huddle-dev/huddle/internal/store"
	"github.com/huddle-dev/huddle/internal/utils"
	"github.com/sirupsen/logrus"
)

// ListEyesWanted returns the updates currently waiting on the caller's
// attention, newest flag first.
func ListEyesWanted(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	flags, err := stores.EyesWanted.FindMany(ctx, store.ReactionFilter{UserID: &userID})
	if err != nil {
		logrus.WithError(err).Error("listing eyes wanted")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve eyes wanted"})
		return
	}

	response := make([]projection.UpdateResponse, 0, len(flags))

	for _, flag := range flags {
		update, err := stores.Updates.Find(ctx, flag.UpdateID)
		if err != nil {
			// The flagged update can be gone mid-cascade; skip it. Any
			// other store failure must surface, not render an empty queue.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			logrus.WithError(err).Error("fetching flagged update")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve eyes wanted"})
			return
		}

		projected, err := updateResponse(ctx, update)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updates"})
			return
		}

		response = append(response, projected)
	}

	ctx.JSON(http.StatusOK, response)
}

// DismissEyesWanted clears the caller's attention flag on one update.
// Dismissing a flag that does not exist is already satisfied.
func DismissEyesWanted(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	updateID, err := utils.GetUpdateID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := stores.EyesWanted.DeleteOne(ctx, userID, updateID); err != nil {
		logrus.WithError(err).Error("dismissing eyes wanted")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dismiss"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Dismissed"})
}

// flagUpdateForParticipants creates an eyes-wanted row for every participant
// of the update's project except the author.
func flagUpdateForParticipants(ctx *gin.Context, update *models.Update) error {
	participants, err := membersWithRole(ctx, update.ProjectID, models.RoleParticipant)
	if err != nil {
		return err
	}

	for _, participant := range participants {
		if participant.ID == update.AuthorID {
			continue
		}

		flag := models.EyesWanted{
			UserID:   participant.ID,
			UpdateID: update.ID,
		}

		if err := stores.EyesWanted.Insert(ctx, &flag); err != nil {
			return err
		}
	}

	return nil
}

// clearProjectFlagsForUser removes the user's eyes-wanted rows for a project
// they are no longer part of. A stale row would also collide with the
// backfill if the user is invited back later.
func clearProjectFlagsForUser(ctx *gin.Context, projectID, userID uint) error {
	updates, err := stores.Updates.FindMany(ctx, store.UpdateFilter{ProjectIDs: []uint{projectID}})
	if err != nil {
		return err
	}

	ids := make([]uint, 0, len(updates))
	for _, update := range updates {
		ids = append(ids, update.ID)
	}

	_, err = stores.EyesWanted.DeleteMany(ctx, store.ReactionFilter{UserID: &userID, UpdateIDs: ids})
	return err
}

// flagProjectUpdatesForUser backfills eyes-wanted rows for a user who just
// joined a project with history.
func flagProjectUpdatesForUser(ctx *gin.Context, projectID, userID uint) error {
	updates, err := stores.Updates.FindMany(ctx, store.UpdateFilter{ProjectIDs: []uint{projectID}})
	if err != nil {
		return err
	}

	for _, update := range updates {
		if update.AuthorID == userID {
			continue
		}

		flag := models.EyesWanted{
			UserID:   userID,
			UpdateID: update.ID,
		}

		if err := stores.EyesWanted.Insert(ctx, &flag); err != nil {
			return err
		}
	}

	return nil
}
