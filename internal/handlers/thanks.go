package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-dev/huddle/internal/models"
	"github.com/huddle-dev/huddle/internal/store"
	"github.com/huddle-dev/huddle/internal/utils"
	"github.com/sirupsen/logrus"
)

type ThanksResponse struct {
	UpdateID string `json:"update_id"`
	PostUser string `json:"post_user"`
}

// CreateThanks records the caller's thanks on an update. At most one per
// (user, update): the existing row is looked up before inserting so a repeat
// reads as a conflict instead of a bare constraint error.
func CreateThanks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	update, ok := findVisibleUpdate(ctx, userID)
	if !ok {
		return
	}

	if _, err := stores.Thanks.FindOne(ctx, userID, update.ID); err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "You have already thanked this update"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		logrus.WithError(err).Error("checking existing thanks")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	thanks := models.Thanks{
		PostUserID: userID,
		UpdateID:   update.ID,
	}

	if err := stores.Thanks.Insert(ctx, &thanks); err != nil {
		logrus.WithError(err).Error("creating thanks")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add thanks"})
		return
	}

	BroadcastRefresh(update.ProjectID)

	ctx.JSON(http.StatusCreated, gin.H{"message": "Thanks added"})
}

// DeleteThanks withdraws the caller's thanks. Removing a thanks that was
// never given is already satisfied, not an error.
func DeleteThanks(ctx *gin.Context) {
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

	if _, err := stores.Thanks.DeleteOne(ctx, userID, updateID); err != nil {
		logrus.WithError(err).Error("deleting thanks")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove thanks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Thanks removed"})
}

func ListThanks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	update, ok := findVisibleUpdate(ctx, userID)
	if !ok {
		return
	}

	thanks, err := stores.Thanks.FindMany(ctx, store.ReactionFilter{UpdateIDs: []uint{update.ID}})
	if err != nil {
		logrus.WithError(err).Error("listing thanks")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve thanks"})
		return
	}

	userIDs := make([]uint, 0, len(thanks))
	for _, t := range thanks {
		userIDs = append(userIDs, t.PostUserID)
	}

	users, err := stores.Users.FindMany(ctx, userIDs)
	if err != nil {
		logrus.WithError(err).Error("fetching thanks posters")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve thanks"})
		return
	}

	emailByID := make(map[uint]string, len(users))
	for _, user := range users {
		emailByID[user.ID] = user.Email
	}

	response := make([]ThanksResponse, 0, len(thanks))
	for _, t := range thanks {
		response = append(response, ThanksResponse{
			UpdateID: utils.FormatID(t.UpdateID),
			PostUser: emailByID[t.PostUserID],
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// findVisibleUpdate loads the update from the route and checks the caller
// can see its project.
func findVisibleUpdate(ctx *gin.Context, userID uint) (*models.Update, bool) {
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

	if ok := requireParticipant(ctx, update.ProjectID, userID); !ok {
		return nil, false
	}

	return update, true
}
