package store

import (
	"context"

	"github.com/huddle-dev/huddle/internal/models"
	"gorm.io/gorm"
)

// Thanks and EyesWanted share the same shape and the same access patterns:
// one row per (user, update), bulk-deleted either by update set or by user.

func reactionScope(tx *gorm.DB, userColumn string, filter ReactionFilter) *gorm.DB {
	if filter.UserID != nil {
		tx = tx.Where(userColumn+" = ?", *filter.UserID)
	}

	if len(filter.UpdateIDs) > 0 {
		tx = tx.Where("update_id IN ?", filter.UpdateIDs)
	}

	return tx
}

func reactionDeleteGuard(filter ReactionFilter) (noop bool, err error) {
	if filter.UpdateIDs != nil && len(filter.UpdateIDs) == 0 {
		return true, nil
	}

	if filter.UserID == nil && len(filter.UpdateIDs) == 0 {
		return false, ErrEmptyFilter
	}

	return false, nil
}

type thanksStore struct {
	db *gorm.DB
}

func (s *thanksStore) FindOne(ctx context.Context, userID, updateID uint) (*models.Thanks, error) {
	var thanks models.Thanks

	err := s.db.WithContext(ctx).
		Where("post_user_id = ? AND update_id = ?", userID, updateID).
		First(&thanks).Error
	if err != nil {
		return nil, translate(err)
	}

	return &thanks, nil
}

func (s *thanksStore) FindMany(ctx context.Context, filter ReactionFilter) ([]models.Thanks, error) {
	var thanks []models.Thanks

	tx := reactionScope(s.db.WithContext(ctx).Model(&models.Thanks{}), "post_user_id", filter)

	if err := tx.Order("created_at DESC").Find(&thanks).Error; err != nil {
		return nil, err
	}

	return thanks, nil
}

func (s *thanksStore) Insert(ctx context.Context, thanks *models.Thanks) error {
	return s.db.WithContext(ctx).Create(thanks).Error
}

func (s *thanksStore) DeleteOne(ctx context.Context, userID, updateID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("post_user_id = ? AND update_id = ?", userID, updateID).
		Unscoped().Delete(&models.Thanks{})
	return res.RowsAffected, res.Error
}

func (s *thanksStore) DeleteMany(ctx context.Context, filter ReactionFilter) (int64, error) {
	if noop, err := reactionDeleteGuard(filter); noop || err != nil {
		return 0, err
	}

	res := reactionScope(s.db.WithContext(ctx), "post_user_id", filter).Unscoped().Delete(&models.Thanks{})
	return res.RowsAffected, res.Error
}

type eyesWantedStore struct {
	db *gorm.DB
}

func (s *eyesWantedStore) FindOne(ctx context.Context, userID, updateID uint) (*models.EyesWanted, error) {
	var eyes models.EyesWanted

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND update_id = ?", userID, updateID).
		First(&eyes).Error
	if err != nil {
		return nil, translate(err)
	}

	return &eyes, nil
}

func (s *eyesWantedStore) FindMany(ctx context.Context, filter ReactionFilter) ([]models.EyesWanted, error) {
	var eyes []models.EyesWanted

	tx := reactionScope(s.db.WithContext(ctx).Model(&models.EyesWanted{}), "user_id", filter)

	if err := tx.Order("created_at DESC").Find(&eyes).Error; err != nil {
		return nil, err
	}

	return eyes, nil
}

func (s *eyesWantedStore) Insert(ctx context.Context, eyes *models.EyesWanted) error {
	return s.db.WithContext(ctx).Create(eyes).Error
}

func (s *eyesWantedStore) DeleteOne(ctx context.Context, userID, updateID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND update_id = ?", userID, updateID).
		Unscoped().Delete(&models.EyesWanted{})
	return res.RowsAffected, res.Error
}

func (s *eyesWantedStore) DeleteMany(ctx context.Context, filter ReactionFilter) (int64, error) {
	if noop, err := reactionDeleteGuard(filter); noop || err != nil {
		return 0, err
	}

	res := reactionScope(s.db.WithContext(ctx), "user_id", filter).Unscoped().Delete(&models.EyesWanted{})
	return res.RowsAffected, res.Error
}
