package store

import (
	"context"

	"github.com/huddle-dev/huddle/internal/models"
	"gorm.io/gorm"
)

type updateStore struct {
	db *gorm.DB
}

func (s *updateStore) scope(ctx context.Context, filter UpdateFilter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Update{})

	if len(filter.IDs) > 0 {
		tx = tx.Where("id IN ?", filter.IDs)
	}

	if filter.AuthorID != nil {
		tx = tx.Where("author_id = ?", *filter.AuthorID)
	}

	if len(filter.ProjectIDs) > 0 {
		tx = tx.Where("project_id IN ?", filter.ProjectIDs)
	}

	return tx
}

func (s *updateStore) Find(ctx context.Context, id uint) (*models.Update, error) {
	var update models.Update

	if err := s.db.WithContext(ctx).First(&update, id).Error; err != nil {
		return nil, translate(err)
	}

	return &update, nil
}

func (s *updateStore) FindMany(ctx context.Context, filter UpdateFilter) ([]models.Update, error) {
	var updates []models.Update

	// An explicit empty project set matches nothing, mirroring the delete path.
	if filter.ProjectIDs != nil && len(filter.ProjectIDs) == 0 {
		return nil, nil
	}

	if err := s.scope(ctx, filter).Order("created_at DESC").Find(&updates).Error; err != nil {
		return nil, err
	}

	return updates, nil
}

func (s *updateStore) Insert(ctx context.Context, update *models.Update) error {
	return s.db.WithContext(ctx).Create(update).Error
}

func (s *updateStore) UpdateOne(ctx context.Context, id uint, patch map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.Update{}).Where("id = ?", id).Updates(patch).Error
}

func (s *updateStore) DeleteMany(ctx context.Context, filter UpdateFilter) (int64, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return 0, nil
	}

	if len(filter.IDs) == 0 && filter.AuthorID == nil && len(filter.ProjectIDs) == 0 {
		return 0, ErrEmptyFilter
	}

	res := s.scope(ctx, filter).Unscoped().Delete(&models.Update{})
	return res.RowsAffected, res.Error
}
