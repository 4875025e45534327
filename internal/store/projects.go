package store

import (
	"context"

	"github.com/huddle-dev/huddle/internal/models"
	"gorm.io/gorm"
)

type projectStore struct {
	db *gorm.DB
}

func (s *projectStore) scope(ctx context.Context, filter ProjectFilter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Project{})

	if len(filter.IDs) > 0 {
		tx = tx.Where("id IN ?", filter.IDs)
	}

	if filter.CreatorID != nil {
		tx = tx.Where("creator_id = ?", *filter.CreatorID)
	}

	return tx
}

func (s *projectStore) Find(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project

	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, translate(err)
	}

	return &project, nil
}

func (s *projectStore) FindMany(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	var projects []models.Project

	if err := s.scope(ctx, filter).Find(&projects).Error; err != nil {
		return nil, err
	}

	return projects, nil
}

func (s *projectStore) Insert(ctx context.Context, project *models.Project) error {
	return s.db.WithContext(ctx).Create(project).Error
}

func (s *projectStore) UpdateOne(ctx context.Context, id uint, patch map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(patch).Error
}

func (s *projectStore) DeleteMany(ctx context.Context, filter ProjectFilter) (int64, error) {
	// Deleting by an explicit empty ID set is a no-op, not an unscoped delete.
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return 0, nil
	}

	if len(filter.IDs) == 0 && filter.CreatorID == nil {
		return 0, ErrEmptyFilter
	}

	res := s.scope(ctx, filter).Unscoped().Delete(&models.Project{})
	return res.RowsAffected, res.Error
}
