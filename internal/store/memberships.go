package store

import (
	"context"

	"github.com/huddle-dev/huddle/internal/models"
	"gorm.io/gorm"
)

type membershipStore struct {
	db *gorm.DB
}

func (s *membershipStore) scope(ctx context.Context, filter MembershipFilter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.ProjectMembership{})

	if filter.UserID != nil {
		tx = tx.Where("user_id = ?", *filter.UserID)
	}

	if filter.ProjectID != nil {
		tx = tx.Where("project_id = ?", *filter.ProjectID)
	}

	if len(filter.ProjectIDs) > 0 {
		tx = tx.Where("project_id IN ?", filter.ProjectIDs)
	}

	if filter.Role != "" {
		tx = tx.Where("role = ?", filter.Role)
	}

	return tx
}

func (s *membershipStore) FindOne(ctx context.Context, projectID, userID uint) (*models.ProjectMembership, error) {
	var membership models.ProjectMembership

	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error
	if err != nil {
		return nil, translate(err)
	}

	return &membership, nil
}

func (s *membershipStore) FindMany(ctx context.Context, filter MembershipFilter) ([]models.ProjectMembership, error) {
	var memberships []models.ProjectMembership

	if err := s.scope(ctx, filter).Find(&memberships).Error; err != nil {
		return nil, err
	}

	return memberships, nil
}

func (s *membershipStore) Insert(ctx context.Context, membership *models.ProjectMembership) error {
	return s.db.WithContext(ctx).Create(membership).Error
}

func (s *membershipStore) UpdateOne(ctx context.Context, id uint, patch map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.ProjectMembership{}).Where("id = ?", id).Updates(patch).Error
}

func (s *membershipStore) DeleteMany(ctx context.Context, filter MembershipFilter) (int64, error) {
	if filter.ProjectIDs != nil && len(filter.ProjectIDs) == 0 {
		return 0, nil
	}

	if filter.UserID == nil && filter.ProjectID == nil && len(filter.ProjectIDs) == 0 {
		return 0, ErrEmptyFilter
	}

	res := s.scope(ctx, filter).Unscoped().Delete(&models.ProjectMembership{})
	return res.RowsAffected, res.Error
}
