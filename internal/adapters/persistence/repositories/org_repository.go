package repositories

import (
	"context"

	"korfarm-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// orgRepository implements OrgRepository interface
type orgRepository struct {
	db *gorm.DB
}

// NewOrgRepository creates a new org repository
func NewOrgRepository(db *gorm.DB) OrgRepository {
	return &orgRepository{db: db}
}

// GetByID gets an org by ID
func (r *orgRepository) GetByID(ctx context.Context, id string) (*models.Org, error) {
	var org models.Org
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// ListActive lists active orgs ordered by name
func (r *orgRepository) ListActive(ctx context.Context) ([]*models.Org, error) {
	var orgs []*models.Org
	err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("name ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

// membershipRepository implements MembershipRepository interface
type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Create creates a new membership
func (r *membershipRepository) Create(ctx context.Context, membership *models.OrgMembership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

// GetByOrgAndUser gets the membership for an (org, user) pair
func (r *membershipRepository) GetByOrgAndUser(ctx context.Context, orgID string, userID uint) (*models.OrgMembership, error) {
	var membership models.OrgMembership
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("user_id = ?", userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// FindByUserAndStatus lists a user's memberships with the given status,
// in stable org-id order
func (r *membershipRepository) FindByUserAndStatus(ctx context.Context, userID uint, status string) ([]*models.OrgMembership, error) {
	var memberships []*models.OrgMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status = ?", status).
		Order("org_id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// ExistsByUserAndStatus checks whether the user has any membership with the status
func (r *membershipRepository) ExistsByUserAndStatus(ctx context.Context, userID uint, status string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrgMembership{}).
		Where("user_id = ?", userID).
		Where("status = ?", status).
		Count(&count).Error
	return count > 0, err
}

// parentLinkRepository implements ParentLinkRepository interface
type parentLinkRepository struct {
	db *gorm.DB
}

// NewParentLinkRepository creates a new parent link repository
func NewParentLinkRepository(db *gorm.DB) ParentLinkRepository {
	return &parentLinkRepository{db: db}
}

// ExistsActiveByParent checks whether the user is the parent side of an
// active parent-student link
func (r *parentLinkRepository) ExistsActiveByParent(ctx context.Context, parentUserID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ParentStudentLink{}).
		Where("parent_user_id = ?", parentUserID).
		Where("status = ?", "active").
		Count(&count).Error
	return count > 0, err
}
