package repository

import (
	"context"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
}

type groupRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewGroupRepository returns a new GroupRepository implementation.
// Slug lookups are cached in rdb; a nil client reads the database every time.
func NewGroupRepository(db *gorm.DB, rdb *redis.Client) GroupRepository {
	return &groupRepository{db: db, rdb: rdb}
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translate(err, "Group", id)
	}
	return &group, nil
}

// GetBySlug is served through the Redis cache-aside helper; groups change rarely.
func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := cache.Aside(ctx, r.rdb, cache.GroupKey(slug), &group, cache.GroupTTL, func() error {
		return translate(r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error, "Group", slug)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).Order("title").Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := validation.ValidateSlug(group.Slug); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		if _, ok := uniqueViolation(err); ok {
			return models.NewFieldValidationError("slug", "A group with that slug already exists.", group.Slug)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateGroup(ctx, r.rdb, group.Slug)
	return nil
}
