package repository

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// PostOrder selects the ordering key of a listing.
type PostOrder int

const (
	// OrderNewest lists the most recently published posts first.
	OrderNewest PostOrder = iota
	// OrderGroup keys on group_id descending, then recency.
	OrderGroup
)

func (o PostOrder) clauses() []string {
	switch o {
	case OrderGroup:
		return []string{"group_id DESC", "created_at DESC", "id DESC"}
	default:
		return []string{"created_at DESC", "id DESC"}
	}
}

// PostFilter narrows the candidate set of a listing. Zero values mean "any".
type PostFilter struct {
	AuthorID uint
	GroupID  uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, filter PostFilter) (int64, error)
	ListPage(ctx context.Context, filter PostFilter, order PostOrder, number, perPage int) (pagination.Page[*models.Post], error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

// Update writes the editable columns only; author and timestamps of publication never change.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(post).
		Select("text", "group_id", "image").
		Updates(map[string]any{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.GroupID != 0 {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	return q
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// ListPage counts the candidate set, clamps number to an existing page and loads that window.
func (r *postRepository) ListPage(ctx context.Context, filter PostFilter, order PostOrder, number, perPage int) (pagination.Page[*models.Post], error) {
	ctx, span := observability.StartSpan(ctx, "repository", "PostRepository.ListPage",
		attribute.Int("page.requested", number),
		attribute.Int("page.size", perPage),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	count, err := r.Count(ctx, filter)
	if err != nil {
		return pagination.Page[*models.Post]{}, err
	}

	p := pagination.New(int(count), perPage)
	page, offset, limit := p.Window(number)

	var posts []*models.Post
	q := r.filtered(ctx, filter).Preload("Author").Preload("Group")
	for _, clause := range order.clauses() {
		q = q.Order(clause)
	}
	if err = q.Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		err = models.NewInternalError(err)
		return pagination.Page[*models.Post]{}, err
	}

	return pagination.NewPage(posts, p, page), nil
}
