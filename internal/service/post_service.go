// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// ImageStore persists an uploaded image and returns its path relative to the media root.
type ImageStore interface {
	SavePostImage(ctx context.Context, in UploadImageInput) (string, error)
}

type PostService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	images      ImageStore
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *UploadImageInput
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Text    string
	GroupID *uint
	Image   *UploadImageInput
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// PostDetail is everything the detail page shows about one post.
type PostDetail struct {
	Post        *models.Post
	Comments    []*models.Comment
	AuthorPosts int64
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	commentRepo repository.CommentRepository,
	images ImageStore,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		commentRepo: commentRepo,
		images:      images,
		isAdmin:     isAdmin,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	post, err := validation.ValidatePost(ctx, s.groupRepo, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}
	post.AuthorID = in.AuthorID

	if in.Image != nil {
		if post.Image, err = s.saveImage(ctx, in.AuthorID, *in.Image); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("post").Inc()
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// GetDetail loads a post with its comments (oldest first) and the author's post count.
func (s *PostService) GetDetail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPosts: count}, nil
}

// GetForEdit returns the post only when userID wrote it.
func (s *PostService) GetForEdit(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(userID) {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetForEdit(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	validated, err := validation.ValidatePost(ctx, s.groupRepo, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}
	post.Text = validated.Text
	post.GroupID = validated.GroupID
	post.Group = nil

	if in.Image != nil {
		if post.Image, err = s.saveImage(ctx, in.UserID, *in.Image); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost soft-deletes a post. Authors may delete their own posts, admins any post.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if !post.IsAuthoredBy(in.UserID) {
		if s.isAdmin == nil {
			return nil, models.NewForbiddenError("You can only delete your own posts")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, models.NewForbiddenError("You can only delete your own posts")
		}
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return nil, err
	}
	return post, nil
}

// Groups lists the choices of the group select.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

func (s *PostService) saveImage(ctx context.Context, userID uint, in UploadImageInput) (string, error) {
	if s.images == nil {
		return "", models.NewFieldValidationError("image", "Image uploads are not enabled", in.Filename)
	}
	in.UserID = userID
	return s.images.SavePostImage(ctx, in)
}
