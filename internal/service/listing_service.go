package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/repository"
)

// PageSize is the number of posts on every listing page.
const PageSize = 10

// PostPage is one page of a post listing.
type PostPage = pagination.Page[*models.Post]

// ListingService builds the paginated home, group and profile listings.
type ListingService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
}

func NewListingService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
) *ListingService {
	return &ListingService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
	}
}

// Home lists every post, newest first.
func (s *ListingService) Home(ctx context.Context, page int) (PostPage, error) {
	return s.postRepo.ListPage(ctx, repository.PostFilter{}, repository.OrderNewest, page, PageSize)
}

// Group lists the posts filed under slug. An unknown slug is NOT_FOUND.
func (s *ListingService) Group(ctx context.Context, slug string, page int) (*models.Group, PostPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, PostPage{}, err
	}
	posts, err := s.postRepo.ListPage(ctx, repository.PostFilter{GroupID: group.ID}, repository.OrderGroup, page, PageSize)
	if err != nil {
		return nil, PostPage{}, err
	}
	return group, posts, nil
}

// Profile lists the posts written by username, newest first. An unknown username is NOT_FOUND.
func (s *ListingService) Profile(ctx context.Context, username string, page int) (*models.User, PostPage, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, PostPage{}, err
	}
	posts, err := s.postRepo.ListPage(ctx, repository.PostFilter{AuthorID: author.ID}, repository.OrderNewest, page, PageSize)
	if err != nil {
		return nil, PostPage{}, err
	}
	return author, posts, nil
}
