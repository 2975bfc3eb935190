package server

import (
	"strconv"

	"yatube/internal/cache"

	"github.com/gofiber/fiber/v2"
)

// Index renders the home listing through the page cache. The cached page is the same for every visitor.
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()
	number := pageNumber(c)

	body, err := s.pageCache.GetOrRender(ctx, indexCacheKey(c.Path(), number), cache.IndexPageTTL, func() ([]byte, error) {
		page, err := s.listingService.Home(ctx, number)
		if err != nil {
			return nil, err
		}
		return s.renderBytes("posts/index", fiber.Map{
			"Title":  "Latest updates",
			"Page":   page,
			"Shared": true,
		})
	})
	if err != nil {
		return s.handleError(c, err)
	}
	return sendHTML(c, fiber.StatusOK, body)
}

// indexCacheKey keys the home listing by path and page number only, so
// unrelated query parameters all share one entry.
func indexCacheKey(path string, number int) string {
	if number > 1 {
		return cache.PageKey(path + "?page=" + strconv.Itoa(number))
	}
	return cache.PageKey(path)
}

// GroupPosts renders the posts of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.listingService.Group(c.UserContext(), c.Params("slug"), pageNumber(c))
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, fiber.StatusOK, "posts/group_list", fiber.Map{
		"Title": group.Title,
		"Group": group,
		"Page":  page,
	})
}

// Profile renders the posts of one author.
func (s *Server) Profile(c *fiber.Ctx) error {
	author, page, err := s.listingService.Profile(c.UserContext(), c.Params("username"), pageNumber(c))
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, fiber.StatusOK, "posts/profile", fiber.Map{
		"Title":  "Profile of " + author.DisplayName(),
		"Author": author,
		"Page":   page,
	})
}
