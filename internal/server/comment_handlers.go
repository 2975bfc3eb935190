package server

import (
	"fmt"

	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentForm struct {
	Text   string
	Errors map[string]string
}

// AddComment attaches a comment to a post and redirects back to it.
// An empty comment re-renders the post page with the form error.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.handleError(c, err)
	}

	form := commentForm{Text: c.FormValue("text")}
	_, err = s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID: currentUser(c).ID,
		PostID: id,
		Text:   form.Text,
	})
	if err != nil {
		if errs, ok := formErrors(err); ok {
			form.Errors = errs
			return s.renderPostDetail(c, fiber.StatusBadRequest, id, form)
		}
		return s.handleError(c, err)
	}

	return c.Redirect(fmt.Sprintf("/posts/%d/", id), fiber.StatusFound)
}
