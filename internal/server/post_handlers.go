package server

import (
	"fmt"
	"strconv"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// postForm is the state of the create/edit form between submissions.
type postForm struct {
	Text   string
	Group  string
	Errors map[string]string
}

func postFormFrom(post *models.Post) postForm {
	form := postForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return form
}

func (s *Server) renderPostForm(c *fiber.Ctx, status int, form postForm, post *models.Post) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return err
	}

	data := fiber.Map{
		"Title":  "New post",
		"Form":   form,
		"Groups": groups,
		"Action": "/create/",
		"IsEdit": false,
	}
	if post != nil {
		data["Title"] = "Edit post"
		data["Action"] = fmt.Sprintf("/posts/%d/edit/", post.ID)
		data["IsEdit"] = true
		data["Post"] = post
	}
	return s.render(c, status, "posts/create_post", data)
}

// readPostForm parses the submitted text, group choice and optional image.
func readPostForm(c *fiber.Ctx) (postForm, *uint, *service.UploadImageInput, error) {
	form := postForm{
		Text:  c.FormValue("text"),
		Group: strings.TrimSpace(c.FormValue("group")),
	}
	groupID, err := validation.ParseGroupChoice(form.Group)
	if err != nil {
		return form, nil, nil, err
	}
	upload, err := readUpload(c, "image")
	if err != nil {
		return form, nil, nil, err
	}
	return form, groupID, upload, nil
}

// CreatePostPage renders an empty post form.
func (s *Server) CreatePostPage(c *fiber.Ctx) error {
	return s.renderPostForm(c, fiber.StatusOK, postForm{}, nil)
}

// CreatePost stores a new post and redirects to the author's profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user := currentUser(c)

	form, groupID, upload, err := readPostForm(c)
	if err == nil {
		_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
			AuthorID: user.ID,
			Text:     form.Text,
			GroupID:  groupID,
			Image:    upload,
		})
	}
	if err != nil {
		if errs, ok := formErrors(err); ok {
			form.Errors = errs
			return s.renderPostForm(c, fiber.StatusBadRequest, form, nil)
		}
		return s.handleError(c, err)
	}

	return c.Redirect("/profile/"+user.Username+"/", fiber.StatusFound)
}

// EditPostPage renders the form prefilled with the post. Only the author may see it.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.handleError(c, err)
	}

	post, err := s.postService.GetForEdit(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		return s.handleError(c, err)
	}
	return s.renderPostForm(c, fiber.StatusOK, postFormFrom(post), post)
}

// EditPost saves the author's changes and redirects to the post.
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.handleError(c, err)
	}
	user := currentUser(c)

	// Authorship is checked before the form is looked at.
	post, err := s.postService.GetForEdit(c.UserContext(), user.ID, id)
	if err != nil {
		return s.handleError(c, err)
	}

	form, groupID, upload, err := readPostForm(c)
	if err == nil {
		_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
			UserID:  user.ID,
			PostID:  id,
			Text:    form.Text,
			GroupID: groupID,
			Image:   upload,
		})
	}
	if err != nil {
		if errs, ok := formErrors(err); ok {
			form.Errors = errs
			return s.renderPostForm(c, fiber.StatusBadRequest, form, post)
		}
		return s.handleError(c, err)
	}

	return c.Redirect(fmt.Sprintf("/posts/%d/", id), fiber.StatusFound)
}

// DeletePost removes the post and redirects to the author's profile.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.handleError(c, err)
	}
	user := currentUser(c)

	post, err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{UserID: user.ID, PostID: id})
	if err != nil {
		return s.handleError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "post deleted", "post_id", id, "author_id", post.AuthorID)
	return c.Redirect("/profile/"+post.Author.Username+"/", fiber.StatusFound)
}

// PostDetail renders one post with its comments.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.handleError(c, err)
	}
	return s.renderPostDetail(c, fiber.StatusOK, id, commentForm{})
}

func (s *Server) renderPostDetail(c *fiber.Ctx, status int, id uint, form commentForm) error {
	detail, err := s.postService.GetDetail(c.UserContext(), id)
	if err != nil {
		return s.handleError(c, err)
	}

	user := currentUser(c)
	return s.render(c, status, "posts/post_detail", fiber.Map{
		"Title":       detail.Post.String(),
		"Post":        detail.Post,
		"Comments":    detail.Comments,
		"AuthorPosts": detail.AuthorPosts,
		"CanEdit":     user != nil && detail.Post.IsAuthoredBy(user.ID),
		"Form":        form,
	})
}
