package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

const mainLayout = "layouts/main"

func newViews() (*html.Engine, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("date", formatDate)
	engine.AddFunc("year", func() int { return time.Now().Year() })
	engine.AddFunc("media", mediaURL)
	engine.AddFunc("webp", service.WebPPath)
	engine.AddFunc("linebreaks", linebreaks)

	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

func mediaURL(rel string) string {
	if rel == "" {
		return ""
	}
	return path.Join("/media", rel)
}

// linebreaks escapes text and turns newlines into <br>.
func linebreaks(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")) // #nosec G203: input is escaped above
}

// renderBytes renders a page inside the main layout.
func (s *Server) renderBytes(name string, data fiber.Map) ([]byte, error) {
	defer observability.TrackRender(name)()

	buf := new(bytes.Buffer)
	if err := s.views.Render(buf, name, data, mainLayout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// render writes a page for the current visitor.
func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["CurrentUser"]; !ok {
		data["CurrentUser"] = currentUser(c)
	}

	body, err := s.renderBytes(name, data)
	if err != nil {
		return err
	}
	return sendHTML(c, status, body)
}

func sendHTML(c *fiber.Ctx, status int, body []byte) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(body)
}

// NotFound renders the 404 page.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusNotFound, "core/404", fiber.Map{
		"Title": "Page not found",
		"Path":  c.Path(),
	})
}

func (s *Server) forbidden(c *fiber.Ctx, message string) error {
	return s.render(c, fiber.StatusForbidden, "core/403", fiber.Map{
		"Title":   "Access denied",
		"Message": message,
	})
}

// handleError turns a service error into the matching page.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	switch models.StatusFor(err) {
	case fiber.StatusNotFound:
		return s.NotFound(c)
	case fiber.StatusForbidden:
		msg := "You do not have permission to do that."
		if appErr := asAppError(err); appErr != nil {
			msg = appErr.Message
		}
		return s.forbidden(c, msg)
	case fiber.StatusUnauthorized:
		return redirectToLogin(c)
	default:
		return err
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return s.NotFound(c)
		case fe.Code < fiber.StatusInternalServerError:
			return c.Status(fe.Code).SendString(fe.Message)
		}
	}

	middleware.Logger.ErrorContext(c.UserContext(), "request error",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	if rerr := s.render(c, fiber.StatusInternalServerError, "core/500", fiber.Map{"Title": "Server error"}); rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	return nil
}
