package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type loginForm struct {
	Username string
	Errors   map[string]string
}

type signupField struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

func signupFields(in service.RegisterInput, errs map[string]string) []signupField {
	return []signupField{
		{Name: "first_name", Label: "First name", Type: "text", Value: in.FirstName, Error: errs["first_name"]},
		{Name: "last_name", Label: "Last name", Type: "text", Value: in.LastName, Error: errs["last_name"]},
		{Name: "username", Label: "Username", Type: "text", Value: in.Username, Error: errs["username"]},
		{Name: "email", Label: "Email", Type: "email", Value: in.Email, Error: errs["email"]},
		{Name: "password", Label: "Password", Type: "password", Error: errs["password"]},
	}
}

func (s *Server) renderSignup(c *fiber.Ctx, status int, in service.RegisterInput, errs map[string]string) error {
	return s.render(c, status, "users/signup", fiber.Map{
		"Title":  "Sign up",
		"Fields": signupFields(in, errs),
		"Form":   loginForm{Errors: errs},
	})
}

// SignupPage renders the registration form.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.renderSignup(c, fiber.StatusOK, service.RegisterInput{}, nil)
}

// Signup registers a user and logs them in.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.RegisterInput{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
	}

	user, err := s.userService.Register(c.UserContext(), in)
	if err != nil {
		if errs, ok := formErrors(err); ok {
			return s.renderSignup(c, fiber.StatusBadRequest, in, errs)
		}
		return err
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token)

	middleware.Logger.InfoContext(c.UserContext(), "user signed up", "user_id", user.ID, "username", user.Username)
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) renderLogin(c *fiber.Ctx, status int, next string, form loginForm) error {
	return s.render(c, status, "users/login", fiber.Map{
		"Title": "Log in",
		"Next":  next,
		"Form":  form,
	})
}

// LoginPage renders the login form. The next query parameter is carried through the form.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.renderLogin(c, fiber.StatusOK, c.Query("next"), loginForm{})
}

// Login checks the credentials, sets the session cookie and redirects to next.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := c.FormValue("next", c.Query("next"))

	user, err := s.userService.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthorized {
			return s.renderLogin(c, fiber.StatusUnauthorized, next, loginForm{
				Username: username,
				Errors:   map[string]string{"form": asAppError(err).Message},
			})
		}
		return err
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token)

	return c.Redirect(safeNext(next), fiber.StatusFound)
}

// Logout revokes the current session and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals(claimsLocal).(jwt.MapClaims); ok {
		s.revoke(c.UserContext(), claims)
	}
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}
