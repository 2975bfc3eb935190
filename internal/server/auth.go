package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookie  = "session"
	sessionTTL     = 7 * 24 * time.Hour
	tokenIssuer    = "yatube"
	tokenAudience  = "yatube-web"
	blacklistKey   = "blacklist:%s"
	loginURL       = "/auth/login/"
	userLocal      = "user"
	userIDLocal    = "userID"
	claimsLocal    = "claims"
	defaultAfterIn = "/"
)

// generateToken signs a session token for the user.
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(sessionTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// parseToken validates signature, issuer and audience and returns the user ID in the subject.
func (s *Server) parseToken(tokenString string) (uint, jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, nil, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, nil, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, nil, errors.New("invalid user ID in token")
	}
	return uint(userID), claims, nil
}

// tokenFromRequest reads the session cookie, falling back to a Bearer header.
func tokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(sessionCookie); token != "" {
		return token
	}
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (s *Server) isRevoked(ctx context.Context, claims jwt.MapClaims) bool {
	jti, _ := claims["jti"].(string)
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, fmt.Sprintf(blacklistKey, jti)).Result()
	return err == nil && n > 0
}

// Session resolves the visitor from the session token. Anonymous requests pass through untouched.
func (s *Server) Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return c.Next()
		}

		userID, claims, err := s.parseToken(tokenString)
		if err != nil || s.isRevoked(c.UserContext(), claims) {
			return c.Next()
		}

		user, err := s.userService.GetUserByID(c.UserContext(), userID)
		if err != nil {
			if models.IsNotFound(err) {
				return c.Next()
			}
			return err
		}

		c.Locals(userIDLocal, userID)
		c.Locals(userLocal, user)
		c.Locals(claimsLocal, claims)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// LoginRequired sends anonymous visitors to the login page, remembering where they were going.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return redirectToLogin(c)
		}
		return c.Next()
	}
}

// AdminRequired rejects anyone who is not a logged-in admin. Responses are JSON.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		if !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

func redirectToLogin(c *fiber.Ctx) error {
	next := strings.ReplaceAll(url.QueryEscape(c.OriginalURL()), "%2F", "/")
	return c.Redirect(loginURL+"?next="+next, fiber.StatusFound)
}

// safeNext only allows redirects to paths on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultAfterIn
	}
	return next
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// revoke blacklists the token ID until the token would have expired anyway.
func (s *Server) revoke(ctx context.Context, claims jwt.MapClaims) {
	if s.redis == nil || claims == nil {
		return
	}
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if jti == "" || err != nil || exp == nil {
		return
	}
	ttl := time.Until(exp.Time)
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(ctx, fmt.Sprintf(blacklistKey, jti), "1", ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to revoke session", "error", err)
	}
}
