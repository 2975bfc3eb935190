package server

import (
	"errors"
	"io"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// parseID reads a route parameter as a positive ID. Anything else is reported as a missing resource.
func parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(resource, raw)
	}
	return uint(id), nil
}

// pageNumber reads ?page=. Invalid values become 0 and are clamped to the first page.
func pageNumber(c *fiber.Ctx) int {
	return pagination.ParseNumber(c.Query("page"))
}

func asAppError(err error) *models.AppError {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// formErrors maps a validation error onto the form field it belongs to.
func formErrors(err error) (map[string]string, bool) {
	appErr := asAppError(err)
	if appErr == nil || appErr.Code != models.CodeValidation {
		return nil, false
	}
	field := appErr.Field
	if field == "" {
		field = "form"
	}
	return map[string]string{field: appErr.Message}, true
}

// readUpload returns the named multipart file, or nil when none was sent.
func readUpload(c *fiber.Ctx, field string) (*service.UploadImageInput, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || (fh.Filename == "" && fh.Size == 0) {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.UploadImageInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
