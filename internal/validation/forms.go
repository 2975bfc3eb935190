// Package validation checks user-submitted form values before anything is persisted.
package validation

import (
	"context"
	"strconv"
	"strings"

	"yatube/internal/models"
)

// Form error messages shown next to the offending field.
const (
	MsgEmptyComment  = "You must write something."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// GroupResolver looks up a group by primary key. Missing groups are reported as a NOT_FOUND AppError.
type GroupResolver interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
}

// ParseGroupChoice reads the raw value of the group select. An empty choice means no group.
func ParseGroupChoice(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return nil, models.NewFieldValidationError("group", MsgInvalidChoice, raw)
	}
	id := uint(n)
	return &id, nil
}

// ValidatePost checks a post submission. Text may be empty; a chosen group must exist.
// The returned post carries only the validated Text and GroupID.
func ValidatePost(ctx context.Context, groups GroupResolver, text string, groupID *uint) (*models.Post, error) {
	post := &models.Post{Text: text}
	if groupID == nil {
		return post, nil
	}

	group, err := groups.GetByID(ctx, *groupID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewFieldValidationError("group", MsgInvalidChoice, *groupID)
		}
		return nil, err
	}

	id := group.ID
	post.GroupID = &id
	return post, nil
}

// ValidateComment rejects exactly the empty string and returns anything else unchanged.
func ValidateComment(text string) (string, error) {
	if text == "" {
		return "", models.NewFieldValidationError("text", MsgEmptyComment, text)
	}
	return text, nil
}
