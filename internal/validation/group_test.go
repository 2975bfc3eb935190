package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"plain", "cats", false},
		{"hyphen and underscore", "rock-climbing_2", false},
		{"empty", "", true},
		{"cyrillic", "группа", true},
		{"space", "two words", true},
		{"slash", "a/b", true},
		{"too long", strings.Repeat("a", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assertFieldError(t, err, "slug", MsgInvalidSlug)
		})
	}
}
