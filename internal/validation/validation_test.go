package validation

import (
	"strings"
	"testing"

	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contentInput struct {
	Content  string              `json:"content" validate:"required,max=280"`
	Reaction models.ReactionType `json:"reaction_type" validate:"omitempty,reaction_type"`
	Tags     []string            `json:"tagged_users" validate:"max=3"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      contentInput
		wantMsg string
	}{
		{"valid", contentInput{Content: "hello", Reaction: models.ReactionLike}, ""},
		{"multibyte at limit", contentInput{Content: strings.Repeat("é", 280)}, ""},
		{"empty content", contentInput{}, "content is required"},
		{"too long", contentInput{Content: strings.Repeat("a", 281)}, "content must be at most 280 characters"},
		{"bad reaction", contentInput{Content: "x", Reaction: "meh"}, `reaction_type "meh" is not a valid reaction type`},
		{"too many tags", contentInput{Content: "x", Tags: []string{"a", "b", "c", "d"}}, "tagged_users must contain at most 3 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}
