package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "leading token",
			content: "@carol looks great",
			want:    []string{"carol"},
		},
		{
			name:    "inline after whitespace",
			content: "totally agree with @bob about the ending",
			want:    []string{"bob"},
		},
		{
			name:    "multiple handles keep first-seen order",
			content: "@carol @bob what did you think? cc @carol",
			want:    []string{"carol", "bob"},
		},
		{
			name:    "email address is not a mention",
			content: "reach me at carol@example.com",
			want:    nil,
		},
		{
			name:    "bare at sign",
			content: "we met @ the cinema",
			want:    nil,
		},
		{
			name:    "no mentions",
			content: "great movie",
			want:    nil,
		},
		{
			name:    "underscores and digits",
			content: "@movie_fan42 nailed it",
			want:    []string{"movie_fan42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMentions(tt.content))
		})
	}
}
