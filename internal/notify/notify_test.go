package notify

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
			name:    "single mention",
			content: "Thanks @alice for the tip",
			want:    []string{"alice"},
		},
		{
			name:    "multiple mentions",
			content: "@alice and @bob_2 should look at this",
			want:    []string{"alice", "bob_2"},
		},
		{
			name:    "repeated mention kept",
			content: "@alice @alice",
			want:    []string{"alice", "alice"},
		},
		{
			name:    "email address still matches the local mention",
			content: "mail me at alice@example.com",
			want:    []string{"example"},
		},
		{
			name:    "no mentions",
			content: "nothing to see here",
			want:    nil,
		},
		{
			name:    "bare at sign",
			content: "meet @ noon",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMentions(tt.content))
		})
	}
}
