package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatRole(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ChatRole
		wantErr bool
	}{
		{"user", "user", ChatRoleUser, false},
		{"assistant", "assistant", ChatRoleAssistant, false},
		{"system", "system", ChatRoleSystem, false},
		{"unknown role", "moderator", "", true},
		{"empty role", "", "", true},
		{"case sensitive", "User", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := ParseChatRole(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChatRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestNewChatMessage(t *testing.T) {
	t.Run("valid message", func(t *testing.T) {
		msg, err := NewChatMessage("user", "Where is dinner tonight?")
		require.NoError(t, err)
		assert.Equal(t, ChatRoleUser, msg.Role)
		assert.Equal(t, "Where is dinner tonight?", msg.Content)
	})

	t.Run("empty content rejected", func(t *testing.T) {
		_, err := NewChatMessage("user", "")
		assert.ErrorIs(t, err, ErrMissingRequiredField)
	})
}

func TestSanitizeHistory(t *testing.T) {
	raw := []ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "robot", Content: "beep"},
		{Role: "assistant", Content: "Hello! How can I help?"},
		{Role: "user", Content: ""},
	}

	clean := SanitizeHistory(raw)

	require.Len(t, clean, 2)
	assert.Equal(t, ChatRoleUser, clean[0].Role)
	assert.Equal(t, ChatRoleAssistant, clean[1].Role)
}
