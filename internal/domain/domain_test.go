package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser("u1", "")
	require.ErrorIs(t, err, ErrUsernameEmpty)

	_, err = NewUser("u1", strings.Repeat("a", MaxUsernameLen+1))
	require.ErrorIs(t, err, ErrUsernameTooLong)

	u, err := NewUser("u1", "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
}

func TestValidateUsername_CountsCharacters(t *testing.T) {
	name := "Александра Константиновна"
	require.Greater(t, len(name), MaxUsernameLen)
	require.NoError(t, ValidateUsername(name))

	require.NoError(t, ValidateUsername(strings.Repeat("ж", MaxUsernameLen)))
	require.ErrorIs(t, ValidateUsername(strings.Repeat("ж", MaxUsernameLen+1)), ErrUsernameTooLong)
}

func TestUser_SetUsernameKeepsOldOnError(t *testing.T) {
	u := NewGuest("u1")
	require.Equal(t, "guest", u.Username)

	require.Error(t, u.SetUsername(""))
	require.Equal(t, "guest", u.Username)

	require.NoError(t, u.SetUsername("bob"))
	require.Equal(t, "bob", u.Username)
}

func TestDefaultSnapshot_IsPython(t *testing.T) {
	snap := DefaultSnapshot()
	require.Equal(t, LangPython3, snap.Language)
	require.Contains(t, snap.Text, `print("Hello, CodeSync!")`)
}

func TestLanguages_AllHaveTemplates(t *testing.T) {
	langs := Languages()
	require.Len(t, langs, 6)
	for _, l := range langs {
		require.True(t, l.Known())
		require.NotEmpty(t, Template(l))
	}
	require.False(t, Language("cobol").Known())
	require.Empty(t, Template("cobol"))
}
