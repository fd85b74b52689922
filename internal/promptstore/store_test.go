package promptstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFallsBackToDefault(t *testing.T) {
	s := New()
	role, text, err := s.Resolve("optimizer_sys")
	require.NoError(t, err)
	require.Equal(t, "system", string(role))
	require.NotEmpty(t, text)
}

func TestSetOverrideSupersedesDefault(t *testing.T) {
	s := New()
	require.NoError(t, s.SetOverride("optimizer_sys", "custom override"))
	_, text, err := s.Resolve("optimizer_sys")
	require.NoError(t, err)
	require.Equal(t, "custom override", text)
}

func TestResetAllClearsOverrides(t *testing.T) {
	s := New()
	require.NoError(t, s.SetOverride("optimizer_sys", "custom override"))
	s.ResetAll()
	_, text, err := s.Resolve("optimizer_sys")
	require.NoError(t, err)
	require.NotEqual(t, "custom override", text)
}

func TestResolveUnknownPromptIsNotFound(t *testing.T) {
	s := New()
	_, _, err := s.Resolve("nope")
	require.Error(t, err)
}

func TestListNamesOnlyOmitsText(t *testing.T) {
	s := New()
	names := s.List(false)
	require.NotEmpty(t, names)
	for _, n := range names {
		require.Empty(t, n.DefaultText)
	}
}
