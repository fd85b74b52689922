package clientsettings

import (
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/stretchr/testify/require"
)

func template() model.ClientSettings {
	return model.ClientSettings{
		LanguageModel: model.LanguageModelSettings{ModelID: "gpt-4o", History: true},
		VectorSearch:  model.VectorSearchSettings{SearchType: model.SearchSimilarity, TopK: 4},
		PromptRefs:    map[model.PromptCategory]string{model.PromptCategorySystem: "optimizer_sys"},
		ToolsEnabled:  map[string]bool{"vector_search": true},
	}
}

func TestDefaultAndServerAlwaysExist(t *testing.T) {
	s := New(template())
	got := s.Get(DefaultClientID)
	require.Equal(t, DefaultClientID, got.ClientID)
	got = s.Get(ServerClientID)
	require.Equal(t, ServerClientID, got.ClientID)
}

func TestGetSeedsNewClientAsDeepCopyOfDefault(t *testing.T) {
	s := New(template())
	got := s.Get("alice")
	require.Equal(t, "alice", got.ClientID)
	require.Equal(t, "gpt-4o", got.LanguageModel.ModelID)

	got.PromptRefs["x"] = "y"
	fresh := s.Get(DefaultClientID)
	require.NotContains(t, fresh.PromptRefs, model.PromptCategory("x"), "mutating a copy must not leak into the default template")
}

func TestPatchMutatesMapsInPlace(t *testing.T) {
	s := New(template())
	s.Get("alice")

	err := s.Patch("alice", model.ClientSettings{
		ToolsEnabled: map[string]bool{"selectai": true},
	})
	require.NoError(t, err)

	got := s.Get("alice")
	require.True(t, got.ToolsEnabled["vector_search"], "existing keys must survive a partial map patch")
	require.True(t, got.ToolsEnabled["selectai"], "new keys must be added")
}

func TestPatchScalarOverride(t *testing.T) {
	s := New(template())
	err := s.Patch(DefaultClientID, model.ClientSettings{
		LanguageModel: model.LanguageModelSettings{ModelID: "claude-opus"},
	})
	require.NoError(t, err)
	got := s.Get(DefaultClientID)
	require.Equal(t, "claude-opus", got.LanguageModel.ModelID)
	require.True(t, got.LanguageModel.History, "zero-valued patch fields must not clobber existing values")
}

func TestDeleteProtectsReservedIdentities(t *testing.T) {
	s := New(template())
	require.Error(t, s.Delete(DefaultClientID))
	require.Error(t, s.Delete(ServerClientID))
}
