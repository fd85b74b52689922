package config

// keyed is implemented by every list-valued config entry so mergeByIdentity
// can operate generically across DatabaseConfig, ModelConfig, and
// CloudAuthConfig without duplicating the merge algorithm three times.
type keyed interface {
	identityKey() string
}

// mergeByIdentity implements the §4.3 precedence rule for list-valued
// fields: when an identity already exists in the higher-precedence list,
// the lower-precedence entry is ignored entirely; identities present only
// in the lower-precedence list are appended, in their original order.
func mergeByIdentity[T keyed](high, low []T) []T {
	seen := make(map[string]bool, len(high))
	out := make([]T, 0, len(high)+len(low))
	for _, h := range high {
		seen[h.identityKey()] = true
		out = append(out, h)
	}
	for _, l := range low {
		if !seen[l.identityKey()] {
			out = append(out, l)
		}
	}
	return out
}

// mergeDocuments layers `high` over `low`: list fields merge by identity
// (high wins per-identity), prompt overrides merge by key, and non-empty
// Server scalars from high replace low's. Of the ClientSettings template,
// LanguageModel.ModelID, AuthProfileName and a non-empty ToolsEnabled map
// are taken from high; VectorSearch and SelectAI are replaced as whole
// blocks, and only when high sets VectorSearch.Alias or SelectAI.Profile.
// Other ClientSettings fields in high are not applied.
func mergeDocuments(high, low Document) Document {
	out := low
	out.DatabaseConfigs = mergeByIdentity(high.DatabaseConfigs, low.DatabaseConfigs)
	out.ModelConfigs = mergeByIdentity(high.ModelConfigs, low.ModelConfigs)
	out.CloudAuthConfigs = mergeByIdentity(high.CloudAuthConfigs, low.CloudAuthConfigs)

	if out.PromptOverrides == nil {
		out.PromptOverrides = map[string]string{}
	}
	for k, v := range high.PromptOverrides {
		out.PromptOverrides[k] = v
	}

	out.ClientSettings = mergeClientSettingsTemplate(high.ClientSettings, low.ClientSettings)
	out.Server = mergeServerConfig(high.Server, low.Server)
	return out
}

func mergeServerConfig(high, low ServerConfig) ServerConfig {
	out := low
	if high.ServerPort != "" {
		out.ServerPort = high.ServerPort
	}
	if high.LogLevel != "" {
		out.LogLevel = high.LogLevel
	}
	if high.ServerURL != "" {
		out.ServerURL = high.ServerURL
	}
	return out
}

func mergeClientSettingsTemplate(high, low ClientSettingsTemplate) ClientSettingsTemplate {
	out := low
	if high.LanguageModel.ModelID != "" {
		out.LanguageModel.ModelID = high.LanguageModel.ModelID
	}
	if high.AuthProfileName != "" {
		out.AuthProfileName = high.AuthProfileName
	}
	if len(high.ToolsEnabled) > 0 {
		out.ToolsEnabled = high.ToolsEnabled
	}
	if high.VectorSearch.Alias != "" {
		out.VectorSearch = high.VectorSearch
	}
	if high.SelectAI.Profile != "" {
		out.SelectAI = high.SelectAI
	}
	return out
}
