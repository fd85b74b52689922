package config

import "github.com/oracle/ai-optimizer-server/internal/model"

// defaultDatabaseName is the well-known identity that the DB_* environment
// variables populate (§6). The specification's S5 scenario refers to this
// entry as "CORE" in its worked example but never names the compiled
// default's identity; "DEFAULT" is the convention carried over from
// original_source's bootstrap (a single implicit default connection
// profile) and is documented here as the Open Question decision it is.
const defaultDatabaseName = "DEFAULT"

// compiledDefaults builds the lowest-precedence layer of the configuration
// pipeline (§4.3 step 1): an empty-but-well-formed document with the
// well-known "DEFAULT" database identity and a minimal client settings
// template.
func compiledDefaults() Document {
	return Document{
		ClientSettings: ClientSettingsTemplate{
			LanguageModel: model.LanguageModelSettings{
				History: true,
			},
			VectorSearch: model.VectorSearchSettings{
				Enabled:        false,
				SearchType:     model.SearchSimilarity,
				TopK:           4,
				ScoreThreshold: 0,
				MMRFetchK:      20,
				MMRLambda:      0.5,
			},
			SelectAI: model.SelectAISettings{},
			ToolsEnabled: nil,
		},
		DatabaseConfigs: []DatabaseConfig{
			{Name: defaultDatabaseName},
		},
		ModelConfigs:     nil,
		CloudAuthConfigs: nil,
		PromptOverrides:  map[string]string{},
		Server: ServerConfig{
			ServerPort: "8000",
			LogLevel:   "INFO",
		},
	}
}
