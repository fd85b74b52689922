// Package config implements the layered configuration pipeline of §4.3:
// compiled defaults -> configuration file -> environment variables ->
// runtime patch, with list-valued fields (database_configs, model_configs,
// cloud_auth_configs) merged by identity key rather than replaced
// wholesale, and environment-sourced fields marked "protected" against a
// later file reload.
package config

import "github.com/oracle/ai-optimizer-server/internal/model"

// ServerConfig is the single process-wide layered record distinct from
// per-client Settings (SPEC_FULL.md §4.3 Supplemental).
type ServerConfig struct {
	ServerPort string `json:"server_port"`
	LogLevel   string `json:"log_level"`
	ServerURL  string `json:"api_server_url"`
}

// identity key field name -> protected flag, tracked per list item so that
// an env override on one field of one identity doesn't block file-sourced
// updates to a different identity or a different field of the same one.
type protectedSet map[string]bool

func (p protectedSet) mark(key string)        { p[key] = true }
func (p protectedSet) isProtected(key string) bool { return p[key] }

// DatabaseConfig is the JSON-document shape of one DatabaseHandle entry.
type DatabaseConfig struct {
	Name           string `json:"name"`
	User           string `json:"user,omitempty"`
	Secret         string `json:"secret,omitempty"`
	DSN            string `json:"dsn,omitempty"`
	WalletRef      string `json:"wallet_ref,omitempty"`
	ConnectTimeoutS int   `json:"connect_timeout_s,omitempty"`
}

func (d DatabaseConfig) identityKey() string { return d.Name }

// ModelConfig is the JSON-document shape of one ModelDescriptor entry.
type ModelConfig struct {
	ID         string         `json:"id"`
	Provider   model.Provider `json:"provider"`
	Kind       model.ModelKind `json:"kind"`
	Endpoint   string         `json:"endpoint,omitempty"`
	Credential string         `json:"credential,omitempty"`
	Enabled    bool           `json:"enabled"`
}

func (m ModelConfig) identityKey() string { return string(m.Provider) + "/" + m.ID }

// CloudAuthConfig is the JSON-document shape of one CloudAuthProfile entry.
type CloudAuthConfig struct {
	ProfileName    string          `json:"profile_name"`
	Authentication model.AuthMode  `json:"authentication"`
	User           string          `json:"user,omitempty"`
	Tenancy        string          `json:"tenancy,omitempty"`
	Fingerprint    string          `json:"fingerprint,omitempty"`
	Region         string          `json:"region,omitempty"`
	KeyMaterialRef string          `json:"key_material_ref,omitempty"`
}

func (c CloudAuthConfig) identityKey() string { return c.ProfileName }

// ClientSettingsTemplate is the JSON-document shape used to seed "default"
// and "server" ClientSettings at boot (§4.3 step 4).
type ClientSettingsTemplate struct {
	LanguageModel   model.LanguageModelSettings `json:"language_model"`
	VectorSearch    model.VectorSearchSettings  `json:"vector_search"`
	SelectAI        model.SelectAISettings      `json:"selectai"`
	AuthProfileName string                      `json:"auth_profile_name,omitempty"`
	ToolsEnabled    []string                    `json:"tools_enabled,omitempty"`
}

// Document is the full layered configuration: `{client_settings,
// database_configs[], model_configs[], cloud_auth_configs[],
// prompt_overrides{}, server_config}` per §6 persisted-state-layout.
type Document struct {
	ClientSettings    ClientSettingsTemplate `json:"client_settings"`
	DatabaseConfigs   []DatabaseConfig       `json:"database_configs,omitempty"`
	ModelConfigs      []ModelConfig          `json:"model_configs,omitempty"`
	CloudAuthConfigs  []CloudAuthConfig      `json:"cloud_auth_configs,omitempty"`
	PromptOverrides   map[string]string      `json:"prompt_overrides,omitempty"`
	Server            ServerConfig           `json:"server_config"`
}
