package config

import (
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/pkg/env"
)

// envOverlay is the environment-sourced contribution to the layered
// configuration, plus the set of field paths it populated. Those paths are
// marked "protected": a later configuration-file reload must not overwrite
// them (§4.3 step 3).
type envOverlay struct {
	doc       Document
	protected protectedSet
}

// buildEnvOverlay reads every registered environment variable relevant to
// configuration (database, model, cloud, server — see pkg/env) and
// produces the overlay document plus its protected-field set.
func buildEnvOverlay() envOverlay {
	protected := protectedSet{}
	doc := Document{
		DatabaseConfigs:  nil,
		ModelConfigs:     nil,
		CloudAuthConfigs: nil,
		PromptOverrides:  map[string]string{},
	}

	db := DatabaseConfig{Name: defaultDatabaseName}
	haveDB := false
	if v, ok := env.DBUsername.Lookup(); ok {
		db.User = v
		protected.mark("database." + defaultDatabaseName + ".user")
		haveDB = true
	}
	if v, ok := env.DBPassword.Lookup(); ok {
		db.Secret = v
		protected.mark("database." + defaultDatabaseName + ".secret")
		haveDB = true
	}
	if v, ok := env.DBDSN.Lookup(); ok {
		db.DSN = v
		protected.mark("database." + defaultDatabaseName + ".dsn")
		haveDB = true
	}
	if v, ok := env.DBWalletPassword.Lookup(); ok {
		db.WalletRef = v
		protected.mark("database." + defaultDatabaseName + ".wallet_ref")
		haveDB = true
	}
	if haveDB {
		doc.DatabaseConfigs = append(doc.DatabaseConfigs, db)
	}

	addModel := func(id string, provider model.Provider, kind model.ModelKind, hasKey bool) {
		if !hasKey {
			return
		}
		doc.ModelConfigs = append(doc.ModelConfigs, ModelConfig{
			ID: id, Provider: provider, Kind: kind, Enabled: true,
		})
		protected.mark("model." + string(provider) + "/" + id + ".enabled")
	}
	if _, ok := env.OpenAIAPIKey.Lookup(); ok {
		addModel("gpt-4o", model.ProviderOpenAI, model.ModelKindLanguage, true)
		addModel("text-embedding-3-small", model.ProviderOpenAI, model.ModelKindEmbedding, true)
	}
	if _, ok := env.AnthropicAPIKey.Lookup(); ok {
		addModel("claude-sonnet-4-5", model.ProviderAnthropic, model.ModelKindLanguage, true)
	}
	if _, ok := env.CohereAPIKey.Lookup(); ok {
		addModel("embed-english-v3.0", model.ProviderCohere, model.ModelKindEmbedding, true)
	}
	if _, ok := env.PerplexityAPIKey.Lookup(); ok {
		addModel("sonar", model.ProviderPerplexity, model.ModelKindLanguage, true)
	}
	if url, ok := env.OnPremOllamaURL.Lookup(); ok && url != "" {
		doc.ModelConfigs = append(doc.ModelConfigs, ModelConfig{
			ID: "on-prem-ollama", Provider: model.ProviderOllama, Kind: model.ModelKindLanguage, Endpoint: url, Enabled: true,
		})
		protected.mark("model.ollama/on-prem-ollama.endpoint")
	}
	if url, ok := env.OnPremVLLMURL.Lookup(); ok && url != "" {
		doc.ModelConfigs = append(doc.ModelConfigs, ModelConfig{
			ID: "on-prem-vllm", Provider: model.ProviderOnPremVLLM, Kind: model.ModelKindLanguage, Endpoint: url, Enabled: true,
		})
		protected.mark("model.on_prem_vllm/on-prem-vllm.endpoint")
	}
	if url, ok := env.OnPremHFURL.Lookup(); ok && url != "" {
		doc.ModelConfigs = append(doc.ModelConfigs, ModelConfig{
			ID: "on-prem-hf", Provider: model.ProviderOnPremHF, Kind: model.ModelKindLanguage, Endpoint: url, Enabled: true,
		})
		protected.mark("model.on_prem_hf/on-prem-hf.endpoint")
	}

	oci := CloudAuthConfig{ProfileName: "DEFAULT", Authentication: model.AuthModeAPIKey}
	haveOCI := false
	if v, ok := env.OCICLITenancy.Lookup(); ok {
		oci.Tenancy = v
		haveOCI = true
	}
	if v, ok := env.OCICLIUser.Lookup(); ok {
		oci.User = v
		haveOCI = true
	}
	if v, ok := env.OCICLIFingerprint.Lookup(); ok {
		oci.Fingerprint = v
		haveOCI = true
	}
	if v, ok := env.OCICLIRegion.Lookup(); ok {
		oci.Region = v
		haveOCI = true
	}
	if v, ok := env.OCICLIKeyFile.Lookup(); ok {
		oci.KeyMaterialRef = v
		haveOCI = true
	}
	if v, ok := env.OCICLIAuth.Lookup(); ok && v == string(model.AuthModeSecurityToken) {
		oci.Authentication = model.AuthModeSecurityToken
		if v, ok := env.OCICLISecurityTokenFile.Lookup(); ok {
			oci.KeyMaterialRef = v
		}
		haveOCI = true
	}
	if haveOCI {
		doc.CloudAuthConfigs = append(doc.CloudAuthConfigs, oci)
		protected.mark("cloudauth.DEFAULT")
	}

	if v, ok := env.LogLevel.Lookup(); ok {
		doc.Server.LogLevel = v
		protected.mark("server.log_level")
	}
	if v, ok := env.APIServerPort.Lookup(); ok {
		doc.Server.ServerPort = v
		protected.mark("server.server_port")
	}
	if v, ok := env.APIServerURL.Lookup(); ok {
		doc.Server.ServerURL = v
		protected.mark("server.api_server_url")
	}

	return envOverlay{doc: doc, protected: protected}
}
