package env

// Environment variables consumed at boot to build compiled defaults and to
// apply environment overrides onto the layered configuration (see
// internal/config). A variable whose Lookup() reports ok=true marks the
// corresponding configuration field "protected" against a later
// configuration-file reload. Names and grouping follow the environment
// variables consumed by the server's external interface.

// Database connection parameters.
var (
	DBUsername = RegisterStringVar(
		"DB_USERNAME",
		"",
		"Username for the default database connection.",
		ComponentDatabase,
	)

	DBPassword = RegisterStringVar(
		"DB_PASSWORD",
		"",
		"Password for the default database connection.",
		ComponentDatabase,
	)

	DBDSN = RegisterStringVar(
		"DB_DSN",
		"",
		"Data-source name / connect string for the default database connection.",
		ComponentDatabase,
	)

	DBWalletPassword = RegisterStringVar(
		"DB_WALLET_PASSWORD",
		"",
		"Password protecting an Oracle wallet used for the default database connection.",
		ComponentDatabase,
	)

	TNSAdmin = RegisterStringVar(
		"TNS_ADMIN",
		"",
		"Directory containing tnsnames.ora / wallet files for TNS-based connections.",
		ComponentDatabase,
	)
)

// Model provider credentials and on-prem endpoints.
var (
	OpenAIAPIKey = RegisterStringVar(
		"OPENAI_API_KEY",
		"",
		"API key for OpenAI-compatible language and embedding models.",
		ComponentModel,
	)

	AnthropicAPIKey = RegisterStringVar(
		"ANTHROPIC_API_KEY",
		"",
		"API key for Anthropic Claude language models.",
		ComponentModel,
	)

	CohereAPIKey = RegisterStringVar(
		"COHERE_API_KEY",
		"",
		"API key for Cohere embedding models.",
		ComponentModel,
	)

	PerplexityAPIKey = RegisterStringVar(
		"PPLX_API_KEY",
		"",
		"API key for Perplexity language models.",
		ComponentModel,
	)

	OnPremOllamaURL = RegisterStringVar(
		"ON_PREM_OLLAMA_URL",
		"",
		"Base URL of an on-premises Ollama endpoint.",
		ComponentModel,
	)

	OnPremVLLMURL = RegisterStringVar(
		"ON_PREM_VLLM_URL",
		"",
		"Base URL of an on-premises vLLM endpoint.",
		ComponentModel,
	)

	OnPremHFURL = RegisterStringVar(
		"ON_PREM_HF_URL",
		"",
		"Base URL of an on-premises Hugging Face text-generation-inference endpoint.",
		ComponentModel,
	)
)

// Oracle Cloud Infrastructure (OCI) profile and GenAI service parameters.
var (
	OCICLIConfigFile = RegisterStringVar(
		"OCI_CLI_CONFIG_FILE",
		"",
		"Path to an OCI CLI config file supplying a profile for the cloud-auth registry.",
		ComponentCloud,
	)

	OCICLITenancy = RegisterStringVar(
		"OCI_CLI_TENANCY",
		"",
		"OCID of the tenancy used for api_key authentication.",
		ComponentCloud,
	)

	OCICLIRegion = RegisterStringVar(
		"OCI_CLI_REGION",
		"",
		"Default OCI region for the cloud-auth profile.",
		ComponentCloud,
	)

	OCICLIUser = RegisterStringVar(
		"OCI_CLI_USER",
		"",
		"OCID of the user used for api_key authentication.",
		ComponentCloud,
	)

	OCICLIFingerprint = RegisterStringVar(
		"OCI_CLI_FINGERPRINT",
		"",
		"Fingerprint of the API signing key used for api_key authentication.",
		ComponentCloud,
	)

	OCICLIKeyFile = RegisterStringVar(
		"OCI_CLI_KEY_FILE",
		"",
		"Path to the private key file used for api_key authentication.",
		ComponentCloud,
	)

	OCICLISecurityTokenFile = RegisterStringVar(
		"OCI_CLI_SECURITY_TOKEN_FILE",
		"",
		"Path to a security token file used for security_token authentication.",
		ComponentCloud,
	)

	OCICLIAuth = RegisterStringVar(
		"OCI_CLI_AUTH",
		"",
		"Authentication mode override: security_token switches the profile to security_token authentication; other values are ignored.",
		ComponentCloud,
	)

	OCIGenAICompartmentID = RegisterStringVar(
		"OCI_GENAI_COMPARTMENT_ID",
		"",
		"Compartment OCID used for OCI GenAI model invocations.",
		ComponentCloud,
	)

	OCIGenAIRegion = RegisterStringVar(
		"OCI_GENAI_REGION",
		"",
		"Region override for the OCI GenAI service endpoint.",
		ComponentCloud,
	)

	OCIGenAIServiceEndpoint = RegisterStringVar(
		"OCI_GENAI_SERVICE_ENDPOINT",
		"",
		"Explicit service endpoint override for OCI GenAI.",
		ComponentCloud,
	)
)

// Server process configuration.
var (
	APIServerKey = RegisterStringVar(
		"API_SERVER_KEY",
		"",
		"Bearer token required on all authenticated HTTP routes; also the default MCP X-API-Key when no dedicated key is configured.",
		ComponentServer,
	)

	APIServerURL = RegisterStringVar(
		"API_SERVER_URL",
		"",
		"Externally reachable base URL of this server, used in generated links (e.g. apology messages).",
		ComponentServer,
	)

	APIServerPort = RegisterStringVar(
		"API_SERVER_PORT",
		"8000",
		"TCP port the HTTP surface listens on.",
		ComponentServer,
	)

	ConfigFile = RegisterStringVar(
		"CONFIG_FILE",
		"",
		"Path to the layered JSON configuration file loaded at boot.",
		ComponentServer,
	)

	LogLevel = RegisterStringVar(
		"LOG_LEVEL",
		"INFO",
		"Minimum log level: DEBUG, INFO, WARN, or ERROR.",
		ComponentServer,
	)
)
