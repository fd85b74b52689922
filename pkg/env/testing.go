package env

// Testing environment variables used by integration tests and mock provider
// servers.
var (
	SkipCleanup = RegisterBoolVar(
		"SKIP_CLEANUP",
		false,
		"When true, leave scratch directories in place after a test run for debugging.",
		ComponentTesting,
	)

	LLMPort = RegisterStringVar(
		"LLM_PORT",
		"",
		"Port the mock language-model server listens on during tests.",
		ComponentTesting,
	)

	EmbedPort = RegisterStringVar(
		"EMBED_PORT",
		"",
		"Port the mock embedding-model server listens on during tests.",
		ComponentTesting,
	)
)
