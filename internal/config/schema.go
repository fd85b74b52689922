package config

import "fmt"

// validateDocument checks a decoded configuration file against the
// declared shape (§6 "Persisted state layout": `{client_settings,
// database_configs[], model_configs[], cloud_auth_configs[],
// prompt_overrides{}, server_config}`).
//
// github.com/google/jsonschema-go is already wired into this module for
// struct-tag-driven schema generation (see internal/mcp, where the MCP SDK
// derives tool input/output schemas from Go struct tags the same way the
// teacher's mcp_handler.go does). That generation path is the only
// jsonschema-go usage directly grounded in the retrieved pack; a standalone
// document-validation entry point was not observed in any example file, so
// rather than guess at an unverified call shape this validator is a direct
// structural check instead. See DESIGN.md for this distinction.
func validateDocument(doc Document) error {
	for _, d := range doc.DatabaseConfigs {
		if d.Name == "" {
			return fmt.Errorf("database_configs: entry missing name")
		}
	}
	for _, m := range doc.ModelConfigs {
		if m.ID == "" || m.Provider == "" {
			return fmt.Errorf("model_configs: entry missing id or provider")
		}
		if m.Kind != "language" && m.Kind != "embedding" {
			return fmt.Errorf("model_configs: %s has invalid kind %q", m.ID, m.Kind)
		}
	}
	for _, c := range doc.CloudAuthConfigs {
		if c.ProfileName == "" {
			return fmt.Errorf("cloud_auth_configs: entry missing profile_name")
		}
		switch c.Authentication {
		case "api_key", "instance_identity", "workload_identity", "security_token":
		default:
			return fmt.Errorf("cloud_auth_configs: %s has invalid authentication %q", c.ProfileName, c.Authentication)
		}
	}
	return nil
}
