package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/go-logr/logr"
)

// Loader owns the layered configuration document and the boot sequence of
// §4.3: compiled defaults -> configuration file -> environment variables.
// Runtime admin patches (§4.3 "Runtime admin mutation") are applied after
// boot via Patch.
type Loader struct {
	mu        sync.Mutex
	current   Document
	protected protectedSet
	log       logr.Logger
}

// NewLoader boots the configuration pipeline from an optional file path.
// A missing or invalid file is logged and ignored, per §4.3 step 2 — it is
// not a fatal error.
func NewLoader(log logr.Logger, configFilePath string) *Loader {
	l := &Loader{
		current:   compiledDefaults(),
		protected: protectedSet{},
		log:       log,
	}

	if configFilePath != "" {
		if fileDoc, err := readConfigFile(configFilePath); err != nil {
			log.Info("ignoring configuration file", "path", configFilePath, "reason", err.Error())
		} else {
			l.current = mergeDocuments(fileDoc, l.current)
		}
	}

	overlay := buildEnvOverlay()
	l.current = mergeDocuments(overlay.doc, l.current)
	for k := range overlay.protected {
		l.protected.mark(k)
	}

	return l
}

// readConfigFile loads and validates a configuration file against the
// declared schema (§4.3 step 2). See schema.go for the validation
// strategy and its grounding.
func readConfigFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Document{}, fmt.Errorf("schema validation failed: %w", err)
	}
	return doc, nil
}

// Current returns a copy of the active configuration document.
func (l *Loader) Current() Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Reload re-reads the configuration file and merges it onto the current
// document, honoring protected fields set by the environment (§4.3 step 3:
// "a subsequent config-file reload cannot overwrite them").
func (l *Loader) Reload(configFilePath string) error {
	fileDoc, err := readConfigFile(configFilePath)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	merged := mergeDocuments(fileDoc, l.current)
	l.current = applyProtection(merged, l.current, l.protected)
	return nil
}

// applyProtection restores, onto `merged`, every field flagged protected in
// `previous` — the reload must not overwrite an environment-sourced value.
func applyProtection(merged, previous Document, protected protectedSet) Document {
	out := merged
	if protected.isProtected("server.log_level") {
		out.Server.LogLevel = previous.Server.LogLevel
	}
	if protected.isProtected("server.server_port") {
		out.Server.ServerPort = previous.Server.ServerPort
	}
	if protected.isProtected("server.api_server_url") {
		out.Server.ServerURL = previous.Server.ServerURL
	}

	prevDB := indexDatabases(previous.DatabaseConfigs)
	for i, d := range out.DatabaseConfigs {
		prev, ok := prevDB[d.Name]
		if !ok {
			continue
		}
		if protected.isProtected("database." + d.Name + ".user") {
			out.DatabaseConfigs[i].User = prev.User
		}
		if protected.isProtected("database." + d.Name + ".secret") {
			out.DatabaseConfigs[i].Secret = prev.Secret
		}
		if protected.isProtected("database." + d.Name + ".dsn") {
			out.DatabaseConfigs[i].DSN = prev.DSN
		}
		if protected.isProtected("database." + d.Name + ".wallet_ref") {
			out.DatabaseConfigs[i].WalletRef = prev.WalletRef
		}
	}
	return out
}

func indexDatabases(dbs []DatabaseConfig) map[string]DatabaseConfig {
	out := make(map[string]DatabaseConfig, len(dbs))
	for _, d := range dbs {
		out[d.Name] = d
	}
	return out
}

// Patch applies a runtime admin mutation (§4.3 "Runtime admin mutation").
// It takes precedence over every other layer, including protected
// environment fields — runtime patches are the highest-precedence source.
func (l *Loader) Patch(patch Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = mergeDocuments(patch, l.current)
}
