package chatgraph

import (
	"encoding/json"
	"fmt"
)

// extractStringArg pulls a single string field out of a tool call's JSON
// arguments, the shape every provider SDK hands back for a function call.
func extractStringArg(argsJSON, field string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &m); err != nil {
		return "", fmt.Errorf("parsing tool arguments: %w", err)
	}
	v, ok := m[field].(string)
	if !ok {
		return "", fmt.Errorf("tool arguments missing string field %q", field)
	}
	return v, nil
}
