package main

import "encoding/json"

// toText renders a non-string tool result (the typed retrieval and
// portal response structs) as JSON for the MCP text content block.
func toText(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "error: failed to format tool result"
	}
	return string(data)
}
