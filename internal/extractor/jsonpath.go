package extractor

import (
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// findJSONPath accepts both "$.field" and bare "field" syntax. A lone "$"
// selects the whole document.
func findJSONPath(body []byte, path string, logger zerolog.Logger) string {
	if len(path) > 0 && path[0] == '$' {
		if len(path) > 1 && path[1] == '.' {
			path = path[2:]
		} else if len(path) == 1 {
			path = "@this"
		}
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		logger.Warn().Str("path", path).Msg("JSONPath not found")
		return ""
	}
	return result.String()
}
