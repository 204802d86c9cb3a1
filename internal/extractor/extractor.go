// Package extractor pulls named values out of response bodies using gjson
// paths or regular expressions, so setup operations can hand identifiers to
// the measured operation through the runner's variable store.
package extractor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/torosent/crankbench/internal/variables"
)

// Rule names a value to extract from a response body. JSONPath takes
// precedence over Regex when both are set.
type Rule struct {
	// Variable is the name the extracted value is stored under.
	Variable string

	// JSONPath is a gjson path, optionally prefixed with "$." (e.g. "$._id").
	JSONPath string

	// Regex is a pattern with an optional capture group.
	Regex string
}

// ExtractAll applies every rule to body. A rule that matches nothing yields
// an empty string and a warning on logger.
func ExtractAll(body []byte, rules []Rule, logger zerolog.Logger) map[string]string {
	result := make(map[string]string, len(rules))
	for _, rule := range rules {
		var value string
		switch {
		case rule.JSONPath != "":
			value = findJSONPath(body, rule.JSONPath, logger)
		case rule.Regex != "":
			value = findRegex(body, rule.Regex, logger)
		}
		result[rule.Variable] = value
	}
	return result
}

// Into extracts every rule into store. It fails on the first rule that
// produced no value; earlier values stay stored.
func Into(store variables.Store, body []byte, rules []Rule, logger zerolog.Logger) error {
	values := ExtractAll(body, rules, logger)
	for _, rule := range rules {
		value := values[rule.Variable]
		if value == "" {
			return fmt.Errorf("extract %s: no value in response", rule.Variable)
		}
		store.Set(rule.Variable, value)
	}
	return nil
}
