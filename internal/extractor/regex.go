package extractor

import (
	"regexp"

	"github.com/rs/zerolog"
)

// findRegex returns the first capture group of pattern, or the full match
// when the pattern has no groups.
func findRegex(body []byte, pattern string, logger zerolog.Logger) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		logger.Warn().Err(err).Str("pattern", pattern).Msg("invalid regex pattern")
		return ""
	}

	match := re.FindSubmatch(body)
	if match == nil {
		logger.Warn().Str("pattern", pattern).Msg("regex pattern not found")
		return ""
	}
	if len(match) > 1 {
		return string(match[1])
	}
	return string(match[0])
}
