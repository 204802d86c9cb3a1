package feeder

import (
	"fmt"
	"strings"
)

// SubstitutePlaceholders replaces every {{field}} in template with the
// record's value. Placeholders without a matching field are left unchanged.
func SubstitutePlaceholders(template string, record Record) string {
	result := template
	for key, value := range record {
		result = strings.ReplaceAll(result, "{{"+key+"}}", fmt.Sprint(value))
	}
	return result
}
