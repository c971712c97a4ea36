package enrich

import (
	"fmt"
	"strconv"
	"strings"
)

// Common candidate keys for canonical fields, in priority order. Attribute
// dictionaries from government services are inconsistently cased and named,
// so extraction walks an ordered list instead of guessing. Descriptors
// prepend dataset-specific keys.
var (
	idCandidates   = []string{"OBJECTID", "objectid", "OBJECTID_1", "FID", "GlobalID"}
	nameCandidates = []string{"NAME", "Name", "name", "BASENAME", "FULLNAME", "LABEL"}
)

// fieldValue returns the first candidate key present in attrs with a usable
// value, rendered as a string. Keys from prepend are tried before the common
// list. Absent everywhere means empty string.
func fieldValue(attrs map[string]any, prepend, common []string) string {
	for _, key := range prepend {
		if s, ok := render(attrs[key]); ok {
			return s
		}
	}
	for _, key := range common {
		if s, ok := render(attrs[key]); ok {
			return s
		}
	}
	return ""
}

// render converts an attribute value to its canonical string form. Numeric
// ids arrive as float64 from JSON decoding and must not grow a ".0" suffix.
func render(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}
