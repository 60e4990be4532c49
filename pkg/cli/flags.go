package cli

import (
	"fmt"
	"sort"
	"strings"
)

// stringList is a repeatable string flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// parsePluginOptions turns repeated key=value flags into a map. A bare key
// maps to an empty value.
func parsePluginOptions(values []string) (map[string]string, error) {
	opts := make(map[string]string, len(values))
	for _, value := range values {
		key, val, _ := strings.Cut(value, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid option %q: missing key", value)
		}
		if strings.Contains(val, ",") {
			return nil, fmt.Errorf("invalid option %q: values cannot contain commas", value)
		}
		opts[key] = val
	}
	return opts, nil
}

// joinParameter renders options the way protoc passes --<name>_opt.
func joinParameter(opts map[string]string) string {
	parts := make([]string, 0, len(opts))
	for _, key := range sortedKeys(opts) {
		if opts[key] == "" {
			parts = append(parts, key)
		} else {
			parts = append(parts, key+"="+opts[key])
		}
	}
	return strings.Join(parts, ",")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
