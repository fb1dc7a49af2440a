package config

import (
	"log"
	"sort"
	"strings"
)

// Missing returns the names of required settings whose value is empty,
// sorted so the message is stable.
func Missing(required map[string]string) []string {
	var out []string
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func MustNonEmpty(required map[string]string) {
	if missing := Missing(required); len(missing) > 0 {
		log.Fatalf("missing required env: %s", strings.Join(missing, ", "))
	}
}
