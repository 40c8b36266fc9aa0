package profile

import "strings"

// matchEntry reports whether query selects e. Matching is case-insensitive
// against the name and the handle (with or without its leading "@").
//
// Supported queries:
//   - "mon" matches any name or handle containing "mon"
//   - "@m*" matches handles starting with "@m"
//   - "*chain" matches names or handles ending with "chain"
func matchEntry(query string, e Entry) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return false
	}

	candidates := []string{
		strings.ToLower(e.Name),
		strings.ToLower(e.Handle),
		strings.ToLower(strings.TrimPrefix(e.Handle, "@")),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(query, "*") {
			if wildcardMatch(query, c) {
				return true
			}
			continue
		}
		if strings.Contains(c, query) {
			return true
		}
	}
	return false
}

// wildcardMatch handles * as matching any sequence of characters.
func wildcardMatch(pattern, str string) bool {
	if pattern == "*" {
		return true
	}

	for len(pattern) > 0 {
		if pattern[0] == '*' {
			// Skip the star.
			pattern = pattern[1:]
			if len(pattern) == 0 {
				return true
			}
			// Try matching the rest of the pattern at every position.
			for i := 0; i <= len(str); i++ {
				if wildcardMatch(pattern, str[i:]) {
					return true
				}
			}
			return false
		}

		if len(str) == 0 || pattern[0] != str[0] {
			return false
		}

		pattern = pattern[1:]
		str = str[1:]
	}

	return len(str) == 0
}
