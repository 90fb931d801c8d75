// Package sourceutil builds the colon-joined cache and identity keys
// shared by the resolver and cache packages, e.g. "site:video:abc123".
package sourceutil

import "strings"

// FormatID builds a key from prefix and parts.
// Example: FormatID("site", "video", "abc") returns "site:video:abc".
func FormatID(prefix string, parts ...string) string {
	all := make([]string, 0, 1+len(parts))
	all = append(all, prefix)
	all = append(all, parts...)
	return strings.Join(all, ":")
}
