package shared

import "strings"

// BuildCacheKey joins key parts with the ":" separator used for all cache keys.
func BuildCacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
