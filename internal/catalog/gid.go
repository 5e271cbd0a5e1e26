package catalog

import (
	"strconv"
	"strings"
)

const productGIDPrefix = "gid://shopify/Product/"

// ProductGID expands a numeric product id into its global id. Values that are
// already global ids, or are not numeric, are returned trimmed but unchanged.
func ProductGID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "gid://") {
		return value
	}
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		return value
	}
	return productGIDPrefix + value
}

// LegacyID returns the trailing numeric segment of a global id.
func LegacyID(gid string) string {
	gid = strings.TrimSpace(gid)
	if idx := strings.LastIndex(gid, "/"); idx >= 0 {
		return gid[idx+1:]
	}
	return gid
}
