package status

import (
	"regexp"
	"strings"
)

var (
	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	separators    = regexp.MustCompile(`[\s_]+`)
)

// BuildAppKey derives the tenant-unique slug of an application from the tenant
// and application names, e.g. ("Acme Corp", "BillingAPI") -> "acme-corp-billing-api".
func BuildAppKey(tenantName, appName string) string {
	return toKebabCase(tenantName) + "-" + toKebabCase(appName)
}

func toKebabCase(s string) string {
	s = camelBoundary.ReplaceAllString(strings.TrimSpace(s), "$1-$2")
	s = separators.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}
