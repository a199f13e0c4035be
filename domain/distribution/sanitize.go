package distribution

import "strings"

var nameReplacer = strings.NewReplacer(
	"/", "_",
	`\`, "_",
	":", "_",
	"*", "_",
	"?", "_",
	"[", "_",
	"]", "_",
)

// SanitizeName turns a group-key value into a sheet-safe table name
func SanitizeName(key string) string {
	return nameReplacer.Replace(strings.TrimSpace(key))
}
