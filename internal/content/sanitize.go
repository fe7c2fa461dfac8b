package content

import "github.com/microcosm-cc/bluemonday"

// policy strips all markup and escapes the remaining text. A configured policy is
// safe for concurrent use.
var policy = bluemonday.StrictPolicy()

// Sanitize makes user text safe to store and render verbatim.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}
