// Package sanitize cleans user-generated content before it is stored.
// Posts, comments, study notes, and chat messages are plain text for the
// frontend, so markup is stripped entirely rather than filtered.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML from user input and unescapes the entities the
// policy introduced, yielding plain text safe to store and echo back.
// Must be called on every user-provided string before it reaches the store.
func Text(input string) string {
	if input == "" {
		return ""
	}
	cleaned := getPolicy().Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
