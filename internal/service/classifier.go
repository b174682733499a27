package service

import "strings"

// IntentClassifier decides whether a chat message is a property search
type IntentClassifier struct {
	keywords []string
}

// NewIntentClassifier creates a classifier over the given keywords. Matching ignores case.
func NewIntentClassifier(keywords []string) *IntentClassifier {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			normalized = append(normalized, k)
		}
	}
	return &IntentClassifier{keywords: normalized}
}

// IsSearchRequest reports whether text contains any search keyword as a substring
func (c *IntentClassifier) IsSearchRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
