package service

import (
	"testing"

	"flatmate/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestIntentClassifier_IsSearchRequest(t *testing.T) {
	classifier := NewIntentClassifier(config.DefaultSearchKeywords)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "keyword at start", text: "Find me something cheap", want: true},
		{name: "uppercase keyword", text: "I NEED AN APARTMENT", want: true},
		{name: "multi word keyword", text: "I'm Looking For a place", want: true},
		{name: "substring of a longer word", text: "Do you know any good bedrooms?", want: true},
		{name: "keyword inside word", text: "I love my friends", want: false},
		{name: "greeting", text: "Hello, how are you?", want: false},
		{name: "lease question", text: "What should I check before signing?", want: false},
		{name: "empty", text: "", want: false},
		{name: "budget", text: "my budget is tight", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsSearchRequest(tt.text))
		})
	}
}

func TestIntentClassifier_CustomKeywords(t *testing.T) {
	classifier := NewIntentClassifier([]string{" Wohnung ", "", "ZIMMER"})

	assert.True(t, classifier.IsSearchRequest("Ich suche eine wohnung"))
	assert.True(t, classifier.IsSearchRequest("ein Zimmer bitte"))
	assert.False(t, classifier.IsSearchRequest("find an apartment"))
}
