package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filterPayload struct {
	Location *string  `json:"location"`
	MaxPrice *float64 `json:"maxPrice"`
	Bedrooms *int     `json:"bedrooms"`
}

func TestParseAIJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "Pure JSON",
			input: `{"location": "Berlin", "bedrooms": 2}`,
			want:  map[string]interface{}{"location": "Berlin", "bedrooms": float64(2)},
		},
		{
			name:  "JSON in markdown code block",
			input: "```json\n{\"location\": \"Hamburg\", \"maxPrice\": 900}\n```",
			want:  map[string]interface{}{"location": "Hamburg", "maxPrice": float64(900)},
		},
		{
			name:  "Untagged code block",
			input: "```\n{\"bedrooms\": 3}\n```",
			want:  map[string]interface{}{"bedrooms": float64(3)},
		},
		{
			name:  "JSON with surrounding text",
			input: `Sure! Here are the filters: {"location": "Munich", "minPrice": null} Let me know.`,
			want:  map[string]interface{}{"location": "Munich", "minPrice": nil},
		},
		{
			name:  "Trailing comma",
			input: `{"location": "Köln", "bedrooms": 1,}`,
			want:  map[string]interface{}{"location": "Köln", "bedrooms": float64(1)},
		},
		{
			name:  "Unquoted keys",
			input: `{location: "Berlin", maxPrice: 1200}`,
			want:  map[string]interface{}{"location": "Berlin", "maxPrice": float64(1200)},
		},
		{
			name:  "Single quotes",
			input: `{'location': 'Berlin', 'bedrooms': 2}`,
			want:  map[string]interface{}{"location": "Berlin", "bedrooms": float64(2)},
		},
		{
			name:  "Braces inside strings",
			input: `result: {"location": "Berlin {Mitte}"} done`,
			want:  map[string]interface{}{"location": "Berlin {Mitte}"},
		},
		{
			name:    "Empty string",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "Invalid JSON",
			input:   "I could not determine any filters.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := ParseAIJSON(tt.input, &got)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAIJSON_Struct(t *testing.T) {
	var got filterPayload
	err := ParseAIJSON("```json\n{\"location\": \"Berlin\", \"maxPrice\": 1200, \"bedrooms\": null}\n```", &got)
	require.NoError(t, err)

	require.NotNil(t, got.Location)
	assert.Equal(t, "Berlin", *got.Location)
	require.NotNil(t, got.MaxPrice)
	assert.Equal(t, 1200.0, *got.MaxPrice)
	assert.Nil(t, got.Bedrooms)
}

func TestParseAIJSON_EmptyInput(t *testing.T) {
	var got map[string]interface{}
	assert.ErrorIs(t, ParseAIJSON("", &got), ErrEmptyInput)
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		name  string
		input string
		open  byte
		close byte
		want  string
	}{
		{name: "Simple object", input: `{"a": 1} tail`, open: '{', close: '}', want: `{"a": 1}`},
		{name: "Nested objects", input: `{"a": {"b": 2}}`, open: '{', close: '}', want: `{"a": {"b": 2}}`},
		{name: "Escaped quote", input: `{"a": "say \"}\""}`, open: '{', close: '}', want: `{"a": "say \"}\""}`},
		{name: "Array", input: `[1, [2], 3]`, open: '[', close: ']', want: `[1, [2], 3]`},
		{name: "Unterminated", input: `{"a": 1`, open: '{', close: '}', want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, balanced(tt.input, tt.open, tt.close))
		})
	}
}

func TestFixSingleQuotes(t *testing.T) {
	assert.Equal(t, `{"note": "it's fine"}`, fixSingleQuotes(`{'note': 'it's fine'}`))
	assert.Equal(t, `{"a": "don't"}`, fixSingleQuotes(`{"a": "don't"}`))
}
