package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteJSONKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare keys",
			input: `{name: "Tacos", servings: 2}`,
			want:  `{"name": "Tacos", "servings": 2}`,
		},
		{
			name:  "already quoted",
			input: `{"name": "Tacos"}`,
			want:  `{"name": "Tacos"}`,
		},
		{
			name:  "nested object",
			input: `{nutrition: {calories: 100}}`,
			want:  `{"nutrition": {"calories": 100}}`,
		},
		{
			name:  "colon inside string value untouched",
			input: `{"description": "ratio 1:2"}`,
			want:  `{"description": "ratio 1:2"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteJSONKeys(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONObject("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSONObject(`prefix {"a":1} suffix`))
	assert.Equal(t, `{"a":1}`, ExtractJSONObject(`{"a":1}`))
	// nothing to extract, input passes through
	assert.Equal(t, "no braces here", ExtractJSONObject("  no braces here  "))
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]interface{}
	err := ParseJSON(`{"a":1}{"b":2}`, &v)
	assert.Error(t, err)
}

func TestParseJSONStrict(t *testing.T) {
	type target struct {
		Name string `json:"name"`
	}

	var v target
	require.NoError(t, ParseJSONStrict(`{"name":"x"}`, &v))
	assert.Equal(t, "x", v.Name)

	err := ParseJSONStrict(`{"name":"x","extra":true}`, &v)
	assert.Error(t, err)
}

func TestFormatExcludeNames(t *testing.T) {
	assert.Equal(t, "(none)", FormatExcludeNames(nil))
	assert.Equal(t, "- Pad Thai\n- Lasagna\n", FormatExcludeNames([]string{"Pad Thai", "Lasagna"}))
}

func TestValidMealSlot(t *testing.T) {
	assert.True(t, ValidMealSlot(SlotBreakfast))
	assert.True(t, ValidMealSlot(SlotLunch))
	assert.True(t, ValidMealSlot(SlotDinner))
	assert.False(t, ValidMealSlot("brunch"))
	assert.False(t, ValidMealSlot(""))
}
