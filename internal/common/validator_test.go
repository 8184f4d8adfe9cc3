package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNumericCode(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1234", true},
		{"000123", true},
		{"7", true},
		{"", false},
		{"12a4", false},
		{"1234 ", false},
		{"12-34", false},
		{"١٢٣٤", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsNumericCode(tt.input), "input %q", tt.input)
	}
}
