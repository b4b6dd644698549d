package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("taro@example.com"))
	assert.NoError(t, ValidateEmail("ops+console@trade.co.jp"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail(""))
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "納期確認済み", "納期確認済み"},
		{"nul and escape stripped", "a\x00b\x1bc", "abc"},
		{"delete stripped", "a\x7fb", "ab"},
		{"tabs and newlines kept", "一行目\n\t二行目", "一行目\n\t二行目"},
		{"carriage return kept", "a\r\nb", "a\r\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input))
		})
	}
}

func TestParseAndFormatAmount(t *testing.T) {
	assert.Equal(t, 25.5, ParseAmount("25.5"))
	assert.Equal(t, 0.0, ParseAmount("not a number"))
	assert.Equal(t, "25.50", FormatAmount(25.5))
	assert.Equal(t, "0.00", FormatAmount(0))
}
