package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"local mobile", "0812-3456-7890", "+6281234567890"},
		{"international", "+62 812 3456 7890", "+6281234567890"},
		{"already e164", "+6281234567890", "+6281234567890"},
		{"empty", "   ", ""},
		{"letters", "not a phone", ""},
		{"too short", "+1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizePhone(tt.input))
		})
	}
}

func TestSanitizeKTP(t *testing.T) {
	assert.Equal(t, "3171234567890001", SanitizeKTP(" 3171-2345-6789-0001 "))
	assert.Equal(t, "", SanitizeKTP("abc"))
}

func TestSanitizeISBN(t *testing.T) {
	assert.Equal(t, "9786020332956", SanitizeISBN("978-602-03-3295-6"))
	assert.Equal(t, "043942089X", SanitizeISBN("0-439-42089-x"))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Laskar Pelangi", SanitizeText("  Laskar \t  Pelangi\n"))
	assert.Equal(t, "", SanitizeText("   "))
}

func TestSanitizeCategory(t *testing.T) {
	assert.Equal(t, "fiksi_sejarah", SanitizeCategory("  Fiksi - Sejarah "))
	assert.Equal(t, []string{"novel", "sains"}, SanitizeCategories([]string{"Novel", "novel", " ", "Sains"}))
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"adds https", "covers.example.com/Books/A.jpg", "https://covers.example.com/Books/A.jpg"},
		{"upgrades http", "http://WWW.Example.com/x/", "https://example.com/x"},
		{"drops tracking", "https://example.com/a?utm_source=x&size=L", "https://example.com/a?size=L"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeURL(tt.input))
		})
	}
}

func TestSanitizersAreIdempotent(t *testing.T) {
	inputs := []string{"0812-3456-7890", " Fiksi Sejarah ", "http://Example.com/A", "978-602-03-3295-6"}
	for _, fn := range []Strategy{SanitizePhone, SanitizeCategory, SanitizeURL, SanitizeISBN, SanitizeText} {
		for _, in := range inputs {
			once := fn(in)
			assert.Equal(t, once, fn(once))
		}
	}
}
