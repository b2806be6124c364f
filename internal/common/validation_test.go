package common

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name        string
		format      string
		supported   []string
		expectError bool
	}{
		{name: "json is supported", format: "json", supported: supported},
		{name: "text is supported", format: "text", supported: supported},
		{name: "markdown is supported", format: "markdown", supported: supported},
		{name: "xml is rejected", format: "xml", supported: supported, expectError: true},
		{name: "matching is case sensitive", format: "JSON", supported: supported, expectError: true},
		{name: "empty format is rejected", format: "", supported: supported, expectError: true},
		{name: "empty allow-list accepts anything", format: "xml", supported: nil},
		{name: "single-entry allow-list", format: "json", supported: []string{"json"}},
		{name: "single-entry allow-list rejects others", format: "text", supported: []string{"json"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectError && err == nil {
				t.Errorf("Expected error for format %q", tt.format)
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected format %q to validate, got: %v", tt.format, err)
			}
		})
	}
}

func TestValidateOutputFormatErrorNamesAlternatives(t *testing.T) {
	err := ValidateOutputFormat("xml", []string{"json", "text"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), `"xml"`) || !strings.Contains(err.Error(), "json, text") {
		t.Errorf("Error should name the rejected format and the alternatives, got: %v", err)
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := []string{"json", "text", "markdown"}
	got := GetSupportedFormats(formats)
	if len(got) != len(formats) {
		t.Fatalf("Expected %d formats, got %d", len(formats), len(got))
	}
	for i := range formats {
		if got[i] != formats[i] {
			t.Errorf("Format %d: expected %q, got %q", i, formats[i], got[i])
		}
	}
}
