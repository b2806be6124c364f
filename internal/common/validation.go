package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat checks a requested format against the configured
// allow-list. An empty allow-list means no restriction.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("output format %q is not supported (choose one of: %s)",
		format, strings.Join(supportedFormats, ", "))
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
