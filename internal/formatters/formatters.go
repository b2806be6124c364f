package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumatcher/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ImprovementResult", &ImprovementTextFormatter{})
	registry.RegisterFormatter("markdown", "ImprovementResult", &ImprovementMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ImprovementResult, *types.ImprovementResult:
		return "ImprovementResult"
	default:
		return "any"
	}
}

func asImprovementResult(data any) (*types.ImprovementResult, error) {
	switch result := data.(type) {
	case types.ImprovementResult:
		return &result, nil
	case *types.ImprovementResult:
		return result, nil
	default:
		return nil, fmt.Errorf("expected ImprovementResult, got %T", data)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ImprovementTextFormatter handles text formatting for improvement results
type ImprovementTextFormatter struct{}

func (itf *ImprovementTextFormatter) Format(data any) (string, error) {
	result, err := asImprovementResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== MATCH SCORE ===\n")
	output.WriteString(fmt.Sprintf("Original: %.4f\n", result.OriginalScore))
	output.WriteString(fmt.Sprintf("New:      %.4f\n", result.NewScore))
	output.WriteString(fmt.Sprintf("Attempts: %d\n", result.Attempts))
	output.WriteString(fmt.Sprintf("Duration: %.2fs\n\n", result.ExecutionTimeS))

	output.WriteString("=== UPDATED RESUME ===\n\n")
	output.WriteString(result.UpdatedResume)
	output.WriteString("\n")

	if result.ResumePreview != nil {
		output.WriteString("\n=== PREVIEW ===\n")
		output.WriteString(fmt.Sprintf("Name: %s\n", result.ResumePreview.PersonalData.Name))
		if result.ResumePreview.Summary != "" {
			output.WriteString("Summary:\n")
			output.WriteString(result.ResumePreview.Summary)
			output.WriteString("\n")
		}
		if len(result.ResumePreview.Skills) > 0 {
			output.WriteString("Skills: ")
			output.WriteString(strings.Join(result.ResumePreview.Skills, ", "))
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (itf *ImprovementTextFormatter) SupportedType() string {
	return "ImprovementResult"
}

// ImprovementMarkdownFormatter handles markdown formatting for improvement results
type ImprovementMarkdownFormatter struct{}

func (imf *ImprovementMarkdownFormatter) Format(data any) (string, error) {
	result, err := asImprovementResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume Improvement\n\n")
	output.WriteString(fmt.Sprintf("**Original Score:** %.4f\n\n", result.OriginalScore))
	output.WriteString(fmt.Sprintf("**New Score:** %.4f\n\n", result.NewScore))
	output.WriteString(fmt.Sprintf("**Attempts:** %d\n\n", result.Attempts))
	output.WriteString(fmt.Sprintf("**Duration:** %.2fs\n\n", result.ExecutionTimeS))

	output.WriteString("## Updated Resume\n\n")
	output.WriteString(result.UpdatedResume)
	output.WriteString("\n")

	if result.ResumePreview != nil {
		output.WriteString("\n## Preview\n\n")
		output.WriteString(fmt.Sprintf("**Name:** %s\n\n", result.ResumePreview.PersonalData.Name))
		if result.ResumePreview.Summary != "" {
			output.WriteString("### Summary\n")
			output.WriteString(result.ResumePreview.Summary)
			output.WriteString("\n\n")
		}
		if len(result.ResumePreview.Skills) > 0 {
			output.WriteString("### Skills\n")
			for _, skill := range result.ResumePreview.Skills {
				output.WriteString(fmt.Sprintf("- %s\n", skill))
			}
		}
	}

	return output.String(), nil
}

func (imf *ImprovementMarkdownFormatter) SupportedType() string {
	return "ImprovementResult"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
