package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumatcher/internal/types"
)

func sampleResult() *types.ImprovementResult {
	return &types.ImprovementResult{
		ResumeID:       "r1",
		JobID:          "j1",
		OriginalScore:  0.5123,
		NewScore:       0.7456,
		Attempts:       2,
		UpdatedResume:  "rewritten resume body",
		ExecutionTimeS: 3.21,
		ResumePreview: &types.ResumePreview{
			PersonalData: types.PreviewPersonalData{Name: "Ada Example"},
			Summary:      "Backend engineer",
			Skills:       []string{"Go", "Postgres"},
		},
	}
}

func TestFormatJSON(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleResult(), "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded types.ImprovementResult
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("JSON output does not round-trip: %v", err)
	}
	if decoded.NewScore != 0.7456 {
		t.Errorf("Expected score to survive formatting, got %f", decoded.NewScore)
	}
}

func TestFormatText(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleResult(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"=== MATCH SCORE ===",
		"Original: 0.5123",
		"New:      0.7456",
		"Attempts: 2",
		"rewritten resume body",
		"Name: Ada Example",
		"Skills: Go, Postgres",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Text output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatMarkdown(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleResult(), "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"# Resume Improvement",
		"**New Score:** 0.7456",
		"## Updated Resume",
		"- Go",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Markdown output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatValueAndPointerAreEquivalent(t *testing.T) {
	registry := NewFormatterRegistry()

	byPointer, err := registry.Format(sampleResult(), "text")
	if err != nil {
		t.Fatalf("Format pointer failed: %v", err)
	}
	byValue, err := registry.Format(*sampleResult(), "text")
	if err != nil {
		t.Fatalf("Format value failed: %v", err)
	}
	if byPointer != byValue {
		t.Error("Value and pointer inputs must format identically")
	}
}

func TestFormatUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()

	if _, err := registry.Format(sampleResult(), "pdf"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestJSONFallbackForArbitraryData(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(map[string]string{"hello": "world"}, "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(output, `"hello": "world"`) {
		t.Errorf("Unexpected JSON output: %s", output)
	}
}

func TestMarkdownToHTML(t *testing.T) {
	html, err := MarkdownToHTML("# Title\n\nSome **bold** text\n\n- item one\n- item two\n")
	if err != nil {
		t.Fatalf("MarkdownToHTML failed: %v", err)
	}

	for _, want := range []string{"<h1", "<strong>bold</strong>", "<li>item one</li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML output missing %q:\n%s", want, html)
		}
	}
}

func TestMarkdownToHTMLGFMTable(t *testing.T) {
	html, err := MarkdownToHTML("| Skill | Level |\n|-------|-------|\n| Go | Expert |\n")
	if err != nil {
		t.Fatalf("MarkdownToHTML failed: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("Expected GFM table rendering, got:\n%s", html)
	}
}
