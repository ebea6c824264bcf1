package completion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"agrovet/internal/metrics"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{name: "short", text: "prenhez", max: 10, want: "prenhez"},
		{name: "ascii cut", text: "concepcao", max: 4, want: "conc"},
		{name: "inside two-byte rune", text: "concepção", max: 7, want: "concep"},
		{name: "after two-byte rune", text: "concepção", max: 8, want: "concepç"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateText(tt.text, tt.max); got != tt.want {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestBuildPromptKeepsValidUTF8(t *testing.T) {
	text := "a" + strings.Repeat("ã", maxPromptText)

	prompt := buildPrompt(text, []metrics.Key{metrics.PregnancyRate})

	if !utf8.ValidString(prompt) {
		t.Fatal("prompt is not valid UTF-8")
	}
	body := prompt[strings.Index(prompt, "OCR text:\n")+len("OCR text:\n"):]
	if len(body) > maxPromptText {
		t.Errorf("prompt text = %d bytes, want at most %d", len(body), maxPromptText)
	}
}
