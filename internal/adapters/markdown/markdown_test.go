package markdown

import (
	"strings"
	"testing"
)

// TestToHTML tests Markdown conversion and escaping of raw HTML.
func TestToHTML(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		notWant string
	}{
		{"emphasis", "**Bring** water", "<strong>Bring</strong> water", ""},
		{"hard wraps", "line one\nline two", "line one<br>", ""},
		{"list", "- gloves\n- hat", "<li>gloves</li>", ""},
		{"raw html escaped", "<script>alert(1)</script>", "", "<script>"},
		{"empty", "", "", "<p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(ToHTML(tt.in))
			if tt.want != "" && !strings.Contains(got, tt.want) {
				t.Errorf("ToHTML(%q) = %q, want it to contain %q", tt.in, got, tt.want)
			}
			if tt.notWant != "" && strings.Contains(got, tt.notWant) {
				t.Errorf("ToHTML(%q) = %q, must not contain %q", tt.in, got, tt.notWant)
			}
		})
	}
}
