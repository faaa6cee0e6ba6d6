package exam

import (
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Prova1", "Prova1"},
		{"  Prova de Física  ", "Prova de Física"},
		{"../../etc/passwd", "etc_passwd"},
		{`a<b>c:"d"`, "a_b_c_d"},
		{"linha\nnova", "linha nova"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	onlyQuestions := ResolvePolicy("only_questions", true, false)

	if got := FileName("Prova1", onlyQuestions, FormatDOCX, now); got != "Prova1.docx" {
		t.Errorf("FileName() = %q, want Prova1.docx", got)
	}
	if got := FileName("", onlyQuestions, FormatDOCX, now); got != "prova_20240305_140709.docx" {
		t.Errorf("FileName() = %q", got)
	}
	if got := FileName("  ", ResolvePolicy("final_section", true, false), FormatPDF, now); got != "prova_com_gabarito_20240305_140709.pdf" {
		t.Errorf("FileName() = %q", got)
	}
}
