package export

import (
	"strings"
	"testing"
	"time"
)

func TestRenderProformaHTML(t *testing.T) {
	data := TemplateData{
		Number:     "PF-2025-0042",
		ClientName: "Acme & Sons",
		Status:     "draft",
		Notes:      "Payment due within 30 days",
		Items: []TemplateItem{
			{Description: "Consulting", Quantity: 10, UnitPriceCents: 15000, LineTotalCents: 150000},
			{Description: "Hosting <prod>", Quantity: 1, UnitPriceCents: 9900, LineTotalCents: 9900},
		},
		TotalCents: 159900,
		IssuedBy:   "maria",
		IssuedAt:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}

	html, err := RenderProformaHTML(data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"PF-2025-0042",
		"Acme &amp; Sons",
		"Consulting",
		"150.00",
		"1,500.00",
		"1,599.00",
		"Payment due within 30 days",
		"Mar 14, 2025",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}

	if strings.Contains(html, "<prod>") {
		t.Error("item description was not HTML-escaped")
	}
}

func TestRenderProformaHTMLOmitsEmptyNotes(t *testing.T) {
	html, err := RenderProformaHTML(TemplateData{Number: "PF-2025-0001", IssuedAt: time.Now()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "class=\"notes\"") {
		t.Error("notes block rendered for empty notes")
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{9900, "99.00"},
		{159900, "1,599.00"},
		{123456789, "1,234,567.89"},
		{-2500, "-25.00"},
	}
	for _, tt := range tests {
		if got := formatCents(tt.cents); got != tt.want {
			t.Errorf("formatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"hello world", "hello%20world"},
		{"a+b", "a%2Bb"},
		{"safe-_.~chars", "safe-_.~chars"},
	}
	for _, tt := range tests {
		if got := percentEncodeForDataURL(tt.input); got != tt.expected {
			t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"proforma-PF-2025-0042", "proforma-PF-2025-0042"},
		{"My Proforma", "My-Proforma"},
		{"weird/chars\\here", "weirdcharshere"},
		{"", "proforma"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.expected {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
