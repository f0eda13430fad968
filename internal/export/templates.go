package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
)

var proformaTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"money": formatCents,
	}
	proformaTemplate = template.Must(template.New("proforma").Funcs(funcMap).Parse(proformaHTML))
}

// TemplateData holds data for proforma template rendering.
type TemplateData struct {
	Number     string
	ClientName string
	Status     string
	Notes      string
	Items      []TemplateItem
	TotalCents int64
	IssuedBy   string
	IssuedAt   time.Time
}

// TemplateItem is a single proforma line item for rendering.
type TemplateItem struct {
	Description    string
	Quantity       int
	UnitPriceCents int64
	LineTotalCents int64
}

// RenderProformaHTML renders the proforma template with provided data.
func RenderProformaHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := proformaTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s.%02d", sign, formatThousands(cents/100), cents%100)
}

func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

const proformaHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Proforma {{.Number}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { width: 100%; border-collapse: collapse; margin: 1.5rem 0; }
    th, td { border-bottom: 1px solid #ddd; padding: 0.5rem; text-align: left; }
    th { background: #f5f5f5; }
    .num { text-align: right; }
    .total td { font-weight: bold; border-top: 2px solid #333; }
    .notes { background: #f5f5f5; padding: 1rem; margin-top: 2rem; border-left: 3px solid #333; }
    .status { text-transform: uppercase; letter-spacing: 0.05em; }
  </style>
</head>
<body>
  <h1>Proforma {{.Number}}</h1>
  <div class="meta">
    {{.ClientName}} | <span class="status">{{.Status}}</span> |
    issued by {{.IssuedBy}} on {{formatDate .IssuedAt "Jan 2, 2006"}}
  </div>
  <table>
    <tr><th>Description</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Amount</th></tr>
    {{range .Items}}
    <tr>
      <td>{{.Description}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{money .UnitPriceCents}}</td>
      <td class="num">{{money .LineTotalCents}}</td>
    </tr>
    {{end}}
    <tr class="total"><td colspan="3">Total</td><td class="num">{{money .TotalCents}}</td></tr>
  </table>
  {{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
</body>
</html>`
