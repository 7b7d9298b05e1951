package render

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Name}} Report</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 20px; }
    h1 { color: #333; }
    img { max-width: 100%; border: 1px solid #ddd; }
    .report-container { margin-top: 20px; }
    .timestamp { color: #666; font-size: 12px; margin-top: 10px; }
  </style>
</head>
<body>
  <h1>{{.Title}} Report</h1>
  <div class="report-container">
    <img src="{{.Image}}" alt="{{.Name}} Visualization">
  </div>
  <div class="timestamp">Generated on: {{.Generated}}</div>
</body>
</html>
`))

type reportPage struct {
	Name      string
	Title     string
	Image     string
	Generated string
}

func buildHTML(category, imageFile string, generated time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, reportPage{
		Name:      category,
		Title:     strings.ToUpper(category),
		Image:     "./" + imageFile,
		Generated: generated.UTC().Format(time.RFC3339),
	})
	return buf.Bytes(), err
}

func headerTemplate(category string) string {
	return `<span style="font-size: 10px; margin-left: 20px;">` + template.HTMLEscapeString(strings.ToUpper(category)) + ` Report</span>`
}

const footerTemplate = `<span style="font-size: 10px; margin-right: 20px;">Page <span class="pageNumber"></span> of <span class="totalPages"></span></span>`
