package render

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/google/uuid"
)

// HTMLOptions configures the standalone HTML page.
type HTMLOptions struct {
	Title       string // page title, defaults to "AWS Infrastructure Diagram"
	Environment string // shown in the header badge, defaults to "dev"
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
* { box-sizing: border-box; }
body {
  margin: 0;
  padding: 20px;
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
  background: #2d2d2d;
}
.header {
  display: flex;
  align-items: baseline;
  gap: 12px;
  color: #f8f9fa;
  margin-bottom: 16px;
}
.header h1 { margin: 0; font-size: 20px; }
.header .env {
  background: #8c4fff;
  color: white;
  border-radius: 10px;
  padding: 2px 10px;
  font-size: 12px;
  text-transform: uppercase;
}
.header .stats { color: #aaa; font-size: 13px; }
.diagram {
  background: #f8f9fa;
  border-radius: 8px;
  overflow: auto;
  padding: 8px;
}
</style>
</head>
<body>
<div class="header">
  <h1>{{.Title}}</h1>
  <span class="env">{{.Environment}}</span>
  <span class="stats">{{.ServiceCount}} services &middot; {{.ResourceCount}} resources &middot; {{.ConnectionCount}} connections</span>
</div>
<div class="diagram" id="diagram-{{.DiagramID}}">
{{.SVG}}
</div>
<script type="application/json" id="aggregation-metadata">{{.Metadata}}</script>
</body>
</html>
`))

type pageData struct {
	Title           string
	Environment     string
	DiagramID       string
	ServiceCount    int
	ResourceCount   int
	ConnectionCount int
	SVG             template.HTML
	Metadata        template.JS
}

// HTML renders the full standalone page: the SVG diagram plus the
// aggregation metadata embedded as JSON for the client grouping UI.
func HTML(d *Document, opts HTMLOptions) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = "AWS Infrastructure Diagram"
	}
	if opts.Environment == "" {
		opts.Environment = "dev"
	}

	meta, err := json.Marshal(d.Result.Metadata())
	if err != nil {
		return nil, err
	}

	resources := 0
	for _, s := range d.Result.Services {
		resources += len(s.Resources)
	}

	data := pageData{
		Title:           opts.Title,
		Environment:     opts.Environment,
		DiagramID:       uuid.NewString(),
		ServiceCount:    len(d.Result.Services),
		ResourceCount:   resources,
		ConnectionCount: len(d.Result.Connections),
		SVG:             template.HTML(SVG(d)),
		Metadata:        template.JS(meta),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
