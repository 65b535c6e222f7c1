package web

import (
	"html/template"
	"net/url"

	"github.com/betbot/controlpanel/internal/view"
)

var templateFuncs = template.FuncMap{
	"tone": func(t view.Tone) string { return t.String() },
	"actionPath": func(b view.Button) string {
		if b.Action == view.ActionClose {
			return "/actions/close/" + url.PathEscape(b.Arg)
		}
		return "/actions/" + b.Action
	},
}

const indexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <meta http-equiv="refresh" content="{{.Refresh}}"/>
  <title>Strategy Control Panel</title>
  <style>
    body { font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Arial; margin: 0; background:#f6f7f9; }
    .wrap { max-width: 1100px; margin: 0 auto; padding: 16px; }
    .grid3 { display:grid; grid-template-columns: repeat(3, 1fr); gap: 12px; }
    .card { background:#fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 12px; margin-bottom: 12px; }
    .card h3 { margin: 0 0 8px 0; }
    .field { display:flex; justify-content: space-between; padding: 2px 0; }
    .positive { color:#16a34a; }
    .negative { color:#dc2626; }
    .muted { color:#666; }
    .banner { background:#fee2e2; color:#991b1b; padding: 8px 12px; border-radius: 8px; margin-bottom: 12px; }
    table { width:100%; border-collapse: collapse; }
    th, td { text-align:left; padding: 4px 6px; border-bottom: 1px solid #f0f0f0; }
    form { display:inline; }
    button { margin-right: 8px; }
  </style>
</head>
<body>
<div class="wrap">
  <h2>Strategy Control Panel <span class="muted" style="font-size:12px">{{.Now}}{{if .FetchedAt}} · updated {{.FetchedAt}}{{end}}</span></h2>
{{- if .Tree.Loading}}
  <div class="card muted" id="loading">Loading...</div>
{{- else if .Tree.Error}}
  <div class="card negative" id="error">Error: {{.Tree.Error}}</div>
{{- else}}
  {{- if .Tree.Banner}}
  <div class="banner" id="banner">{{.Tree.Banner}}</div>
  {{- end}}
  <div class="grid3">
  {{- range .Tree.Panels}}{{if not .Table}}
    <div class="card" id="panel-{{.Key}}">
      <h3>{{.Title}}</h3>
      {{- range .Fields}}
      <div class="field"><span>{{.Label}}</span><span class="{{tone .Tone}}">{{.Value}}</span></div>
      {{- end}}
      {{- if .Buttons}}
      <div style="margin-top:8px">
        {{- range .Buttons}}
        <form method="post" action="{{actionPath .}}"><button type="submit" data-action="{{.Action}}"{{if .Disabled}} disabled{{end}}>{{.Label}}</button></form>
        {{- end}}
      </div>
      {{- end}}
    </div>
  {{- end}}{{end}}
  </div>
  {{- range .Tree.Panels}}{{if .Table}}
  <div class="card" id="panel-{{.Key}}">
    <h3>{{.Title}}</h3>
    <table>
      <tr>{{range .Table.Columns}}<th>{{.}}</th>{{end}}{{if eq .Key "positions"}}<th></th>{{end}}</tr>
      {{- range .Table.Rows}}
      <tr data-key="{{.Key}}">
        {{- range .Cells}}<td class="{{tone .Tone}}">{{.Text}}</td>{{end}}
        {{- if .Actions}}<td>{{range .Actions}}<form method="post" action="{{actionPath .}}"><button type="submit" data-action="{{.Action}}"{{if .Disabled}} disabled{{end}}>{{.Label}}</button></form>{{end}}</td>{{end}}
      </tr>
      {{- end}}
    </table>
  </div>
  {{- end}}{{end}}
{{- end}}
</div>
</body>
</html>
`
