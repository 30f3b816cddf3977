package web

import (
	"html/template"
	"net/http"
	"time"

	"github.com/beamline-io/dataweb/internal/lib/logger/sl"
	"github.com/beamline-io/dataweb/internal/render"
)

type indexRow struct {
	Name     string
	Active   bool
	RunState string
	Color    string
}

type indexData struct {
	Instruments []indexRow
}

type dashboardData struct {
	Instrument string
	Display    *render.Display
	ShowHidden bool
	FetchedAt  time.Time
	Stale      bool
	Target     string
}

type errorData struct {
	Instrument string
	Target     string
}

var funcMap = template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return "—"
		}
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	},
	"rangeMark": func(mark string) string {
		switch mark {
		case render.RangePass:
			return "✓"
		case render.RangeFail:
			return "✗"
		}
		return ""
	},
}

func (s *Server) renderPage(w http.ResponseWriter, tmplStr string, data any) {
	t, err := template.New("page").Funcs(funcMap).Parse(tmplBase + tmplStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.log.Error("failed to render page", sl.Err(err))
	}
}

// tmplBase is the shared layout: styles, nav and the "row" fragment
// the other pages fill in.
const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>dataweb</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:system-ui,-apple-system,sans-serif;background:#f4f5f7;color:#1f2328;font-size:14px;line-height:1.5}
a{color:#0969da;text-decoration:none}
a:hover{text-decoration:underline}
nav{background:#24292f;color:#fff;padding:8px 16px;display:flex;gap:16px;align-items:center}
nav .brand{font-weight:700;font-size:15px}
nav a{color:#cdd4db;padding:4px 8px;border-radius:4px}
main{padding:16px;max-width:960px;margin:0 auto}
h2{font-size:13px;font-weight:600;color:#57606a;text-transform:uppercase;letter-spacing:.05em;margin:16px 0 8px}
.status-bar{padding:12px 16px;border-radius:6px;font-size:18px;font-weight:700;background:#d0d7de;color:#1f2328;margin-bottom:12px}
.state-green{background:#2da44e;color:#fff}
.state-lightblue{background:#54aeff;color:#fff}
.state-red{background:#cf222e;color:#fff}
.state-goldenrod{background:#d4a72c;color:#fff}
.state-blue{background:#0969da;color:#fff}
.state-darkred{background:#82071e;color:#fff}
.state-yellow{background:#eac54f;color:#1f2328}
.state-darkblue{background:#0a3069;color:#fff}
.stale{background:#fff8c5;border:1px solid #d4a72c;border-radius:6px;padding:8px 12px;margin-bottom:12px;font-size:13px}
.cards{display:flex;gap:12px;flex-wrap:wrap;margin-bottom:12px}
.card{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:12px 16px;flex:1;min-width:220px}
.card h3{font-size:12px;color:#57606a;text-transform:uppercase;letter-spacing:.05em;margin-bottom:6px}
ul.rows{list-style:none}
ul.rows li{padding:2px 0;border-bottom:1px solid #f0f1f3}
.row .name{color:#57606a}
.row.disconnected .val{color:#cf222e;font-style:italic}
.row.unavailable .val{color:#8c959f;font-style:italic}
.rc.pass{color:#2da44e;font-weight:700}
.rc.fail{color:#cf222e;font-weight:700}
.alarm{color:#cf222e;font-weight:600}
.group{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:10px 14px;margin-bottom:10px}
.group h3{font-size:13px;margin-bottom:6px}
.error-box{background:#ffebe9;border:1px solid #cf222e;border-radius:6px;padding:16px;font-size:15px}
.controls{margin:8px 0 16px;font-size:13px;color:#57606a}
table.insts{width:100%;border-collapse:collapse;background:#fff;border:1px solid #d0d7de;border-radius:6px}
table.insts th{text-align:left;padding:8px 12px;border-bottom:1px solid #d0d7de;font-size:12px;color:#57606a;text-transform:uppercase}
table.insts td{padding:8px 12px;border-bottom:1px solid #f0f1f3}
.badge{display:inline-block;padding:2px 8px;border-radius:10px;font-size:11px;font-weight:600;color:#fff;background:#8c959f}
.badge.on{background:#2da44e}
.pill{display:inline-block;padding:2px 8px;border-radius:4px;font-size:12px;font-weight:600}
</style>
</head>
<body>
<nav>
  <span class="brand">dataweb</span>
  <a href="/">Instruments</a>
</nav>
<main>
{{template "content" .}}
</main>
</body>
</html>{{end}}
{{define "row"}}<li class="row {{.Kind}}"><span class="name">{{.Name}}:</span> <span class="val">{{.Value}}</span>{{if .Range}} <span class="rc {{.Range}}">{{rangeMark .Range}}</span>{{end}}{{if .Alarm}} <span class="alarm">({{.Alarm}})</span>{{end}}</li>{{end}}
`

const tmplIndex = `
{{define "content"}}
<h2>Instruments</h2>
<table class="insts">
<tr><th>Instrument</th><th>Status</th><th>Run state</th></tr>
{{range .Instruments}}
<tr>
  <td><a href="/instrument/{{.Name}}">{{.Name}}</a></td>
  <td><span class="badge {{if .Active}}on{{end}}">{{if .Active}}reachable{{else}}unreachable{{end}}</span></td>
  <td>{{if .RunState}}<span class="pill state-{{.Color}}">{{.RunState}}</span>{{else}}—{{end}}</td>
</tr>
{{end}}
</table>
{{end}}
`

const tmplDashboard = `
{{define "content"}}
<div class="status-bar state-{{.Display.Color}}">{{.Display.ConfigName}} is {{.Display.RunState}}</div>
{{if .Stale}}<div class="stale">Could not connect to {{.Instrument}}{{if .Target}} at {{.Target}}{{end}}; showing last known state from {{fmtTime .FetchedAt}}.</div>{{end}}
<div class="cards">
  <div class="card">
    <h3>Run information</h3>
    <ul class="rows">
      {{if .Display.Title}}<li class="row value"><span class="name">Title:</span> <span class="val">{{.Display.Title}}</span></li>{{end}}
      {{if .Display.Users}}<li class="row value"><span class="name">Users:</span> <span class="val">{{.Display.Users}}</span></li>{{end}}
      {{range .Display.RunInfo}}{{template "row" .}}{{end}}
    </ul>
  </div>
  <div class="card">
    <h3>Time</h3>
    <ul class="rows">
      {{range .Display.TimeInfo}}{{template "row" .}}{{end}}
    </ul>
  </div>
  <div class="card">
    <h3>Period</h3>
    <ul class="rows">
      {{range .Display.PeriodInfo}}{{template "row" .}}{{end}}
    </ul>
  </div>
</div>
<form class="controls" method="GET">
  <label><input type="checkbox" name="show_hidden" value="1" {{if .ShowHidden}}checked{{end}} onchange="this.form.submit()"> Show hidden blocks</label>
</form>
<h2>Blocks</h2>
{{range .Display.Groups}}
<div class="group">
  <h3>{{.Name}}</h3>
  <ul class="rows">
    {{range .Rows}}{{template "row" .}}{{end}}
  </ul>
</div>
{{end}}
<h2>Instrument PVs</h2>
<div class="group">
  <ul class="rows">
    {{range .Display.InstPVs}}{{template "row" .}}{{end}}
  </ul>
</div>
{{end}}
`

const tmplError = `
{{define "content"}}
<div class="error-box">Could not connect to {{.Instrument}}{{if .Target}} at {{.Target}}{{end}}.</div>
{{end}}
`
