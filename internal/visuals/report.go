package visuals

import (
	"html/template"
	"io"

	"mcs-forecast/internal/forecast"
)

const mermaidCDN = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Backlog forecast {{.Report.SnapshotID}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
td, th { border: 1px solid #ccc; padding: .3rem .7rem; text-align: left; }
.note { color: #8a5300; }
.chart { margin: 1.5rem 0; }
</style>
</head>
<body>
<h1>Backlog forecast</h1>
<p>Snapshot <code>{{.Report.SnapshotID}}</code> as of {{.Report.AsOf.Format "2006-01-02"}}, run <code>{{.Report.RunID}}</code>.
Remaining work: {{.Report.RemainingWork}} {{.Report.Unit}}, lookback {{.Report.LookbackWeeks}} weeks.</p>

<h2>Confidence</h2>
{{with .Report.Confidence}}
<p><strong>{{.Overall}}/100</strong>: plan with <strong>{{.Recommendation.Percentile}}</strong>. {{.Recommendation.Rationale}}</p>
<table>
<tr><th>Component</th><th>Score</th><th>Level</th><th>Detail</th></tr>
<tr><td>Velocity</td><td>{{.Velocity.Score}}</td><td>{{.Velocity.Level}}</td><td>{{.Velocity.Message}}</td></tr>
<tr><td>Estimation</td><td>{{.Estimation.Score}}</td><td>{{.Estimation.Level}}</td><td>{{.Estimation.Message}}</td></tr>
</table>
{{end}}

<h2>Forecast</h2>
{{with .Report.Forecast.Result}}
<table>
<tr><th>P50</th><th>P80</th><th>P95</th><th>Mean</th><th>Trials</th></tr>
<tr><td>{{.P50}} weeks</td><td>{{.P80}} weeks</td><td>{{.P95}} weeks</td><td>{{printf "%.1f" .Mean}}</td><td>{{.SampleCount}}</td></tr>
</table>
{{range .Warnings}}<p class="note">{{.}}</p>{{end}}
{{else}}
<p class="note">{{.Report.Forecast.Message}}</p>
{{end}}
{{range .Charts}}<pre class="mermaid chart">{{.}}</pre>
{{end}}

<h2>Estimation</h2>
{{with .Report.Estimation}}
{{if .Profile.Insufficient}}<p class="note">{{.Message}}</p>{{else}}
<p>{{.Profile.Bias.Level}} (linearity score {{.Profile.Bias.Score}}, {{.Profile.SampleSize}} items)</p>
<ul>
{{range .Profile.Recommendations}}<li><strong>[{{.Priority}}] {{.Title}}</strong> {{.Detail}}</li>
{{end}}
</ul>
{{end}}
{{end}}

<script src="{{.MermaidSrc}}"></script>
<script>mermaid.initialize({ startOnLoad: true });</script>
</body>
</html>
`))

// WriteHTMLReport renders a self-contained HTML page with mermaid charts for a report.
func WriteHTMLReport(w io.Writer, r forecast.Report) error {
	var charts []string
	for _, c := range ReportCharts(r) {
		if c != "" {
			charts = append(charts, c)
		}
	}
	return reportTemplate.Execute(w, struct {
		Report     forecast.Report
		Charts     []string
		MermaidSrc string
	}{r, charts, mermaidCDN})
}

// ReportCharts returns the diagrams for a report in display order. Sections without
// data yield empty strings.
func ReportCharts(r forecast.Report) []string {
	charts := []string{ThroughputChart(r.Throughput.Weeks, r.Unit)}
	if res := r.Forecast.Result; res != nil {
		charts = append(charts, HistogramChart(*res), CumulativeChart(*res), BurndownChart(*res, r.Unit))
	}
	return append(charts, SizeChart(r.Estimation.Profile))
}
