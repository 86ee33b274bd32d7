package exporter

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"twdash/pkg/contracts/domain"
)

// HTMLRenderer produces the one-page dashboard view of a reconciliation
// result.
type HTMLRenderer struct {
	logger *slog.Logger
	tmpl   *template.Template
}

// NewHTMLRenderer creates a renderer with the built-in dashboard template.
func NewHTMLRenderer(logger *slog.Logger) *HTMLRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLRenderer{
		logger: logger.With(slog.String("component", "exporter.html")),
		tmpl:   template.Must(template.New("dashboard").Parse(dashboardTemplate)),
	}
}

// pageView is the template root.
type pageView struct {
	RunID        string
	FiveDayDate  string
	TenDayDate   string
	FlowDate     string
	DateMismatch bool
	Total        int
	Sections     []sectionView
}

type sectionView struct {
	Title   string
	Class   string
	Empty   string
	Headers []string
	Rows    [][]string
}

// Render writes the dashboard HTML for result to w.
func (r *HTMLRenderer) Render(w io.Writer, result domain.ReconciliationResult) error {
	view := pageView{
		RunID:        result.RunID,
		FiveDayDate:  orNA(result.FiveDayDate),
		TenDayDate:   orNA(result.TenDayDate),
		FlowDate:     orNA(result.FlowDate),
		DateMismatch: !result.DatesAligned(),
		Total:        result.Total(),
		Sections: []sectionView{
			{
				Title:   "Institutional Buying",
				Class:   "buying",
				Empty:   "No decliners with net institutional buying.",
				Headers: resultHeaders,
				Rows:    sectionRows(result.Buying),
			},
			{
				Title:   "Institutional Selling",
				Class:   "selling",
				Empty:   "No decliners with net institutional selling.",
				Headers: resultHeaders,
				Rows:    sectionRows(result.Selling),
			},
			{
				Title:   "No Flow Data",
				Class:   "nodata",
				Empty:   "Every ranked decliner matched a flow record.",
				Headers: resultHeaders,
				Rows:    sectionRows(result.NoFlowData),
			},
		},
	}

	if err := r.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

// RenderToFile writes the dashboard to fullPath, creating parent directories
// as needed.
func (r *HTMLRenderer) RenderToFile(result domain.ReconciliationResult, fullPath string) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := r.Render(f, result); err != nil {
		return err
	}

	r.logger.Info("dashboard written",
		slog.String("path", fullPath),
		slog.Int("records", result.Total()))

	return nil
}

func sectionRows(records []domain.MergedRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, m := range records {
		rows = append(rows, recordRow(m))
	}
	return rows
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Decliner Flow Dashboard</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; margin: 1.5rem; background: #f7f7f9; color: #222; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1.1rem; margin-top: 2rem; border-bottom: 2px solid #ccc; padding-bottom: .25rem; }
.dates { color: #555; font-size: .9rem; }
.dates span { margin-right: 1.25rem; }
.advisory { background: #fff3cd; border: 1px solid #ffeeba; color: #856404; padding: .6rem .9rem; margin: 1rem 0; border-radius: 4px; }
table { border-collapse: collapse; width: 100%; background: #fff; font-size: .85rem; }
th, td { border: 1px solid #ddd; padding: .35rem .5rem; text-align: right; white-space: nowrap; }
th { background: #eee; }
td:nth-child(2), td:nth-child(3) { text-align: left; }
section.buying h2 { color: #c0392b; }
section.selling h2 { color: #27ae60; }
section.nodata h2 { color: #7f8c8d; }
.empty { color: #888; font-style: italic; }
footer { margin-top: 2rem; color: #999; font-size: .75rem; }
</style>
</head>
<body>
<h1>Decliner Flow Dashboard</h1>
<p class="dates">
<span>5-day ranking: {{.FiveDayDate}}</span>
<span>10-day ranking: {{.TenDayDate}}</span>
<span>Flow data: {{.FlowDate}}</span>
<span>Records: {{.Total}}</span>
</p>
{{if .DateMismatch}}
<div class="advisory">Source dates do not align. Flow figures may describe a different trading day than the price rankings.</div>
{{end}}
{{range .Sections}}
<section class="{{.Class}}">
<h2>{{.Title}} ({{len .Rows}})</h2>
{{if .Rows}}
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{else}}
<p class="empty">{{.Empty}}</p>
{{end}}
</section>
{{end}}
<footer>Run {{.RunID}}</footer>
</body>
</html>
`
