package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
<h2>LoanEye EWS digest</h2>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>
<table>
<tr><td>Total alerts</td><td>{{.Metrics.TotalAlerts}}</td></tr>
<tr><td>Borrowers with alerts</td><td>{{.Metrics.BorrowersWithAlerts}}</td></tr>
<tr><td>Total borrowers</td><td>{{.Metrics.TotalBorrowers}}</td></tr>
<tr><td>Total overdue (Cr INR)</td><td>{{.Overdue.Display}}</td></tr>
</table>
{{if .HighRiskBorrowers}}
<h3>High risk borrowers</h3>
<table>
<tr><th>Borrower Id</th><th>Borrower Name</th><th>High</th><th>Medium</th><th>Low</th></tr>
{{range .HighRiskBorrowers}}<tr><td>{{.BorrowerID}}</td><td>{{.BorrowerName}}</td><td>{{.High}}</td><td>{{.Medium}}</td><td>{{.Low}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>`))

// RenderHTML renders the email body of a dashboard digest.
func RenderHTML(d *Dashboard) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to execute digest template: %w", err)
	}
	return buf.String(), nil
}

// Subject is the digest title.
func Subject(d *Dashboard) string {
	return fmt.Sprintf("LoanEye EWS digest (%s)", d.GeneratedAt.Format("2006-01-02"))
}

// Summary renders a short plain-text digest for chat channels.
func Summary(d *Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total alerts: %d\n", d.Metrics.TotalAlerts)
	fmt.Fprintf(&b, "Borrowers with alerts: %d\n", d.Metrics.BorrowersWithAlerts)
	fmt.Fprintf(&b, "Total overdue (Cr INR): %s\n", d.Overdue.Display)
	if len(d.HighRiskBorrowers) > 0 {
		b.WriteString("High risk borrowers:\n")
		for _, r := range d.HighRiskBorrowers {
			fmt.Fprintf(&b, "  %s %s (H:%d M:%d L:%d)\n", r.BorrowerID, r.BorrowerName, r.High, r.Medium, r.Low)
		}
	}
	return b.String()
}
