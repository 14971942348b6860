package report

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/loaneye/internal/filter"
	"github.com/loaneye/internal/models"
)

const (
	DefaultBorrowerMultiplier = 2.5
	DefaultTopBorrowers       = 10
	croreDivisor              = 1e7
)

type Generator struct {
	multiplier float64
	topN       int
	printer    *message.Printer
	now        func() time.Time
}

type Dashboard struct {
	GeneratedAt         time.Time          `json:"generated_at"`
	AvailablePortfolios []string           `json:"available_portfolios"`
	SelectedPortfolios  []string           `json:"selected_portfolios"`
	Portfolios          []PortfolioSummary `json:"portfolios"`
	Metrics             Metrics            `json:"metrics"`
	SeverityMix         []Share            `json:"severity_mix"`
	CaseStatusMix       []Share            `json:"case_status_mix"`
	Overdue             Overdue            `json:"overdue"`
	DPDDistribution     []DPDBucket        `json:"dpd_distribution"`
	CibilBySeverity     []CibilStats       `json:"cibil_by_severity"`
	HighRiskBorrowers   []BorrowerRisk     `json:"high_risk_borrowers"`
	Actionables         []Actionable       `json:"actionables"`
}

type PortfolioSummary struct {
	Portfolio       string `json:"portfolio"`
	ActiveBorrowers int    `json:"active_borrowers"`
}

type Metrics struct {
	TotalAlerts         int `json:"total_alerts"`
	BorrowersWithAlerts int `json:"borrowers_with_alerts"`
	TotalBorrowers      int `json:"total_borrowers"`
}

type Share struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Overdue struct {
	Crore   float64 `json:"crore"`
	Display string  `json:"display"`
}

type DPDBucket struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type CibilStats struct {
	Severity models.Severity `json:"severity"`
	Count    int             `json:"count"`
	P25      float64         `json:"p25"`
	Median   float64         `json:"median"`
	P75      float64         `json:"p75"`
	Mean     float64         `json:"mean"`
}

type BorrowerRisk struct {
	BorrowerID   string  `json:"borrower_id"`
	BorrowerName string  `json:"borrower_name"`
	High         int     `json:"high"`
	Medium       int     `json:"medium"`
	Low          int     `json:"low"`
	Total        int     `json:"total"`
	Score        float64 `json:"score"`
}

type Actionable struct {
	CaseStatus string   `json:"case_status"`
	Count      int      `json:"count"`
	AvgDays    *float64 `json:"avg_days_since_last_comment"`
}

// NewGenerator builds a dashboard generator. Non-positive arguments fall back
// to the defaults.
func NewGenerator(multiplier float64, topN int) *Generator {
	if multiplier <= 0 {
		multiplier = DefaultBorrowerMultiplier
	}
	if topN <= 0 {
		topN = DefaultTopBorrowers
	}
	return &Generator{
		multiplier: multiplier,
		topN:       topN,
		printer:    message.NewPrinter(language.English),
		now:        time.Now,
	}
}

// FormatAmount renders v with thousands separators and two decimals.
func (g *Generator) FormatAmount(v float64) string {
	return g.printer.Sprintf("%.2f", v)
}

// Generate computes every dashboard panel. The portfolio summary covers all
// records; the other panels cover the records of the selected portfolios,
// or all records when none is selected.
func (g *Generator) Generate(records []models.AlertRecord, portfolios []string) *Dashboard {
	selected := filter.Filter(records, filter.Criteria{Portfolios: portfolios})

	d := &Dashboard{
		GeneratedAt:         g.now(),
		AvailablePortfolios: availablePortfolios(records),
		SelectedPortfolios:  portfolios,
		Portfolios:          portfolioSummary(records),
		Metrics:             g.metrics(selected),
		SeverityMix:         shares(selected, func(r *models.AlertRecord) string { return string(r.Severity) }),
		CaseStatusMix:       shares(selected, func(r *models.AlertRecord) string { return r.CaseStatus }),
		Overdue:             g.overdue(selected),
		DPDDistribution:     dpdDistribution(selected),
		CibilBySeverity:     cibilBySeverity(selected),
		HighRiskBorrowers:   highRisk(selected, g.topN),
		Actionables:         actionables(selected),
	}
	if d.SelectedPortfolios == nil {
		d.SelectedPortfolios = d.AvailablePortfolios
	}
	return d
}

func availablePortfolios(records []models.AlertRecord) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		if r.Portfolio == "" || seen[r.Portfolio] {
			continue
		}
		seen[r.Portfolio] = true
		out = append(out, r.Portfolio)
	}
	return out
}

func portfolioSummary(records []models.AlertRecord) []PortfolioSummary {
	borrowers := make(map[string]map[string]bool)
	for _, r := range records {
		if r.Portfolio == "" || r.BorrowerID == "" {
			continue
		}
		if borrowers[r.Portfolio] == nil {
			borrowers[r.Portfolio] = make(map[string]bool)
		}
		borrowers[r.Portfolio][r.BorrowerID] = true
	}

	out := make([]PortfolioSummary, 0, len(borrowers))
	for p, ids := range borrowers {
		out = append(out, PortfolioSummary{Portfolio: p, ActiveBorrowers: len(ids)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActiveBorrowers != out[j].ActiveBorrowers {
			return out[i].ActiveBorrowers > out[j].ActiveBorrowers
		}
		return out[i].Portfolio < out[j].Portfolio
	})
	return out
}

func (g *Generator) metrics(records []models.AlertRecord) Metrics {
	ids := make(map[string]bool)
	for _, r := range records {
		if r.BorrowerID != "" {
			ids[r.BorrowerID] = true
		}
	}
	return Metrics{
		TotalAlerts:         len(records),
		BorrowersWithAlerts: len(ids),
		TotalBorrowers:      int(g.multiplier * float64(len(ids))),
	}
}

// shares counts non-empty labels, ordered by count desc then label.
func shares(records []models.AlertRecord, label func(*models.AlertRecord) string) []Share {
	counts := make(map[string]int)
	total := 0
	for i := range records {
		l := label(&records[i])
		if l == "" {
			continue
		}
		counts[l]++
		total++
	}

	out := make([]Share, 0, len(counts))
	for l, c := range counts {
		out = append(out, Share{Label: l, Count: c, Percent: percent(c, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}

func (g *Generator) overdue(records []models.AlertRecord) Overdue {
	var sum float64
	for _, r := range records {
		if r.OverdueAmount != nil {
			sum += *r.OverdueAmount
		}
	}
	crore := sum / croreDivisor
	return Overdue{Crore: crore, Display: g.FormatAmount(crore)}
}

var dpdBuckets = []struct {
	label string
	max   float64
}{
	{"SMA-0 (1-30)", 30},
	{"SMA-1 (31-60)", 60},
	{"SMA-2 (61-90)", 90},
	{"NPA (>90)", math.Inf(1)},
}

// dpdDistribution buckets records with a positive Max DPD.
func dpdDistribution(records []models.AlertRecord) []DPDBucket {
	counts := make([]int, len(dpdBuckets))
	total := 0
	for _, r := range records {
		if r.MaxDPD == nil || *r.MaxDPD <= 0 {
			continue
		}
		for i, b := range dpdBuckets {
			if *r.MaxDPD <= b.max {
				counts[i]++
				break
			}
		}
		total++
	}

	out := make([]DPDBucket, len(dpdBuckets))
	for i, b := range dpdBuckets {
		out[i] = DPDBucket{Label: b.label, Count: counts[i], Percent: percent(counts[i], total)}
	}
	return out
}

func cibilBySeverity(records []models.AlertRecord) []CibilStats {
	scores := make(map[models.Severity][]float64)
	for _, r := range records {
		if r.CibilScore != nil {
			scores[r.Severity] = append(scores[r.Severity], *r.CibilScore)
		}
	}

	out := make([]CibilStats, 0, len(models.Severities))
	for _, sev := range models.Severities {
		v := scores[sev]
		st := CibilStats{Severity: sev, Count: len(v)}
		if len(v) > 0 {
			sort.Float64s(v)
			st.P25 = Percentile(v, 25)
			st.Median = Percentile(v, 50)
			st.P75 = Percentile(v, 75)
			st.Mean = mean(v)
		}
		out = append(out, st)
	}
	return out
}

// Percentile returns the p-th percentile of sorted, interpolating linearly
// between the closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

type borrowerKey struct {
	id, name string
}

func highRisk(records []models.AlertRecord, topN int) []BorrowerRisk {
	alerts := make(map[borrowerKey]map[models.Severity]map[string]bool)
	for _, r := range records {
		if r.BorrowerID == "" || r.BorrowerName == "" || r.Severity == "" {
			continue
		}
		k := borrowerKey{r.BorrowerID, r.BorrowerName}
		if alerts[k] == nil {
			alerts[k] = make(map[models.Severity]map[string]bool)
		}
		if alerts[k][r.Severity] == nil {
			alerts[k][r.Severity] = make(map[string]bool)
		}
		alerts[k][r.Severity][r.AlertID] = true
	}

	out := make([]BorrowerRisk, 0, len(alerts))
	for k, bySev := range alerts {
		b := BorrowerRisk{
			BorrowerID:   k.id,
			BorrowerName: k.name,
			High:         len(bySev[models.SeverityHigh]),
			Medium:       len(bySev[models.SeverityMedium]),
			Low:          len(bySev[models.SeverityLow]),
		}
		b.Total = b.High + b.Medium + b.Low
		if b.Total > 0 {
			t := float64(b.Total)
			b.Score = 0.5*float64(b.High)/t + 0.3*float64(b.Medium)/t + 0.2*float64(b.Low)/t
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].BorrowerID != out[j].BorrowerID {
			return out[i].BorrowerID < out[j].BorrowerID
		}
		return out[i].BorrowerName < out[j].BorrowerName
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func actionables(records []models.AlertRecord) []Actionable {
	status := shares(records, func(r *models.AlertRecord) string { return r.CaseStatus })

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		if r.CaseStatus == "" || r.DaysSinceLastComment == nil {
			continue
		}
		sums[r.CaseStatus] += *r.DaysSinceLastComment
		counts[r.CaseStatus]++
	}

	out := make([]Actionable, 0, len(status))
	for _, s := range status {
		a := Actionable{CaseStatus: s.Label, Count: s.Count}
		if n := counts[s.Label]; n > 0 {
			avg := sums[s.Label] / float64(n)
			a.AvgDays = &avg
		}
		out = append(out, a)
	}
	return out
}
