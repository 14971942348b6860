package store

import (
	"fmt"
	"sort"

	"github.com/loaneye/internal/models"
)

// Column names of the alerts table.
const (
	ColAlertID              = "Alert Id"
	ColSignalCode           = "Signal Code"
	ColSignalName           = "Signal Name"
	ColBorrowerID           = "Borrower Id"
	ColBorrowerName         = "Borrower Name"
	ColPortfolio            = "Portfolio"
	ColEventDate            = "Date Of Event"
	ColReportedDate         = "Reported Date"
	ColAlertDate            = "Date Of Alert"
	ColSeverity             = "Alert Severity"
	ColCaseStatus           = "Case Status"
	ColOverdueAmount        = "Overdue Amount"
	ColMaxDPD               = "Max DPD"
	ColCibilScore           = "Cibil Score"
	ColDaysSinceLastComment = "Days since last comment"
)

type detailTable struct {
	name    string
	columns []string
	rows    []models.DetailRecord
	byAlert map[string][]int
}

// Store holds the alerts table and the per-signal detail tables of one
// session. It is immutable after Load and safe for concurrent readers.
type Store struct {
	alerts       []models.AlertRecord
	byID         map[string]int
	details      map[int]*detailTable
	detailErrors []error
	skippedRows  int
}

// Load builds a Store. It fails with a *models.LoadError when the alerts
// table lacks the alert id or signal code column. A detail table without an
// alert id column is left unregistered and its error is kept on the store.
func Load(alerts Table, details map[int]Table) (*Store, error) {
	for _, col := range []string{ColSignalCode, ColAlertID} {
		if !alerts.HasColumn(col) {
			return nil, &models.LoadError{Table: alerts.Name, Column: col}
		}
	}

	s := &Store{
		byID:    make(map[string]int),
		details: make(map[int]*detailTable),
	}
	s.loadAlerts(alerts)

	codes := make([]int, 0, len(details))
	for code := range details {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for _, code := range codes {
		dt, err := buildDetailTable(code, details[code])
		if err != nil {
			s.detailErrors = append(s.detailErrors, err)
			continue
		}
		s.details[code] = dt
	}

	return s, nil
}

func (s *Store) loadAlerts(t Table) {
	idx := make(map[string]int)
	for _, col := range []string{
		ColAlertID, ColSignalCode, ColSignalName, ColBorrowerID, ColBorrowerName,
		ColPortfolio, ColEventDate, ColAlertDate, ColSeverity, ColCaseStatus,
		ColOverdueAmount, ColMaxDPD, ColCibilScore, ColDaysSinceLastComment,
	} {
		idx[col] = t.ColumnIndex(col)
	}

	for _, row := range t.Rows {
		id := NormalizeID(t.cell(row, idx[ColAlertID]))
		code, ok := ParseSignalCode(t.cell(row, idx[ColSignalCode]))
		if id == "" || !ok {
			s.skippedRows++
			continue
		}

		fields := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			fields[col] = t.cell(row, i)
		}

		rec := models.AlertRecord{
			AlertID:              id,
			SignalCode:           code,
			SignalName:           t.cell(row, idx[ColSignalName]),
			BorrowerID:           NormalizeID(t.cell(row, idx[ColBorrowerID])),
			BorrowerName:         t.cell(row, idx[ColBorrowerName]),
			Portfolio:            t.cell(row, idx[ColPortfolio]),
			EventDate:            ParseDate(t.cell(row, idx[ColEventDate])),
			AlertDate:            ParseDate(t.cell(row, idx[ColAlertDate])),
			Severity:             models.Severity(t.cell(row, idx[ColSeverity])),
			CaseStatus:           t.cell(row, idx[ColCaseStatus]),
			OverdueAmount:        ParseNumber(t.cell(row, idx[ColOverdueAmount])),
			MaxDPD:               ParseNumber(t.cell(row, idx[ColMaxDPD])),
			CibilScore:           ParseNumber(t.cell(row, idx[ColCibilScore])),
			DaysSinceLastComment: ParseNumber(t.cell(row, idx[ColDaysSinceLastComment])),
			Fields:               fields,
		}

		if _, dup := s.byID[id]; !dup {
			s.byID[id] = len(s.alerts)
		}
		s.alerts = append(s.alerts, rec)
	}
}

func buildDetailTable(code int, t Table) (*detailTable, error) {
	name := t.Name
	if name == "" {
		name = fmt.Sprintf("signal_%d", code)
	}
	idCol := t.ColumnIndex(ColAlertID)
	if idCol < 0 {
		return nil, &models.LoadError{Table: name, Column: ColAlertID}
	}

	// tables that only carry the event date report it as the reported date
	columns := t.Columns
	eventCol := t.ColumnIndex(ColEventDate)
	derive := eventCol >= 0 && t.ColumnIndex(ColReportedDate) < 0
	if derive {
		columns = append(append([]string(nil), t.Columns...), ColReportedDate)
	}

	dt := &detailTable{
		name:    name,
		columns: columns,
		byAlert: make(map[string][]int),
	}
	for _, row := range t.Rows {
		values := make(map[string]string, len(columns))
		for i, col := range t.Columns {
			values[col] = t.cell(row, i)
		}
		if derive {
			values[ColReportedDate] = t.cell(row, eventCol)
		}
		id := NormalizeID(t.cell(row, idCol))
		dt.byAlert[id] = append(dt.byAlert[id], len(dt.rows))
		dt.rows = append(dt.rows, models.DetailRecord{
			AlertID:    id,
			SignalCode: code,
			Columns:    columns,
			Values:     values,
		})
	}
	return dt, nil
}

// Alerts returns the alert records in table order.
func (s *Store) Alerts() []models.AlertRecord {
	out := make([]models.AlertRecord, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Lookup returns the first alert carrying alertID.
func (s *Store) Lookup(alertID string) (models.AlertRecord, bool) {
	i, ok := s.byID[NormalizeID(alertID)]
	if !ok {
		return models.AlertRecord{}, false
	}
	return s.alerts[i], true
}

// DetailsFor returns the detail rows of signalCode whose alert id equals
// alertID. An unknown code or id yields an empty slice.
func (s *Store) DetailsFor(signalCode int, alertID string) []models.DetailRecord {
	dt, ok := s.details[signalCode]
	if !ok {
		return []models.DetailRecord{}
	}
	rows := dt.byAlert[NormalizeID(alertID)]
	out := make([]models.DetailRecord, 0, len(rows))
	for _, i := range rows {
		out = append(out, dt.rows[i])
	}
	return out
}

// DetailColumns returns the columns of the detail table registered for
// signalCode.
func (s *Store) DetailColumns(signalCode int) ([]string, bool) {
	dt, ok := s.details[signalCode]
	if !ok {
		return nil, false
	}
	return dt.columns, true
}

// HasDetails reports whether a detail table is registered for signalCode.
func (s *Store) HasDetails(signalCode int) bool {
	_, ok := s.details[signalCode]
	return ok
}

// DetailErrors returns the load errors of rejected detail tables.
func (s *Store) DetailErrors() []error {
	return s.detailErrors
}

// SkippedRows is the number of alert rows without a usable id or code.
func (s *Store) SkippedRows() int {
	return s.skippedRows
}

// Portfolios returns the distinct non-empty portfolios in first-seen order.
func (s *Store) Portfolios() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.alerts {
		if a.Portfolio == "" || seen[a.Portfolio] {
			continue
		}
		seen[a.Portfolio] = true
		out = append(out, a.Portfolio)
	}
	return out
}

// SignalCodes returns the distinct signal codes in first-seen order.
func (s *Store) SignalCodes() []int {
	seen := make(map[int]bool)
	var out []int
	for _, a := range s.alerts {
		if seen[a.SignalCode] {
			continue
		}
		seen[a.SignalCode] = true
		out = append(out, a.SignalCode)
	}
	return out
}

// SignalName returns the signal name recorded on the first alert of code.
func (s *Store) SignalName(code int) (string, bool) {
	for _, a := range s.alerts {
		if a.SignalCode == code {
			return a.SignalName, true
		}
	}
	return "", false
}
