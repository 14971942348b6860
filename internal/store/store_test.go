package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loaneye/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alertsCSV = ` Alert Id ,Signal Code,Signal Name,Borrower Id,Borrower Name,Portfolio,Date Of Event,Date Of Alert,Alert Severity,Case Status,Overdue Amount,Max DPD,Cibil Score
1,412,Collections,1001.0,Asha Traders,Retail,2024-01-05,2024-01-07,High,Open,"25,000",45,640
2,601,Bureau,1002,Kiran Foods,Retail,2024-02-10,,Low,Closed,,,
3,412,Collections,1003,Mehta Steel,Corporate,not a date,2024-03-02,Medium,Open,1000,95,710
,412,Collections,1004,No Id,Retail,2024-01-01,2024-01-01,Low,Open,,,
4,abc,Collections,1005,Bad Code,Retail,2024-01-01,2024-01-01,Low,Open,,,
5,1e20,Collections,1006,Huge Code,Retail,2024-01-01,2024-01-01,Low,Open,,,
`

func mustTable(t *testing.T, csv, name string) Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(csv), name)
	require.NoError(t, err)
	return tbl
}

func testStore(t *testing.T) *Store {
	t.Helper()
	details := map[int]Table{
		412: mustTable(t, "Alert Id,Region,Overdue Amount\n1,West,25000\n1,West,26000\n3,North,1000\n", "Collections"),
		601: mustTable(t, "Region,Remarks\nSouth,none\n", "Bureau"),
	}
	s, err := Load(mustTable(t, alertsCSV, "alerts"), details)
	require.NoError(t, err)
	return s
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		column string
	}{
		{"no alert id", "Signal Code,Portfolio\n412,Retail\n", ColAlertID},
		{"no signal code", "Alert Id,Portfolio\n1,Retail\n", ColSignalCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(mustTable(t, tt.csv, "alerts"), nil)
			require.Error(t, err)

			var le *models.LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.column, le.Column)
		})
	}
}

func TestLoad_ParsesRecords(t *testing.T) {
	s := testStore(t)

	alerts := s.Alerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, 3, s.SkippedRows())

	first := alerts[0]
	assert.Equal(t, "1", first.AlertID)
	assert.Equal(t, 412, first.SignalCode)
	assert.Equal(t, "1001", first.BorrowerID)
	assert.Equal(t, models.SeverityHigh, first.Severity)
	require.NotNil(t, first.OverdueAmount)
	assert.Equal(t, 25000.0, *first.OverdueAmount)
	require.NotNil(t, first.EventDate)
	assert.True(t, first.EventDate.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, alerts[1].AlertDate, "blank date is null")
	assert.Nil(t, alerts[2].EventDate, "unparseable date is coerced to null")
	assert.Nil(t, alerts[1].CibilScore)
}

func TestLoad_DetailTableWithoutAlertID(t *testing.T) {
	s := testStore(t)

	require.Len(t, s.DetailErrors(), 1)
	assert.True(t, models.IsLoadError(s.DetailErrors()[0]))
	assert.False(t, s.HasDetails(601))
	assert.True(t, s.HasDetails(412))
}

func TestDetailsFor(t *testing.T) {
	s := testStore(t)

	rows := s.DetailsFor(412, "1")
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "1", r.AlertID)
	}
	assert.Equal(t, "26000", rows[1].Values["Overdue Amount"])

	assert.Len(t, s.DetailsFor(412, "3"), 1)
	assert.Empty(t, s.DetailsFor(412, "999"), "no match")
	assert.Empty(t, s.DetailsFor(601, "2"), "rejected table")
	assert.Empty(t, s.DetailsFor(950, "1"), "unregistered code")
	assert.NotNil(t, s.DetailsFor(950, "1"))
}

func TestLoad_DerivesReportedDate(t *testing.T) {
	alerts := mustTable(t, alertsCSV, "alerts")
	s, err := Load(alerts, map[int]Table{
		412: mustTable(t, "Alert Id,Region,Date Of Event\n1,West,2024-01-05\n", "Collections"),
		901: mustTable(t, "Alert Id,Reported Date,Date Of Event\n2,2024-03-01,2024-02-10\n", "Auditors Report"),
	})
	require.NoError(t, err)

	cols, ok := s.DetailColumns(412)
	require.True(t, ok)
	assert.Equal(t, []string{"Alert Id", "Region", "Date Of Event", "Reported Date"}, cols)
	rows := s.DetailsFor(412, "1")
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-05", rows[0].Values["Reported Date"])

	rows = s.DetailsFor(901, "2")
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-03-01", rows[0].Values["Reported Date"], "existing column is kept")
	cols, _ = s.DetailColumns(901)
	assert.Len(t, cols, 3)
}

func TestLookupAndDistinctValues(t *testing.T) {
	s := testStore(t)

	a, ok := s.Lookup("3")
	require.True(t, ok)
	assert.Equal(t, "Mehta Steel", a.BorrowerName)

	_, ok = s.Lookup("42")
	assert.False(t, ok)

	assert.Equal(t, []string{"Retail", "Corporate"}, s.Portfolios())
	assert.Equal(t, []int{412, 601}, s.SignalCodes())

	name, ok := s.SignalName(412)
	assert.True(t, ok)
	assert.Equal(t, "Collections", name)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	alertsPath := filepath.Join(dir, "alerts.csv")
	detailPath := filepath.Join(dir, "signal_412.csv")
	require.NoError(t, os.WriteFile(alertsPath, []byte(alertsCSV), 0o644))
	require.NoError(t, os.WriteFile(detailPath, []byte("Alert Id,Region\n1,West\n"), 0o644))

	s, err := Open(alertsPath, []Source{
		{Code: 412, Table: "Collections", Path: detailPath},
		{Code: 733, Table: "bureau_loans", Path: filepath.Join(dir, "missing.csv")},
	})
	require.NoError(t, err)
	assert.Len(t, s.DetailsFor(412, "1"), 1)
	assert.Len(t, s.DetailErrors(), 1)

	_, err = Open(filepath.Join(dir, "nope.csv"), nil)
	assert.Error(t, err)
}
