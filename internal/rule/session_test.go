package rule

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loaneye/internal/models"
)

const (
	overdue = "Overdue Amount FROM Collections TABLE"
	maxDPD  = "Max Dpd FROM Collections TABLE"
	region  = "Region FROM Collections TABLE"
	revenue = "Revenue FROM Auditors_Report TABLE"
)

type fakeSource map[int][]string

func (f fakeSource) Labels(code int) []string {
	return f[code]
}

var testSource = fakeSource{
	412: {overdue, maxDPD, region},
	901: {revenue},
}

func newTestSession() *Session {
	return NewSession("test", 412, testSource)
}

func TestSession_SpecExample(t *testing.T) {
	s := newTestSession()

	_, err := s.AddPiece(DefaultBlock, Piece{Variable: overdue, Operator: ">", Value: "100000"})
	require.NoError(t, err)
	text, err := s.AddPiece(DefaultBlock, Piece{PreOperator: "MAX", Variable: maxDPD, Operator: ">=", Value: "90", Join: "AND"})
	require.NoError(t, err)
	assert.Equal(t, overdue+" > 100000 AND MAX "+maxDPD+" >= 90", text)

	rule, err := s.SaveFinal(DefaultBlock, models.WorkflowHigh, models.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, text, rule.Expression)
	assert.Equal(t, text, rule.Described)
	assert.Equal(t, models.WorkflowHigh, rule.Workflow)
	assert.Equal(t, models.SeverityHigh, rule.Severity)

	assert.Empty(t, s.BlockText(DefaultBlock))
	assert.Len(t, s.FinalRules(), 1)
}

func TestSession_VariableExpansion(t *testing.T) {
	s := newTestSession()

	_, err := s.AddPiece(DefaultBlock, Piece{Variable: region, Operator: "==", Value: "North"})
	require.NoError(t, err)
	v, err := s.SaveVariable(DefaultBlock, "X")
	require.NoError(t, err)
	assert.Equal(t, models.VariableRule{Name: "X", Definition: region + " == 'North'"}, v)
	assert.Empty(t, s.BlockText(DefaultBlock))

	assert.Equal(t, []string{overdue, maxDPD, region, "X"}, s.AvailableVariables())

	_, err = s.AddPiece(2, Piece{Variable: "X"})
	require.NoError(t, err)
	_, err = s.AddPiece(2, Piece{Variable: overdue, Operator: ">", Value: "100", Join: "AND"})
	require.NoError(t, err)

	rule, err := s.SaveFinal(2, models.WorkflowCritical, models.SeverityMedium)
	require.NoError(t, err)
	assert.Equal(t, "("+region+" == 'North') AND "+overdue+" > 100", rule.Expression)
	assert.Equal(t, "X AND "+overdue+" > 100", rule.Described)
	assert.NotContains(t, rule.Expression, "X ")

	assert.Equal(t, map[string]string{"X": region + " == 'North'"}, s.VariableRules())
}

func TestSession_ValidationLeavesStateUnchanged(t *testing.T) {
	s := newTestSession()

	_, err := s.SaveFinal(DefaultBlock, models.WorkflowLow, models.SeverityLow)
	assert.True(t, models.IsValidation(err))
	assert.Empty(t, s.FinalRules())

	_, err = s.AddPiece(DefaultBlock, Piece{Variable: revenue})
	assert.True(t, models.IsValidation(err), "variable of another signal")

	_, err = s.AddPiece(DefaultBlock, Piece{Variable: overdue, Operator: ">", Value: "1"})
	require.NoError(t, err)

	_, err = s.SaveVariable(DefaultBlock, "   ")
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, overdue+" > 1", s.BlockText(DefaultBlock))

	_, err = s.SaveFinal(DefaultBlock, "Urgent", models.SeverityLow)
	assert.True(t, models.IsValidation(err))
	_, err = s.SaveFinal(DefaultBlock, models.WorkflowLow, "Severe")
	assert.True(t, models.IsValidation(err))
	assert.Empty(t, s.FinalRules())

	_, err = s.AddPiece(0, Piece{Variable: overdue})
	assert.True(t, models.IsValidation(err))

	_, err = s.SaveVariable(2, "Empty")
	assert.True(t, models.IsValidation(err))
	assert.Empty(t, s.VariableRules())
}

func TestSession_VariableNamedInsideLabel(t *testing.T) {
	s := newTestSession()

	_, err := s.AddPiece(DefaultBlock, Piece{Variable: overdue, Operator: ">", Value: "1000"})
	require.NoError(t, err)

	// "Overdue" occurs inside the label but is not a reference to itself
	v, err := s.SaveVariable(DefaultBlock, "Overdue")
	require.NoError(t, err)
	assert.Equal(t, overdue+" > 1000", v.Definition)

	_, err = s.AddPiece(2, Piece{Variable: "Overdue"})
	require.NoError(t, err)
	_, err = s.AddPiece(2, Piece{Variable: maxDPD, Operator: ">=", Value: "90", Join: "AND"})
	require.NoError(t, err)
	rule, err := s.SaveFinal(2, models.WorkflowHigh, models.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, "("+overdue+" > 1000) AND "+maxDPD+" >= 90", rule.Expression)
	assert.Equal(t, "Overdue AND "+maxDPD+" >= 90", rule.Described)
}

func TestSession_RejectsSelfReference(t *testing.T) {
	s := newTestSession()

	_, err := s.AddPiece(DefaultBlock, Piece{Variable: maxDPD, Operator: ">", Value: "1"})
	require.NoError(t, err)
	_, err = s.SaveVariable(DefaultBlock, "Dpd")
	require.NoError(t, err)

	_, err = s.AddPiece(2, Piece{Variable: "Dpd"})
	require.NoError(t, err)
	_, err = s.AddPiece(2, Piece{Variable: overdue, Operator: ">", Value: "5", Join: "OR"})
	require.NoError(t, err)
	_, err = s.SaveVariable(2, "Dpd")
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, map[string]string{"Dpd": maxDPD + " > 1"}, s.VariableRules())
	assert.Equal(t, "Dpd OR "+overdue+" > 5", s.BlockText(2))
}

func TestSession_RejectsVariableNamedLikeLabel(t *testing.T) {
	s := newTestSession()

	_, err := s.AddPiece(DefaultBlock, Piece{Variable: region, Operator: "==", Value: "West"})
	require.NoError(t, err)
	_, err = s.SaveVariable(DefaultBlock, overdue)
	assert.True(t, models.IsValidation(err))
	assert.Empty(t, s.VariableRules())
}

func TestSession_SwitchSignal(t *testing.T) {
	s := newTestSession()

	_, err := s.AddPiece(DefaultBlock, Piece{Variable: region})
	require.NoError(t, err)
	_, err = s.SaveVariable(DefaultBlock, "R1")
	require.NoError(t, err)
	_, err = s.AddPiece(DefaultBlock, Piece{Variable: "R1"})
	require.NoError(t, err)
	_, err = s.SaveFinal(DefaultBlock, models.WorkflowLow, models.SeverityLow)
	require.NoError(t, err)
	_, err = s.AddPiece(3, Piece{Variable: overdue})
	require.NoError(t, err)

	s.SwitchSignal(901)

	state := s.Snapshot()
	assert.Equal(t, 901, state.SignalCode)
	assert.Empty(t, state.VariableRules)
	assert.Empty(t, state.FinalRules)
	assert.Empty(t, state.Blocks)
	assert.Equal(t, []string{revenue}, state.AvailableVariables)
}

func TestSession_ConcurrentPieces(t *testing.T) {
	s := newTestSession()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddPiece(DefaultBlock, Piece{Variable: region, Operator: ">", Value: "1", Join: "AND"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, strings.Count(s.BlockText(DefaultBlock), region))
}

func TestManager(t *testing.T) {
	m := NewManager(testSource, time.Hour, zap.NewNop())

	s := m.Create(412, "ana")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), models.ErrSessionNotFound)
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(testSource, 50*time.Millisecond, zap.NewNop())

	s := m.Create(412, "ana")
	time.Sleep(120 * time.Millisecond)

	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}
