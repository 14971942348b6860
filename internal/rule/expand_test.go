package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaneye/internal/models"
)

func TestVariableSet_Expand(t *testing.T) {
	v := NewVariableSet()
	require.NoError(t, v.Put("X", "Region FROM Collections TABLE == 'North'"))
	require.NoError(t, v.Put("Y", "X OR Max Dpd FROM Collections TABLE >= 90"))

	got, err := v.Expand("Y AND Overdue Amount FROM Collections TABLE > 100")
	require.NoError(t, err)
	assert.Equal(t,
		"((Region FROM Collections TABLE == 'North') OR Max Dpd FROM Collections TABLE >= 90) AND Overdue Amount FROM Collections TABLE > 100",
		got)

	plain, err := v.Expand("no references here")
	require.NoError(t, err)
	assert.Equal(t, "no references here", plain)
}

func TestVariableSet_LongestMatchFirst(t *testing.T) {
	v := NewVariableSet()
	require.NoError(t, v.Put("RISK", "a > 1"))
	require.NoError(t, v.Put("RISK_HIGH", "b > 2"))

	got, err := v.Expand("RISK_HIGH AND RISK")
	require.NoError(t, err)
	assert.Equal(t, "(b > 2) AND (a > 1)", got)

	assert.Equal(t, []string{"RISK_HIGH", "RISK"}, v.References("RISK_HIGH AND RISK"))
}

func TestVariableSet_LiteralsAreNeverSubstituted(t *testing.T) {
	label := "Overdue Amount FROM Collections TABLE"
	v := NewVariableSet(label)
	require.NoError(t, v.Put("Overdue", label+" > 1000"))
	require.NoError(t, v.Put("Amount", "Overdue AND "+label+" < 5000"))

	got, err := v.Expand("Amount OR Overdue")
	require.NoError(t, err)
	assert.Equal(t, "(("+label+" > 1000) AND "+label+" < 5000) OR ("+label+" > 1000)", got)
	assert.Equal(t, []string{"Overdue"}, v.References("Overdue AND "+label+" < 5000"))

	err = v.Put(label, "1")
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, 2, v.Len())
}

func TestVariableSet_Graph(t *testing.T) {
	v := NewVariableSet()
	require.NoError(t, v.Put("A1", "1"))
	require.NoError(t, v.Put("B1", "A1 + A1"))

	assert.Equal(t, map[string][]string{
		"A1": nil,
		"B1": {"A1"},
	}, v.Graph())
}

func TestVariableSet_RejectsCycles(t *testing.T) {
	v := NewVariableSet()
	require.NoError(t, v.Put("A1", "B1 + 1"))

	err := v.Put("B1", "A1 * 2")
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Contains(t, err.Error(), "A1 -> B1 -> A1")

	assert.Equal(t, 1, v.Len())
	_, ok := v.Get("B1")
	assert.False(t, ok)

	err = v.Put("C", "C + 1")
	assert.True(t, models.IsValidation(err))
}

func TestVariableSet_ReplaceKeepsOrder(t *testing.T) {
	v := NewVariableSet()
	require.NoError(t, v.Put("P", "1"))
	require.NoError(t, v.Put("Q", "2"))
	require.NoError(t, v.Put("P", "3"))

	assert.Equal(t, []string{"P", "Q"}, v.Names())
	def, ok := v.Get("P")
	require.True(t, ok)
	assert.Equal(t, "3", def)
	assert.Equal(t, []models.VariableRule{{Name: "P", Definition: "3"}, {Name: "Q", Definition: "2"}}, v.Rules())
}
