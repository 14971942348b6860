package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaneye/internal/models"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		operator string
		input    string
		want     string
	}{
		{"==", "Retail", "'Retail'"},
		{"is.in", "a, b", "['a', 'b']"},
		{"not_is.in", "x,y ,z", "['x', 'y', 'z']"},
		{"not_is.in", "solo", "'solo'"},
		{">", "100", "100"},
		{"CONTAINS", "a,b", "a,b"},
		{"", "ignored", "ignored"},
	}
	for _, tt := range tests {
		t.Run(tt.operator+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.operator, tt.input))
		})
	}
}

func TestPiece_Clause(t *testing.T) {
	assert.Equal(t, "Region FROM Collections TABLE",
		Piece{Variable: "Region FROM Collections TABLE"}.Clause())
	assert.Equal(t, "COUNT UNIQUE Borrower == 'B1'",
		Piece{PreOperator: "COUNT UNIQUE", Variable: "Borrower", Operator: "==", Value: "B1"}.Clause())
}

func TestPiece_Validate(t *testing.T) {
	require.NoError(t, Piece{Variable: "v", Operator: ">=", PreOperator: "SUM", Join: "OR"}.Validate())

	for name, p := range map[string]Piece{
		"no variable":  {Operator: ">"},
		"operator":     {Variable: "v", Operator: "=>"},
		"pre-operator": {Variable: "v", PreOperator: "AVG"},
		"join":         {Variable: "v", Join: "XOR"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, models.IsValidation(p.Validate()))
		})
	}
}

func TestBlock_Add(t *testing.T) {
	b := NewBlock(1)
	assert.Equal(t, BlockEmpty, b.State())

	text, err := b.Add(Piece{Variable: "Overdue Amount FROM Collections TABLE", Operator: ">", Value: "100000"})
	require.NoError(t, err)
	assert.Equal(t, "Overdue Amount FROM Collections TABLE > 100000", text)
	assert.Equal(t, BlockBuilding, b.State())

	text, err = b.Add(Piece{PreOperator: "MAX", Variable: "Max Dpd FROM Collections TABLE", Operator: ">=", Value: "90", Join: "AND"})
	require.NoError(t, err)
	assert.Equal(t, "Overdue Amount FROM Collections TABLE > 100000 AND MAX Max Dpd FROM Collections TABLE >= 90", text)

	// empty join on a non-empty block inserts a single space
	text, err = b.Add(Piece{Variable: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Overdue Amount FROM Collections TABLE > 100000 AND MAX Max Dpd FROM Collections TABLE >= 90 x", text)

	_, err = b.Add(Piece{Variable: "y", Operator: "??"})
	assert.Error(t, err)
	assert.Equal(t, text, b.Text())

	b.Reset()
	assert.Equal(t, BlockEmpty, b.State())
	assert.Empty(t, b.Text())
}
